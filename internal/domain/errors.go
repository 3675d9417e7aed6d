package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре username/password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken возвращается, если bearer-токен отсутствует или истёк.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionLimitExceeded — у пользователя уже максимум активных токенов.
	ErrSessionLimitExceeded = errors.New("token limit exceeded")
	// ErrTokenCollision сигнализирует о коллизии значения токена при вставке.
	ErrTokenCollision = errors.New("token value collision")
	// ErrAdminRequired возвращается при неверном admin-ключе.
	ErrAdminRequired = errors.New("admin status required")

	// ErrTransactionNotFound — транзакция с таким id отсутствует.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrProductNotFound — товар с таким id отсутствует.
	ErrProductNotFound = errors.New("product not found")
	// ErrEventNotFound — событие с таким id отсутствует.
	ErrEventNotFound = errors.New("event not found")
	// ErrCategoryNotFound — категория с таким id отсутствует.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrUserNotFound — пользователь с таким id отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrImageNotFound — у товара нет загруженного изображения.
	ErrImageNotFound = errors.New("image not found")

	// ErrProductExists — нарушение уникальности имени товара.
	ErrProductExists = errors.New("product already exists")
	// ErrCategoryExists — нарушение уникальности имени категории.
	ErrCategoryExists = errors.New("category already exists")
	// ErrEventExists — нарушение уникальности имени события.
	ErrEventExists = errors.New("event already exists")
	// ErrUserExists — нарушение уникальности username.
	ErrUserExists = errors.New("user already exists")

	// ErrUnsupportedImage — загруженный файл не распознан как изображение.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки валидации входных данных ledger.
	ErrPaymentMethodInvalid = errors.New("unknown payment method")
	ErrSaleAmountInvalid    = errors.New("sale amount must be greater than zero")
	ErrSalePriceInvalid     = errors.New("sale price must be non-negative")
	// ErrEventRangeInvalid — finish раньше start в запросе события.
	ErrEventRangeInvalid = errors.New("finish time cannot be before start time")
)

// InsufficientStockError возвращается, когда списание увело бы остаток
// товара ниже нуля. Несёт id товара, на котором операция сорвалась:
// конфликт должен называть конкретный товар.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough product %s", e.ProductID)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
