package domain

import "time"

// PaymentMethod описывает способ оплаты транзакции.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "Cash"
	PaymentMethodCard PaymentMethod = "Card"
	PaymentMethodBLIK PaymentMethod = "BLIK"
)

// Valid проверяет, что значение входит в допустимый перечень.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBLIK:
		return true
	}
	return false
}

// Sale — одна позиция транзакции: товар, количество, цена за единицу.
// Позиция принадлежит транзакции эксклюзивно и удаляется вместе с ней.
type Sale struct {
	ID            string
	TransactionID string
	ProductID     string
	Amount        int
	Price         float64
}

// Transaction агрегирует заголовок и упорядоченный список позиций.
type Transaction struct {
	ID            string
	User          User
	Event         *Event
	Time          time.Time
	PaymentMethod PaymentMethod
	Sales         []Sale
}

// Sum возвращает производную сумму транзакции: Σ amount × price.
// Не хранится, используется только для сортировки и отчётности.
func (t Transaction) Sum() float64 {
	var sum float64
	for _, sale := range t.Sales {
		sum += float64(sale.Amount) * sale.Price
	}
	return sum
}

// SaleInput — позиция в запросе на создание/замену продаж.
// Price == nil означает "взять текущую цену товара на момент операции".
type SaleInput struct {
	ProductID string
	Amount    int
	Price     *float64
}

// Validate проверяет базовые инварианты позиции.
func (s SaleInput) Validate() []error {
	var errs []error
	if s.Amount <= 0 {
		errs = append(errs, ErrSaleAmountInvalid)
	}
	if s.Price != nil && *s.Price < 0 {
		errs = append(errs, ErrSalePriceInvalid)
	}
	return errs
}

// CreateTransaction — входные данные операции создания.
type CreateTransaction struct {
	EventID       *string
	PaymentMethod PaymentMethod
	Sales         []SaleInput
}

// Validate возвращает список нарушений инвариантов запроса.
// Пустой список продаж допустим: это вырожденная, но валидная транзакция.
func (c CreateTransaction) Validate() []error {
	var errs []error
	if !c.PaymentMethod.Valid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}
	for _, sale := range c.Sales {
		errs = append(errs, sale.Validate()...)
	}
	return errs
}

// UpdateTransaction — частичное обновление заголовка плюс полная замена
// продаж. nil-поля заголовка остаются без изменений. Sales == nil означает
// "продажи не трогать"; не-nil (в том числе пустой) список заменяет все
// существующие позиции.
type UpdateTransaction struct {
	EventID       *string
	PaymentMethod *PaymentMethod
	Sales         *[]SaleInput
}

// Validate возвращает список нарушений инвариантов запроса.
func (u UpdateTransaction) Validate() []error {
	var errs []error
	if u.PaymentMethod != nil && !u.PaymentMethod.Valid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}
	if u.Sales != nil {
		for _, sale := range *u.Sales {
			errs = append(errs, sale.Validate()...)
		}
	}
	return errs
}

// TransactionOrder задаёт сортировку списка транзакций.
type TransactionOrder string

const (
	// TransactionOrderDate — по времени создания.
	TransactionOrderDate TransactionOrder = "date"
	// TransactionOrderSum — по производной сумме.
	TransactionOrderSum TransactionOrder = "sum"
)

// TransactionFilter — конъюнктивные фильтры списка транзакций.
// nil-поле означает отсутствие ограничения.
type TransactionFilter struct {
	Start         *time.Time
	Finish        *time.Time
	UserID        *string
	EventID       *string
	PaymentMethod *PaymentMethod
	OrderBy       TransactionOrder
}
