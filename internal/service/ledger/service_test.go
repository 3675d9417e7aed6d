package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/storage/memory"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	user    domain.User
	cola    domain.Product
	pretzel domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	user, err := store.Users().Create(ctx, "cashier", domain.UserCredentials{})
	require.NoError(t, err)

	cola, err := store.Products().Create(ctx, domain.CreateProduct{Name: "Cola", Stock: 10, Price: 2.5})
	require.NoError(t, err)
	pretzel, err := store.Products().Create(ctx, domain.CreateProduct{Name: "Pretzel", Stock: 3, Price: 4})
	require.NoError(t, err)

	return &fixture{
		svc:     NewService(store.Ledger(), nil),
		store:   store,
		user:    user,
		cola:    cola,
		pretzel: pretzel,
	}
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	product, err := f.store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestCreate_DecrementsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales: []domain.SaleInput{
			{ProductID: f.cola.ID, Amount: 4},
			{ProductID: f.pretzel.ID, Amount: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, f.stockOf(t, f.cola.ID))
	assert.Equal(t, 2, f.stockOf(t, f.pretzel.ID))
	require.Len(t, txn.Sales, 2)
	// Цена позиции по умолчанию — текущая цена товара.
	assert.Equal(t, 2.5, txn.Sales[0].Price)
	assert.Equal(t, 10.0, txn.Sum())
}

func TestCreate_ExplicitPriceOverridesProduct(t *testing.T) {
	f := newFixture(t)

	price := 1.0
	txn, err := f.svc.Create(context.Background(), f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCard,
		Sales: []domain.SaleInput{
			{ProductID: f.cola.ID, Amount: 2, Price: &price},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, txn.Sales[0].Price)
}

func TestCreate_InsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Вторая позиция превышает остаток: первая не должна примениться.
	_, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales: []domain.SaleInput{
			{ProductID: f.cola.ID, Amount: 4},
			{ProductID: f.pretzel.ID, Amount: 5},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientStock(err))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, f.pretzel.ID, stockErr.ProductID)

	assert.Equal(t, 10, f.stockOf(t, f.cola.ID))
	assert.Equal(t, 3, f.stockOf(t, f.pretzel.ID))

	txns, err := f.svc.List(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCreate_RepeatedProductAccumulates(t *testing.T) {
	f := newFixture(t)

	// Две позиции одного товара списываются суммарно.
	_, err := f.svc.Create(context.Background(), f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales: []domain.SaleInput{
			{ProductID: f.pretzel.ID, Amount: 2},
			{ProductID: f.pretzel.ID, Amount: 2},
		},
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientStock(err))
	assert.Equal(t, 3, f.stockOf(t, f.pretzel.ID))
}

func TestCreate_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales: []domain.SaleInput{
			{ProductID: "does-not-exist", Amount: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreate_EmptySalesAllowed(t *testing.T) {
	f := newFixture(t)

	txn, err := f.svc.Create(context.Background(), f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodBLIK,
	})
	require.NoError(t, err)
	assert.Empty(t, txn.Sales)
	assert.Equal(t, 0.0, txn.Sum())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.user.ID, domain.CreateTransaction{
		PaymentMethod: "Barter",
		Sales: []domain.SaleInput{
			{ProductID: f.cola.ID, Amount: 0},
		},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errs, 2)

	// Валидация срабатывает до обращения к хранилищу.
	assert.Equal(t, 10, f.stockOf(t, f.cola.ID))
}

func TestUpdate_ReplacesSalesAndReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, f.stockOf(t, f.cola.ID))

	newSales := []domain.SaleInput{{ProductID: f.cola.ID, Amount: 1}}
	updated, err := f.svc.Update(ctx, txn.ID, domain.UpdateTransaction{Sales: &newSales}, false)
	require.NoError(t, err)

	// 6 + 4 (возврат) - 1 (новая позиция) = 9.
	assert.Equal(t, 9, f.stockOf(t, f.cola.ID))
	require.Len(t, updated.Sales, 1)
	assert.Equal(t, 1, updated.Sales[0].Amount)
}

func TestUpdate_ForceSkipsReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)

	newSales := []domain.SaleInput{{ProductID: f.cola.ID, Amount: 1}}
	_, err = f.svc.Update(ctx, txn.ID, domain.UpdateTransaction{Sales: &newSales}, true)
	require.NoError(t, err)

	// Возврата нет: 6 - 1 = 5.
	assert.Equal(t, 5, f.stockOf(t, f.cola.ID))
}

func TestUpdate_NilSalesLeavesPositions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)

	method := domain.PaymentMethodCard
	updated, err := f.svc.Update(ctx, txn.ID, domain.UpdateTransaction{PaymentMethod: &method}, false)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentMethodCard, updated.PaymentMethod)
	assert.Len(t, updated.Sales, 1)
	assert.Equal(t, 6, f.stockOf(t, f.cola.ID))
}

func TestUpdate_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)

	// Даже с возвратом старых позиций (6 + 4 = 10) на 11 не хватает.
	newSales := []domain.SaleInput{{ProductID: f.cola.ID, Amount: 11}}
	_, err = f.svc.Update(ctx, txn.ID, domain.UpdateTransaction{Sales: &newSales}, false)
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientStock(err))

	// Состояние не изменилось: ни возврат, ни списание не применились.
	assert.Equal(t, 6, f.stockOf(t, f.cola.ID))
	got, err := f.svc.Get(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, got.Sales, 1)
	assert.Equal(t, 4, got.Sales[0].Amount)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	method := domain.PaymentMethodCard
	_, err := f.svc.Update(context.Background(), "missing", domain.UpdateTransaction{PaymentMethod: &method}, false)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDelete_ReturnProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, txn.ID, true))
	assert.Equal(t, 10, f.stockOf(t, f.cola.ID))

	_, err = f.svc.Get(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDelete_WithoutReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 4}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, txn.ID, false))
	assert.Equal(t, 6, f.stockOf(t, f.cola.ID))
}

func TestDelete_EmptyTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Транзакция без позиций удаляется, даже с return_products.
	txn, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, txn.ID, true))
	_, err = f.svc.Get(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "missing", true)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestList_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	small, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCash,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 1}},
	})
	require.NoError(t, err)
	big, err := f.svc.Create(ctx, f.user.ID, domain.CreateTransaction{
		PaymentMethod: domain.PaymentMethodCard,
		Sales:         []domain.SaleInput{{ProductID: f.cola.ID, Amount: 5}},
	})
	require.NoError(t, err)

	method := domain.PaymentMethodCard
	byMethod, err := f.svc.List(ctx, domain.TransactionFilter{PaymentMethod: &method})
	require.NoError(t, err)
	require.Len(t, byMethod, 1)
	assert.Equal(t, big.ID, byMethod[0].ID)

	bySum, err := f.svc.List(ctx, domain.TransactionFilter{OrderBy: domain.TransactionOrderSum})
	require.NoError(t, err)
	require.Len(t, bySum, 2)
	assert.Equal(t, small.ID, bySum[0].ID)
	assert.Equal(t, big.ID, bySum[1].ID)

	otherUser := "someone-else"
	byUser, err := f.svc.List(ctx, domain.TransactionFilter{UserID: &otherUser})
	require.NoError(t, err)
	assert.Empty(t, byUser)
}
