package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

const (
	outboxAggregateTransaction = "transaction"

	eventTransactionCreated = "transaction.created"
	eventTransactionUpdated = "transaction.updated"
	eventTransactionDeleted = "transaction.deleted"
)

// dbtx абстрагирует *sql.DB и *sql.Tx для общих read-хелперов.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type transactionRepository struct {
	db *sql.DB
	// emitOutbox включает запись события в outbox внутри той же
	// SQL-транзакции, что и мутация ledger.
	emitOutbox bool
}

// NewTransactionLedger создаёт PostgreSQL-реализацию TransactionLedger
// без публикации событий.
func NewTransactionLedger(store *Store) domain.TransactionLedger {
	return &transactionRepository{db: store.DB()}
}

// NewTransactionLedgerWithOutbox дополнительно пишет событие каждой
// зафиксированной мутации в transactional outbox.
func NewTransactionLedgerWithOutbox(store *Store) domain.TransactionLedger {
	return &transactionRepository{db: store.DB(), emitOutbox: true}
}

func (r *transactionRepository) Create(ctx context.Context, userID string, in domain.CreateTransaction) (domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Сначала списания: проверка и декремент — один UPDATE под
	// CHECK (stock >= 0), без read-then-write гонки.
	if err = decrementStock(ctx, tx, in.Sales); err != nil {
		return domain.Transaction{}, err
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, user_id, event_id, time, payment_method)
		VALUES ($1, $2, $3, NOW(), $4)
	`, id, userID, in.EventID, string(in.PaymentMethod))
	if err != nil {
		if isForeignKeyViolation(err) {
			if strings.Contains(constraintName(err), "event") {
				return domain.Transaction{}, domain.ErrEventNotFound
			}
			return domain.Transaction{}, domain.ErrUserNotFound
		}
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	if err = insertSales(ctx, tx, id, in.Sales); err != nil {
		return domain.Transaction{}, err
	}

	var created domain.Transaction
	if created, err = loadTransaction(ctx, tx, id); err != nil {
		return domain.Transaction{}, err
	}

	if err = r.enqueueEvent(ctx, tx, eventTransactionCreated, created); err != nil {
		return domain.Transaction{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Transaction{}, fmt.Errorf("commit create transaction: %w", err)
	}

	return created, nil
}

func (r *transactionRepository) Get(ctx context.Context, id string) (domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return loadTransaction(ctx, r.db, id)
}

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := strings.Builder{}
	query.WriteString(`
		SELECT t.transaction_id, t.time, t.payment_method,
		       u.user_id, u.username,
		       e.event_id, e.name, e.start, e.finish
		FROM transactions t
		JOIN users u ON u.user_id = t.user_id
		LEFT JOIN events e ON e.event_id = t.event_id
		LEFT JOIN (
			SELECT transaction_id, SUM(amount * price) AS total
			FROM sales
			GROUP BY transaction_id
		) s ON s.transaction_id = t.transaction_id
	`)

	// Фильтры комбинируются конъюнктивно.
	var (
		conds []string
		args  []any
	)
	addCond := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if filter.Start != nil {
		addCond("t.time > $%d", *filter.Start)
	}
	if filter.Finish != nil {
		addCond("t.time < $%d", *filter.Finish)
	}
	if filter.UserID != nil {
		addCond("t.user_id = $%d", *filter.UserID)
	}
	if filter.EventID != nil {
		addCond("t.event_id = $%d", *filter.EventID)
	}
	if filter.PaymentMethod != nil {
		addCond("t.payment_method = $%d", string(*filter.PaymentMethod))
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	switch filter.OrderBy {
	case domain.TransactionOrderSum:
		query.WriteString(" ORDER BY COALESCE(s.total, 0), t.transaction_id")
	case domain.TransactionOrderDate:
		query.WriteString(" ORDER BY t.time, t.transaction_id")
	default:
		query.WriteString(" ORDER BY t.time DESC, t.transaction_id")
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransactionHeader(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	for i := range result {
		sales, err := loadSales(ctx, r.db, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Sales = sales
	}

	return result, nil
}

func (r *transactionRepository) Update(ctx context.Context, id string, in domain.UpdateTransaction, force bool) (domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Patch заголовка: незаданные поля остаются прежними.
	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET event_id = COALESCE($1, event_id),
		    payment_method = COALESCE($2, payment_method)
		WHERE transaction_id = $3
	`, in.EventID, (*string)(in.PaymentMethod), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Transaction{}, domain.ErrEventNotFound
		}
		return domain.Transaction{}, fmt.Errorf("update transaction header: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return domain.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrTransactionNotFound
		return domain.Transaction{}, err
	}

	// Замена продаж: только если поле sales присутствовало в запросе.
	if in.Sales != nil {
		var removed []stockMove
		if removed, err = deleteSalesReturning(ctx, tx, id); err != nil {
			return domain.Transaction{}, err
		}
		// force пропускает возврат остатков по снятым позициям: старый
		// резерв сгорает, новый спишется полностью.
		if !force {
			if err = restoreStock(ctx, tx, removed); err != nil {
				return domain.Transaction{}, err
			}
		}
		if err = decrementStock(ctx, tx, *in.Sales); err != nil {
			return domain.Transaction{}, err
		}
		if err = insertSales(ctx, tx, id, *in.Sales); err != nil {
			return domain.Transaction{}, err
		}
	}

	var updated domain.Transaction
	if updated, err = loadTransaction(ctx, tx, id); err != nil {
		return domain.Transaction{}, err
	}

	if err = r.enqueueEvent(ctx, tx, eventTransactionUpdated, updated); err != nil {
		return domain.Transaction{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Transaction{}, fmt.Errorf("commit update transaction: %w", err)
	}

	return updated, nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string, returnProducts bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var deleted domain.Transaction
	if deleted, err = loadTransaction(ctx, tx, id); err != nil {
		return err
	}

	var removed []stockMove
	if removed, err = deleteSalesReturning(ctx, tx, id); err != nil {
		return err
	}
	if returnProducts {
		if err = restoreStock(ctx, tx, removed); err != nil {
			return err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE transaction_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrTransactionNotFound
		return err
	}

	if err = r.enqueueEvent(ctx, tx, eventTransactionDeleted, deleted); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	return nil
}

// stockMove — снятая позиция, подлежащая возврату на склад.
type stockMove struct {
	productID string
	amount    int
}

// decrementStock списывает остаток по каждой позиции. Проверка
// неотрицательности выполняется самим UPDATE под CHECK-ограничением,
// поэтому две конкурентные транзакции не могут обе увести stock ниже нуля.
func decrementStock(ctx context.Context, tx dbtx, sales []domain.SaleInput) error {
	for _, sale := range sales {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1 WHERE product_id = $2
		`, sale.Amount, sale.ProductID)
		if err != nil {
			if isCheckViolation(err) {
				return &domain.InsufficientStockError{ProductID: sale.ProductID}
			}
			return fmt.Errorf("decrement stock: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return domain.ErrProductNotFound
		}
	}
	return nil
}

func restoreStock(ctx context.Context, tx dbtx, moves []stockMove) error {
	for _, move := range moves {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock + $1 WHERE product_id = $2
		`, move.amount, move.productID); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

func deleteSalesReturning(ctx context.Context, tx dbtx, transactionID string) ([]stockMove, error) {
	rows, err := tx.QueryContext(ctx, `
		DELETE FROM sales WHERE transaction_id = $1 RETURNING product_id, amount
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("delete sales: %w", err)
	}
	defer rows.Close()

	moves := make([]stockMove, 0)
	for rows.Next() {
		var move stockMove
		if err := rows.Scan(&move.productID, &move.amount); err != nil {
			return nil, fmt.Errorf("scan removed sale: %w", err)
		}
		moves = append(moves, move)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate removed sales: %w", err)
	}

	return moves, nil
}

// insertSales вставляет позиции; незаданная цена берётся из текущей цены
// товара тем же statement, внутри той же атомарной единицы.
func insertSales(ctx context.Context, tx dbtx, transactionID string, sales []domain.SaleInput) error {
	for _, sale := range sales {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sales (sale_id, transaction_id, product_id, amount, price)
			VALUES ($1, $2, $3, $4,
				COALESCE($5, (SELECT price FROM products WHERE product_id = $3)))
		`, uuid.NewString(), transactionID, sale.ProductID, sale.Amount, sale.Price); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
	}
	return nil
}

func loadTransaction(ctx context.Context, tx dbtx, id string) (domain.Transaction, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT t.transaction_id, t.time, t.payment_method,
		       u.user_id, u.username,
		       e.event_id, e.name, e.start, e.finish
		FROM transactions t
		JOIN users u ON u.user_id = t.user_id
		LEFT JOIN events e ON e.event_id = t.event_id
		WHERE t.transaction_id = $1
	`, id)

	txn, err := scanTransactionHeader(row)
	if err != nil {
		return domain.Transaction{}, err
	}

	sales, err := loadSales(ctx, tx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.Sales = sales

	return txn, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionHeader(row rowScanner) (domain.Transaction, error) {
	var (
		txn           domain.Transaction
		paymentMethod string
		eventID       sql.NullString
		eventName     sql.NullString
		eventStart    sql.NullTime
		eventFinish   sql.NullTime
	)

	err := row.Scan(
		&txn.ID, &txn.Time, &paymentMethod,
		&txn.User.ID, &txn.User.Username,
		&eventID, &eventName, &eventStart, &eventFinish,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrTransactionNotFound
		}
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	txn.PaymentMethod = domain.PaymentMethod(paymentMethod)
	if eventID.Valid {
		event := domain.Event{ID: eventID.String, Name: eventName.String}
		if eventStart.Valid {
			start := eventStart.Time
			event.Start = &start
		}
		if eventFinish.Valid {
			finish := eventFinish.Time
			event.Finish = &finish
		}
		txn.Event = &event
	}

	return txn, nil
}

func loadSales(ctx context.Context, tx dbtx, transactionID string) ([]domain.Sale, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT sale_id, product_id, amount, price
		FROM sales
		WHERE transaction_id = $1
		ORDER BY seq ASC
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		sale := domain.Sale{TransactionID: transactionID}
		if err := rows.Scan(&sale.ID, &sale.ProductID, &sale.Amount, &sale.Price); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	return sales, nil
}

type transactionEventPayload struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	EventID       *string   `json:"event_id,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	Sum           float64   `json:"sum"`
	SaleCount     int       `json:"sale_count"`
	Time          time.Time `json:"time"`
}

// enqueueEvent пишет событие мутации в outbox в той же SQL-транзакции,
/// что и сама мутация: событие публикуется тогда и только тогда, когда
// мутация зафиксирована.
func (r *transactionRepository) enqueueEvent(ctx context.Context, tx dbtx, eventType string, txn domain.Transaction) error {
	if !r.emitOutbox {
		return nil
	}

	var eventID *string
	if txn.Event != nil {
		eventID = &txn.Event.ID
	}
	payload, err := json.Marshal(transactionEventPayload{
		TransactionID: txn.ID,
		UserID:        txn.User.ID,
		EventID:       eventID,
		PaymentMethod: string(txn.PaymentMethod),
		Sum:           txn.Sum(),
		SaleCount:     len(txn.Sales),
		Time:          txn.Time,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	return enqueueOutboxTx(ctx, tx, domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: outboxAggregateTransaction,
		AggregateID:   txn.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

var _ domain.TransactionLedger = (*transactionRepository)(nil)
