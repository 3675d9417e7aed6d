package http

import (
	"time"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type sessionResponse struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

type userResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type categoryResponse struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type productResponse struct {
	ProductID  string             `json:"product_id"`
	Name       string             `json:"name"`
	Stock      int                `json:"stock"`
	Price      float64            `json:"price"`
	Image      *string            `json:"image"`
	Categories []categoryResponse `json:"categories"`
}

type eventResponse struct {
	EventID string     `json:"event_id"`
	Name    string     `json:"name"`
	Start   *time.Time `json:"start"`
	Finish  *time.Time `json:"finish"`
}

type saleResponse struct {
	SaleID    string  `json:"sale_id"`
	ProductID string  `json:"product_id"`
	Amount    int     `json:"amount"`
	Price     float64 `json:"price"`
}

type transactionResponse struct {
	TransactionID string         `json:"transaction_id"`
	UserID        string         `json:"user_id"`
	Username      string         `json:"username"`
	EventID       *string        `json:"event_id"`
	Time          time.Time      `json:"time"`
	PaymentMethod string         `json:"payment_method"`
	Sum           float64        `json:"sum"`
	Sales         []saleResponse `json:"sales"`
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{UserID: user.ID, Username: user.Username}
}

func toCategoryResponse(category domain.Category) categoryResponse {
	return categoryResponse{CategoryID: category.ID, Name: category.Name}
}

func toCategoryResponses(categories []domain.Category) []categoryResponse {
	result := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		result = append(result, toCategoryResponse(category))
	}
	return result
}

func toProductResponse(product domain.Product) productResponse {
	return productResponse{
		ProductID:  product.ID,
		Name:       product.Name,
		Stock:      product.Stock,
		Price:      product.Price,
		Image:      product.Image,
		Categories: toCategoryResponses(product.Categories),
	}
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		EventID: event.ID,
		Name:    event.Name,
		Start:   event.Start,
		Finish:  event.Finish,
	}
}

func toTransactionResponse(txn domain.Transaction) transactionResponse {
	sales := make([]saleResponse, 0, len(txn.Sales))
	for _, sale := range txn.Sales {
		sales = append(sales, saleResponse{
			SaleID:    sale.ID,
			ProductID: sale.ProductID,
			Amount:    sale.Amount,
			Price:     sale.Price,
		})
	}

	var eventID *string
	if txn.Event != nil {
		eventID = &txn.Event.ID
	}

	return transactionResponse{
		TransactionID: txn.ID,
		UserID:        txn.User.ID,
		Username:      txn.User.Username,
		EventID:       eventID,
		Time:          txn.Time,
		PaymentMethod: string(txn.PaymentMethod),
		Sum:           txn.Sum(),
		Sales:         sales,
	}
}

func toTransactionResponses(txns []domain.Transaction) []transactionResponse {
	result := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		result = append(result, toTransactionResponse(txn))
	}
	return result
}

type saleInputRequest struct {
	ProductID string   `json:"product_id"`
	Amount    int      `json:"amount"`
	Price     *float64 `json:"price"`
}

func toSaleInputs(sales []saleInputRequest) []domain.SaleInput {
	result := make([]domain.SaleInput, 0, len(sales))
	for _, sale := range sales {
		result = append(result, domain.SaleInput{
			ProductID: sale.ProductID,
			Amount:    sale.Amount,
			Price:     sale.Price,
		})
	}
	return result
}
