package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type createTransactionRequest struct {
	EventID       *string            `json:"event_id"`
	PaymentMethod string             `json:"payment_method"`
	Sales         []saleInputRequest `json:"sales"`
}

type updateTransactionRequest struct {
	EventID       *string             `json:"event_id"`
	PaymentMethod *string             `json:"payment_method"`
	Sales         *[]saleInputRequest `json:"sales"`
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	user := currentUser(c)
	txn, err := s.ledger.Create(c.Request.Context(), user.ID, domain.CreateTransaction{
		EventID:       req.EventID,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Sales:         toSaleInputs(req.Sales),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	txn, err := s.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleListTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := s.ledger.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponses(txns))
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	force, err := parseBoolQuery(c, "force")
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	in := domain.UpdateTransaction{EventID: req.EventID}
	if req.PaymentMethod != nil {
		method := domain.PaymentMethod(*req.PaymentMethod)
		in.PaymentMethod = &method
	}
	if req.Sales != nil {
		sales := toSaleInputs(*req.Sales)
		in.Sales = &sales
	}

	txn, err := s.ledger.Update(c.Request.Context(), c.Param("id"), in, force)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	// По умолчанию остатки возвращаются на склад.
	returnProducts := true
	if raw, ok := c.GetQuery("return_products"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			detail(c, http.StatusBadRequest, "invalid return_products value")
			return
		}
		returnProducts = parsed
	}

	if err := s.ledger.Delete(c.Request.Context(), c.Param("id"), returnProducts); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseTransactionFilter(c *gin.Context) (domain.TransactionFilter, error) {
	var filter domain.TransactionFilter

	start, err := parseTimeQuery(c, "start")
	if err != nil {
		return domain.TransactionFilter{}, err
	}
	filter.Start = start

	finish, err := parseTimeQuery(c, "finish")
	if err != nil {
		return domain.TransactionFilter{}, err
	}
	filter.Finish = finish

	if userID, ok := c.GetQuery("user_id"); ok {
		filter.UserID = &userID
	}
	if eventID, ok := c.GetQuery("event_id"); ok {
		filter.EventID = &eventID
	}
	if raw, ok := c.GetQuery("payment_method"); ok {
		method := domain.PaymentMethod(raw)
		if !method.Valid() {
			return domain.TransactionFilter{}, domain.ErrPaymentMethodInvalid
		}
		filter.PaymentMethod = &method
	}
	if raw, ok := c.GetQuery("order_by"); ok {
		switch domain.TransactionOrder(raw) {
		case domain.TransactionOrderDate, domain.TransactionOrderSum:
			filter.OrderBy = domain.TransactionOrder(raw)
		default:
			return domain.TransactionFilter{}, errInvalidOrderBy
		}
	}

	return filter, nil
}

var errInvalidOrderBy = errInvalid("invalid order_by value")

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errInvalid("invalid " + name + " value")
	}
	return &parsed, nil
}

func parseBoolQuery(c *gin.Context, name string) (bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errInvalid("invalid " + name + " value")
	}
	return parsed, nil
}
