package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/service/ledger"
)

// Фиксированные строки поля detail.
const (
	detailInvalidBody           = "Invalid Request Body"
	detailInvalidCredentials    = "Invalid Username or Password"
	detailInvalidToken          = "Invalid Token"
	detailTokenLimit            = "Token Limit Exceeded"
	detailAdminRequired         = "Admin Status Required"
	detailTransactionNotFound   = "Such transaction does not exist"
	detailEventNotFound         = "Event not found"
	detailEventExists           = "Event with such name already exists"
	detailEventRange            = "Finish time cannot be before start time"
	detailCategoryNotFound      = "Such category does not exist"
	detailCategoryExists        = "Such category already exists"
	detailProductNotFound       = "Such Product Does not Exist"
	detailProductExists         = "Such Product Already Exists"
	detailProductCategory       = "Such Category Does not Exist"
	detailUserNotFound          = "Such User Does not Exist"
	detailUserExists            = "Such User Already Exists"
	detailUsernameTaken         = "User with Such Username Already Exists"
	detailImageNotFound         = "Such Image Does not Exist"
	detailUnsupportedImage      = "Unable to determine file type"
	detailInternal              = "Internal Server Error"
)

// detail отвечает единообразным телом ошибки {"detail": "..."}.
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// respondError транслирует доменную ошибку в статус и detail-строку.
func (s *Server) respondError(c *gin.Context, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		detail(c, http.StatusBadRequest, verr.Error())
		return
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		detail(c, http.StatusConflict, fmt.Sprintf("Not enough product %s", stockErr.ProductID))
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		detail(c, http.StatusUnauthorized, detailInvalidCredentials)
	case errors.Is(err, domain.ErrInvalidToken):
		detail(c, http.StatusForbidden, detailInvalidToken)
	case errors.Is(err, domain.ErrSessionLimitExceeded):
		detail(c, http.StatusForbidden, detailTokenLimit)
	case errors.Is(err, domain.ErrAdminRequired):
		detail(c, http.StatusForbidden, detailAdminRequired)
	case errors.Is(err, domain.ErrTransactionNotFound):
		detail(c, http.StatusNotFound, detailTransactionNotFound)
	case errors.Is(err, domain.ErrEventNotFound):
		detail(c, http.StatusNotFound, detailEventNotFound)
	case errors.Is(err, domain.ErrCategoryNotFound):
		detail(c, http.StatusNotFound, detailCategoryNotFound)
	case errors.Is(err, domain.ErrProductNotFound):
		detail(c, http.StatusNotFound, detailProductNotFound)
	case errors.Is(err, domain.ErrUserNotFound):
		detail(c, http.StatusNotFound, detailUserNotFound)
	case errors.Is(err, domain.ErrImageNotFound):
		detail(c, http.StatusNotFound, detailImageNotFound)
	case errors.Is(err, domain.ErrEventExists):
		detail(c, http.StatusConflict, detailEventExists)
	case errors.Is(err, domain.ErrCategoryExists):
		detail(c, http.StatusConflict, detailCategoryExists)
	case errors.Is(err, domain.ErrProductExists):
		detail(c, http.StatusConflict, detailProductExists)
	case errors.Is(err, domain.ErrUserExists):
		detail(c, http.StatusConflict, detailUserExists)
	case errors.Is(err, domain.ErrEventRangeInvalid):
		detail(c, http.StatusBadRequest, detailEventRange)
	case errors.Is(err, domain.ErrUnsupportedImage):
		detail(c, http.StatusUnsupportedMediaType, detailUnsupportedImage)
	default:
		s.logger.WithError(err).Error("unhandled error in http handler")
		detail(c, http.StatusInternalServerError, detailInternal)
	}
}
