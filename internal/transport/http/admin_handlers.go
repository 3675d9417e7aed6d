package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/service/auth"
)

type adminCreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminUpdateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (s *Server) handleAdminCreateUser(c *gin.Context) {
	var req adminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	creds, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	user, err := s.users.Create(c.Request.Context(), req.Username, creds)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleAdminUpdateUser(c *gin.Context) {
	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	var creds *domain.UserCredentials
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.respondError(c, err)
			return
		}
		creds = &hashed
	}

	user, err := s.users.Update(c.Request.Context(), c.Param("id"), req.Username, creds)
	if err != nil {
		// При обновлении конфликт всегда вызван занятым username.
		if errors.Is(err, domain.ErrUserExists) {
			detail(c, http.StatusConflict, detailUsernameTaken)
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleAdminDeleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
