package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleLogin принимает учётные данные через HTTP Basic и выдаёт токен.
func (s *Server) handleLogin(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		detail(c, http.StatusUnauthorized, detailInvalidCredentials)
		return
	}

	session, err := s.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		Value:   session.Value,
		Expires: session.Expires,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	session := currentSession(c)
	if err := s.auth.Logout(c.Request.Context(), session.Value); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(c *gin.Context) {
	user := currentUser(c)
	if err := s.auth.LogoutAll(c.Request.Context(), user.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleCurrentUser возвращает владельца токена и срок его действия.
func (s *Server) handleCurrentUser(c *gin.Context) {
	user := currentUser(c)
	session := currentSession(c)

	c.JSON(http.StatusOK, gin.H{
		"user":    toUserResponse(user),
		"expires": session.Expires,
	})
}
