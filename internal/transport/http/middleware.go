package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

const (
	ctxKeyUser    = "auth.user"
	ctxKeySession = "auth.session"

	adminKeyHeader = "x-admin-key"
)

// requireToken извлекает bearer-токен и пропускает запрос дальше только
// с действительным токеном. Отсутствующий, неизвестный и истёкший токен
// неразличимы для клиента.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		value := bearerToken(c.GetHeader("Authorization"))
		if value == "" {
			detail(c, http.StatusForbidden, detailInvalidToken)
			c.Abort()
			return
		}

		user, session, err := s.auth.Authenticate(c.Request.Context(), value)
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxKeyUser, user)
		c.Set(ctxKeySession, session)
		c.Next()
	}
}

// requireAdmin сверяет заголовок x-admin-key с секретом за постоянное
// время. Пустой секрет полностью закрывает admin-поверхность.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(adminKeyHeader)
		if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
			detail(c, http.StatusForbidden, detailAdminRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken выделяет значение из заголовка Authorization.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// currentUser возвращает аутентифицированного пользователя запроса.
func currentUser(c *gin.Context) domain.User {
	user, _ := c.Get(ctxKeyUser)
	u, _ := user.(domain.User)
	return u
}

// currentSession возвращает токен, которым аутентифицирован запрос.
func currentSession(c *gin.Context) domain.Session {
	session, _ := c.Get(ctxKeySession)
	s, _ := session.(domain.Session)
	return s
}
