package http

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/service/auth"
	"github.com/vladislavdragonenkov/prodhub/internal/service/ledger"
)

// Server агрегирует сервисы и репозитории для HTTP-обработчиков.
type Server struct {
	auth       *auth.Service
	ledger     *ledger.Service
	users      domain.UserRepository
	products   domain.ProductRepository
	categories domain.CategoryRepository
	events     domain.EventRepository

	adminKey  string
	staticDir string
	logger    *log.Entry
}

// Config — зависимости HTTP-слоя.
type Config struct {
	Auth       *auth.Service
	Ledger     *ledger.Service
	Users      domain.UserRepository
	Products   domain.ProductRepository
	Categories domain.CategoryRepository
	Events     domain.EventRepository

	// AdminKey — секрет заголовка x-admin-key; пустое значение
	// отключает admin-эндпоинты.
	AdminKey string
	// StaticDir — каталог для изображений товаров.
	StaticDir string
}

// NewServer создаёт HTTP-слой поверх сервисов.
func NewServer(cfg Config) *Server {
	return &Server{
		auth:       cfg.Auth,
		ledger:     cfg.Ledger,
		users:      cfg.Users,
		products:   cfg.Products,
		categories: cfg.Categories,
		events:     cfg.Events,
		adminKey:   cfg.AdminKey,
		staticDir:  cfg.StaticDir,
		logger:     log.WithField("component", "http-server"),
	}
}

// Router собирает gin-роутер со всеми маршрутами и middleware.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	user := engine.Group("/user")
	{
		user.POST("/login", s.handleLogin)
		user.POST("/logout", s.requireToken(), s.handleLogout)
		user.POST("/logout-all", s.requireToken(), s.handleLogoutAll)
		user.GET("/", s.requireToken(), s.handleCurrentUser)
	}

	transactions := engine.Group("/transactions", s.requireToken())
	{
		transactions.GET("", s.handleListTransactions)
		transactions.POST("", s.handleCreateTransaction)
		transactions.GET("/:id", s.handleGetTransaction)
		transactions.PATCH("/:id", s.handleUpdateTransaction)
		transactions.DELETE("/:id", s.handleDeleteTransaction)
	}

	categories := engine.Group("/categories", s.requireToken())
	{
		categories.GET("", s.handleListCategories)
		categories.POST("", s.handleCreateCategory)
		categories.GET("/:id", s.handleGetCategory)
		categories.PATCH("/:id", s.handleUpdateCategory)
		categories.DELETE("/:id", s.handleDeleteCategory)
	}

	events := engine.Group("/events", s.requireToken())
	{
		events.GET("", s.handleListEvents)
		events.POST("", s.handleCreateEvent)
		events.GET("/:id", s.handleGetEvent)
		events.PATCH("/:id", s.handleUpdateEvent)
		events.DELETE("/:id", s.handleDeleteEvent)
	}

	products := engine.Group("/products", s.requireToken())
	{
		products.GET("", s.handleListProducts)
		products.POST("", s.handleCreateProduct)
		products.GET("/:id", s.handleGetProduct)
		products.PATCH("/:id", s.handleUpdateProduct)
		products.DELETE("/:id", s.handleDeleteProduct)
		products.PUT("/:id/image", s.handleSetProductImage)
		products.DELETE("/:id/image", s.handleDeleteProductImage)
	}

	admin := engine.Group("/admin", s.requireAdmin())
	{
		admin.POST("/users", s.handleAdminCreateUser)
		admin.PATCH("/users/:id", s.handleAdminUpdateUser)
		admin.DELETE("/users/:id", s.handleAdminDeleteUser)
	}

	if s.staticDir != "" {
		engine.Static("/static", s.staticDir)
	}

	return engine
}
