package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// maxImageBytes ограничивает размер загружаемого изображения (8 MiB).
const maxImageBytes = 8 << 20

type createProductRequest struct {
	Name       string   `json:"name" binding:"required"`
	Stock      int      `json:"stock"`
	Price      float64  `json:"price"`
	Categories []string `json:"categories"`
}

type updateProductRequest struct {
	Name       *string   `json:"name"`
	Stock      *int      `json:"stock"`
	Price      *float64  `json:"price"`
	Categories *[]string `json:"categories"`
}

func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.products.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	result := make([]productResponse, 0, len(products))
	for _, product := range products {
		result = append(result, toProductResponse(product))
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	product, err := s.products.Create(c.Request.Context(), domain.CreateProduct{
		Name:       req.Name,
		Stock:      req.Stock,
		Price:      req.Price,
		Categories: req.Categories,
	})
	if err != nil {
		s.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	product, err := s.products.Update(c.Request.Context(), c.Param("id"), domain.UpdateProduct{
		Name:       req.Name,
		Stock:      req.Stock,
		Price:      req.Price,
		Categories: req.Categories,
	})
	if err != nil {
		s.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSetProductImage принимает тело запроса как сырое изображение,
// определяет тип по содержимому и публикует файл под /static.
func (s *Server) handleSetProductImage(c *gin.Context) {
	id := c.Param("id")
	product, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes))
	if err != nil || len(body) == 0 {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	ext, ok := imageExtension(http.DetectContentType(body))
	if !ok {
		detail(c, http.StatusUnsupportedMediaType, detailUnsupportedImage)
		return
	}

	fileName := product.ID + ext
	if err := os.WriteFile(filepath.Join(s.staticDir, fileName), body, 0o644); err != nil {
		s.logger.WithError(err).Error("failed to store product image")
		detail(c, http.StatusInternalServerError, detailInternal)
		return
	}

	url := path.Join("/static", fileName)
	if err := s.products.SetImage(c.Request.Context(), id, &url); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": url})
}

func (s *Server) handleDeleteProductImage(c *gin.Context) {
	id := c.Param("id")
	product, err := s.products.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if product.Image == nil {
		detail(c, http.StatusNotFound, detailImageNotFound)
		return
	}

	// Сначала очищаем ссылку, затем убираем файл: битая ссылка хуже
	// осиротевшего файла.
	if err := s.products.SetImage(c.Request.Context(), id, nil); err != nil {
		s.respondError(c, err)
		return
	}
	if err := os.Remove(filepath.Join(s.staticDir, path.Base(*product.Image))); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).Warn("failed to remove product image file")
	}

	c.Status(http.StatusNoContent)
}

// respondProductError уточняет detail для отсутствующей категории: в
// контексте товара клиент ссылался на категорию, а не на товар.
func (s *Server) respondProductError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrCategoryNotFound) {
		detail(c, http.StatusNotFound, detailProductCategory)
		return
	}
	s.respondError(c, err)
}

func imageExtension(contentType string) (string, bool) {
	switch contentType {
	case "image/png":
		return ".png", true
	case "image/jpeg":
		return ".jpg", true
	default:
		return "", false
	}
}
