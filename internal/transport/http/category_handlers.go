package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.categories.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponses(categories))
}

func (s *Server) handleGetCategory(c *gin.Context) {
	category, err := s.categories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	category, err := s.categories.Create(c.Request.Context(), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	category, err := s.categories.Update(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	if err := s.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
