package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/services"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.categories.Create(ctx, currentUserID(c), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, cat, "Category created successfully")
}

func (h *CategoryHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.categories.List(ctx, pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Categories fetched successfully")
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "categoryId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.categories.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cat, "Category fetched successfully")
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "categoryId")
	if err != nil {
		fail(c, err)
		return
	}
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.categories.Update(ctx, id, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, cat, "Category updated successfully")
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "categoryId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.categories.Delete(ctx, id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Category deleted successfully")
}
