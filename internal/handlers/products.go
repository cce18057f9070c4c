package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopkart_back_end/internal/services"
)

const defaultSearchLimit = 20

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type createProductRequest struct {
	Name        string  `form:"name" binding:"required,max=200"`
	Description string  `form:"description" binding:"required"`
	Category    string  `form:"category" binding:"required"`
	Price       float64 `form:"price" binding:"gte=0"`
	Stock       int     `form:"stock" binding:"gte=0"`
}

type updateProductRequest struct {
	Name        *string  `form:"name" binding:"omitempty,min=1,max=200"`
	Description *string  `form:"description" binding:"omitempty,min=1"`
	Category    *string  `form:"category"`
	Price       *float64 `form:"price" binding:"omitempty,gte=0"`
	Stock       *int     `form:"stock" binding:"omitempty,gte=0"`
}

// images returns the uploaded main image and sub images, either of which may
// be missing.
func images(c *gin.Context) (*multipart.FileHeader, []*multipart.FileHeader) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	var main *multipart.FileHeader
	if files := form.File["mainImage"]; len(files) > 0 {
		main = files[0]
	}
	return main, form.File["subImages"]
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	category, err := parseHexField("category", req.Category)
	if err != nil {
		fail(c, err)
		return
	}
	main, subs := images(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Create(ctx, currentUserID(c), services.ProductInput{
		Category:    category,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		MainImage:   main,
		SubImages:   subs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p, "Product created successfully")
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	var req updateProductRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	patch := services.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if req.Category != nil {
		category, err := parseHexField("category", *req.Category)
		if err != nil {
			fail(c, err)
			return
		}
		patch.Category = &category
	}
	patch.MainImage, patch.SubImages = images(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Update(ctx, id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p, "Product updated successfully")
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Delete(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"deletedProduct": p}, "Product deleted successfully")
}

func (h *ProductHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.products.List(ctx, pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Products fetched successfully")
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.Get(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p, "Product fetched successfully")
}

func (h *ProductHandler) ListByCategory(c *gin.Context) {
	id, err := objectIDParam(c, "categoryId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.products.ListByCategory(ctx, id, pageQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, page, "Category products fetched successfully")
}

func (h *ProductHandler) RemoveSubImage(c *gin.Context) {
	productID, err := objectIDParam(c, "productId")
	if err != nil {
		fail(c, err)
		return
	}
	subImageID, err := objectIDParam(c, "subImageId")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.products.RemoveSubImage(ctx, productID, subImageID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, p, "Sub image removed successfully")
}

func (h *ProductHandler) Search(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit < 1 {
		limit = defaultSearchLimit
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	products, err := h.products.Search(ctx, c.Query("q"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"products": products}, "Products fetched successfully")
}
