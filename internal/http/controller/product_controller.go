package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vkozak/product-catalog/internal/http/middleware"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/service"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
	ratingService  *service.RatingService
}

// NewProductController creates a new ProductController with the given services.
func NewProductController(productService *service.ProductService, ratingService *service.RatingService) *ProductController {
	return &ProductController{
		productService: productService,
		ratingService:  ratingService,
	}
}

// ProductRequest represents the request body for creating or replacing a
// product. Rating and timestamps are never accepted from the client.
type ProductRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required,gt=0"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Rating    float64 `json:"rating"`
	UpdatedAt string  `json:"updated_at"`
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	createdProduct, err := pc.productService.CreateProduct(c.Request.Context(), req.Name, req.Price)
	if err != nil {
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"name": []string{"product with this name already exists"}}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(createdProduct))
}

// GetProduct handles the HTTP GET request for retrieving a product by ID.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get product"})
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// UpdateProduct handles the HTTP PUT request for replacing a product's name
// and price by ID.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	updated, err := pc.productService.UpdateProduct(c.Request.Context(), id, req.Name, req.Price)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"name": []string{"product with this name already exists"}}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product"})
		return
	}

	c.JSON(http.StatusOK, toProductResponse(updated))
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully"})
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	PerPage int32  `form:"per_page"`
	Page    int32  `form:"page"`
	OrderBy string `form:"order_by"`
	Order   string `form:"order"`
	Search  string `form:"search"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// ListProducts handles the HTTP GET request for listing products with
// pagination, ordering and search.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplySort(req.OrderBy, req.Order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	query.ApplyPagination(req.PerPage, req.Page)
	query.Search = req.Search

	products, err := pc.productService.ListProducts(c.Request.Context(), *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	productResponses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		productResponses = append(productResponses, toProductResponse(product))
	}

	c.JSON(http.StatusOK, ListProductsResponse{Products: productResponses})
}

// RateProductRequest represents the request body for rating a product.
// Value is a pointer so an explicit zero rating passes the required check.
type RateProductRequest struct {
	Value *int `json:"value" binding:"required"`
}

// RateProduct handles the HTTP POST request for submitting an authenticated
// user's rating of a product.
func (pc *ProductController) RateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req RateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	product, err := pc.ratingService.RateProduct(c.Request.Context(), userID, id, *req.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRatingOutOfRange), errors.Is(err, service.ErrAlreadyRated):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"value": []string{err.Error()}}})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rate product"})
		}
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(product))
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID.String(),
		Name:      product.Name,
		Price:     product.Price,
		Rating:    product.Rating,
		UpdatedAt: product.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
