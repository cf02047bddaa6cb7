package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vkozak/product-catalog/internal/http/controller"
	"github.com/vkozak/product-catalog/internal/http/middleware"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/service"
)

// newProductRouter wires a product controller over mocked persistence with the
// same routes the application registers. The rate route injects a fixed user
// ID the way the auth middleware does after token validation.
func newProductRouter(mockRepo *MockRepository, mockTxStore *MockTxStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	productService := service.NewProductService(mockRepo, mockTxStore)
	ratingService := service.NewRatingService(mockRepo, mockTxStore)
	productCtr := controller.NewProductController(productService, ratingService)

	router := gin.New()
	products := router.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.POST("", productCtr.CreateProduct)
		products.GET("/:id", productCtr.GetProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
		products.POST("/:id/rate-product", func(c *gin.Context) {
			if userID != uuid.Nil {
				middleware.SetUserID(c, userID)
			}
			c.Next()
		}, productCtr.RateProduct)
	}
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateProduct_Created(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	product := &model.Product{Name: "Widget", Price: 12.5}
	product.InitMeta()

	mockTxStore.On("CreateProductWithEvent", mock.Anything, mock.AnythingOfType("*model.Product"), mock.AnythingOfType("*model.Event")).
		Return(product, nil)

	router := newProductRouter(mockRepo, mockTxStore, uuid.Nil)

	w := performJSON(t, router, http.MethodPost, "/products", gin.H{"name": "Widget", "price": 12.5})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp controller.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, product.ID.String(), resp.ID)
	assert.Equal(t, "Widget", resp.Name)
	assert.Equal(t, 12.5, resp.Price)
	// A new product always starts unrated.
	assert.Equal(t, 0.0, resp.Rating)
	assert.NotEmpty(t, resp.UpdatedAt)

	mockTxStore.AssertExpectations(t)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      gin.H
		wantField string
		wantMsg   string
	}{
		{"missing name", gin.H{"price": 12.5}, "name", "this field is required"},
		{"missing price", gin.H{"name": "Widget"}, "price", "this field is required"},
		{"zero price", gin.H{"name": "Widget", "price": 0}, "price", "this field is required"},
		{"negative price", gin.H{"name": "Widget", "price": -5}, "price", "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.Nil)

			w := performJSON(t, router, http.MethodPost, "/products", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Errors map[string][]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp.Errors, tt.wantField)
			assert.Contains(t, resp.Errors[tt.wantField], tt.wantMsg)
		})
	}
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	mockTxStore.On("CreateProductWithEvent", mock.Anything, mock.AnythingOfType("*model.Product"), mock.AnythingOfType("*model.Event")).
		Return(nil, &repository.UniqueConstraintError{Constraint: "products_name_key"})

	router := newProductRouter(mockRepo, mockTxStore, uuid.Nil)

	w := performJSON(t, router, http.MethodPost, "/products", gin.H{"name": "Widget", "price": 12.5})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "product with this name already exists")
}

func TestGetProduct_OK(t *testing.T) {
	mockRepo := new(MockRepository)

	product := &model.Product{Name: "Widget", Price: 12.5, Rating: 4.2}
	product.InitMeta()

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products/"+product.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp controller.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, product.ID.String(), resp.ID)
	assert.Equal(t, 4.2, resp.Rating)
}

func TestGetProduct_InvalidID(t *testing.T) {
	router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid product ID")
}

func TestGetProduct_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)

	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "product not found")
}

func TestUpdateProduct_OK(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	product := &model.Product{Name: "Widget", Price: 12.5, Rating: 4.2}
	product.InitMeta()

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	mockTxStore.On("UpdateProductWithEvent", mock.Anything, mock.AnythingOfType("*model.Product"), mock.AnythingOfType("*model.Event")).
		Return(product, nil)

	router := newProductRouter(mockRepo, mockTxStore, uuid.Nil)

	w := performJSON(t, router, http.MethodPut, "/products/"+product.ID.String(), gin.H{"name": "Gadget", "price": 20.0})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp controller.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Gadget", resp.Name)
	assert.Equal(t, 20.0, resp.Price)
	// Replacing name and price never resets the stored average.
	assert.Equal(t, 4.2, resp.Rating)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)

	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodPut, "/products/"+id.String(), gin.H{"name": "Gadget", "price": 20.0})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProduct_OK(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	product := &model.Product{Name: "Widget", Price: 12.5}
	product.InitMeta()

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	mockTxStore.On("DeleteProductWithEvent", mock.Anything, product, mock.AnythingOfType("*model.Event")).
		Return(nil)

	router := newProductRouter(mockRepo, mockTxStore, uuid.Nil)

	w := performJSON(t, router, http.MethodDelete, "/products/"+product.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "product deleted successfully")
}

func TestDeleteProduct_NotFound(t *testing.T) {
	mockRepo := new(MockRepository)

	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodDelete, "/products/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProducts_OK(t *testing.T) {
	mockRepo := new(MockRepository)

	first := &model.Product{Name: "Gadget", Price: 20}
	first.InitMeta()
	second := &model.Product{Name: "Widget", Price: 12.5}
	second.InitMeta()

	mockRepo.On("List", mock.Anything, mock.AnythingOfType("repository.Query")).
		Return([]repository.Resource{first, second}, nil)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products?per_page=10&page=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp controller.ListProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Gadget", resp.Products[0].Name)
	assert.Equal(t, "Widget", resp.Products[1].Name)
}

func TestListProducts_EmptyKeepsProductsKey(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("List", mock.Anything, mock.AnythingOfType("repository.Query")).
		Return([]repository.Resource{}, nil)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products": []}`, w.Body.String())
}

func TestListProducts_UnknownOrderByRejected(t *testing.T) {
	router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products?order_by=sneaky", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported order_by field")
}

func TestListProducts_SortAndSearchReachTheQuery(t *testing.T) {
	mockRepo := new(MockRepository)

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.Query) bool {
		return q.OrderBy == repository.RatingField && q.Descending &&
			q.Search == "widget" && q.Limit == 5 && q.Offset == 5
	})).Return([]repository.Resource{}, nil)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodGet, "/products?order_by=rating&order=dsc&search=widget&per_page=5&page=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestRateProduct_Created(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	userID := uuid.New()
	product := &model.Product{Name: "Widget", Price: 12.5, Rating: 3.0}
	product.InitMeta()
	rated := &model.Product{ID: product.ID, Name: "Widget", Price: 12.5, Rating: 3.5}

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	mockTxStore.On("RateProductWithEvent", mock.Anything, mock.MatchedBy(func(r *model.ProductRating) bool {
		return r.UserID.Valid && r.UserID.UUID == userID && r.ProductID == product.ID && r.Value == 4
	}), mock.AnythingOfType("*model.Event")).Return(rated, nil)

	router := newProductRouter(mockRepo, mockTxStore, userID)

	w := performJSON(t, router, http.MethodPost, "/products/"+product.ID.String()+"/rate-product", gin.H{"value": 4})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp controller.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3.5, resp.Rating)

	mockTxStore.AssertExpectations(t)
}

func TestRateProduct_ZeroValueAccepted(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	userID := uuid.New()
	product := &model.Product{Name: "Widget", Price: 12.5}
	product.InitMeta()

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	mockTxStore.On("RateProductWithEvent", mock.Anything, mock.MatchedBy(func(r *model.ProductRating) bool {
		return r.Value == 0
	}), mock.AnythingOfType("*model.Event")).Return(product, nil)

	router := newProductRouter(mockRepo, mockTxStore, userID)

	w := performJSON(t, router, http.MethodPost, "/products/"+product.ID.String()+"/rate-product", gin.H{"value": 0})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockTxStore.AssertExpectations(t)
}

func TestRateProduct_MissingValue(t *testing.T) {
	router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.New())

	w := performJSON(t, router, http.MethodPost, "/products/"+uuid.NewString()+"/rate-product", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "this field is required")
}

func TestRateProduct_ValueOutOfRange(t *testing.T) {
	for _, value := range []int{-1, 6} {
		router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.New())

		w := performJSON(t, router, http.MethodPost, "/products/"+uuid.NewString()+"/rate-product", gin.H{"value": value})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Errors map[string][]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"must be between 0 and 5"}, resp.Errors["value"])
	}
}

func TestRateProduct_AlreadyRated(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTxStore := new(MockTxStore)

	product := &model.Product{Name: "Widget", Price: 12.5}
	product.InitMeta()

	mockRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	mockTxStore.On("RateProductWithEvent", mock.Anything, mock.AnythingOfType("*model.ProductRating"), mock.AnythingOfType("*model.Event")).
		Return(nil, &repository.UniqueConstraintError{Constraint: "product_ratings_user_product_key"})

	router := newProductRouter(mockRepo, mockTxStore, uuid.New())

	w := performJSON(t, router, http.MethodPost, "/products/"+product.ID.String()+"/rate-product", gin.H{"value": 4})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"user already rated this product"}, resp.Errors["value"])
}

func TestRateProduct_ProductNotFound(t *testing.T) {
	mockRepo := new(MockRepository)

	id := uuid.New()
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	router := newProductRouter(mockRepo, new(MockTxStore), uuid.New())

	w := performJSON(t, router, http.MethodPost, "/products/"+id.String()+"/rate-product", gin.H{"value": 4})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "product not found")
}

func TestRateProduct_Unauthenticated(t *testing.T) {
	// uuid.Nil keeps the stub middleware from injecting a user ID.
	router := newProductRouter(new(MockRepository), new(MockTxStore), uuid.Nil)

	w := performJSON(t, router, http.MethodPost, "/products/"+uuid.NewString()+"/rate-product", gin.H{"value": 4})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}
