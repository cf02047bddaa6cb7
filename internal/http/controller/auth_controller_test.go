package controller_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vkozak/product-catalog/internal/auth"
	"github.com/vkozak/product-catalog/internal/http/controller"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/service"
)

func newAuthRouter(mockUsers *MockUserStore, tokens *auth.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)

	authService := service.NewAuthService(mockUsers, tokens)
	authCtr := controller.NewAuthController(authService)

	router := gin.New()
	router.POST("/register", authCtr.Register)
	router.POST("/login", authCtr.Login)
	return router
}

func TestRegister_Created(t *testing.T) {
	mockUsers := new(MockUserStore)

	created := &model.User{Username: "alice"}
	created.InitMeta()
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Return(created, nil)

	router := newAuthRouter(mockUsers, auth.NewManager("test-secret"))

	w := performJSON(t, router, http.MethodPost, "/register", gin.H{"username": "alice", "password": "s3cret"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.Username)
}

func TestRegister_MissingFields(t *testing.T) {
	router := newAuthRouter(new(MockUserStore), auth.NewManager("test-secret"))

	w := performJSON(t, router, http.MethodPost, "/register", gin.H{"username": "alice"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors["password"], "this field is required")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Return(nil, &repository.UniqueConstraintError{Constraint: "users_username_key"})

	router := newAuthRouter(mockUsers, auth.NewManager("test-secret"))

	w := performJSON(t, router, http.MethodPost, "/register", gin.H{"username": "alice", "password": "s3cret"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"username already taken"}, resp.Errors["username"])
}

func TestLogin_ReturnsValidToken(t *testing.T) {
	mockUsers := new(MockUserStore)

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	user := &model.User{Username: "alice", Password: hash}
	user.InitMeta()
	mockUsers.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

	tokens := auth.NewManager("test-secret")
	router := newAuthRouter(mockUsers, tokens)

	w := performJSON(t, router, http.MethodPost, "/login", gin.H{"username": "alice", "password": "s3cret"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockUsers := new(MockUserStore)

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	mockUsers.On("FindByUsername", mock.Anything, "alice").
		Return(&model.User{Username: "alice", Password: hash}, nil)

	router := newAuthRouter(mockUsers, auth.NewManager("test-secret"))

	w := performJSON(t, router, http.MethodPost, "/login", gin.H{"username": "alice", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid username or password")
}

func TestLogin_UnknownUser(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("FindByUsername", mock.Anything, "nobody").Return(nil, repository.ErrNotFound)

	router := newAuthRouter(mockUsers, auth.NewManager("test-secret"))

	w := performJSON(t, router, http.MethodPost, "/login", gin.H{"username": "nobody", "password": "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid username or password")
}
