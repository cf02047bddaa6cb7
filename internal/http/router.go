package http

import (
	"github.com/gin-gonic/gin"
	"github.com/vkozak/product-catalog/internal/auth"
	"github.com/vkozak/product-catalog/internal/config"
	"github.com/vkozak/product-catalog/internal/http/controller"
	"github.com/vkozak/product-catalog/internal/http/middleware"
)

// InitRouter registers middleware and all API routes on the given engine.
func InitRouter(_ *config.Config, server *gin.Engine, tokens *auth.Manager,
	ctr *controller.Controller, productCtr *controller.ProductController, authCtr *controller.AuthController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.CORS())
	server.Use(middleware.Logger())

	server.GET("/ping", ctr.Ping)

	// Account endpoints
	server.POST("/register", authCtr.Register)
	server.POST("/login", authCtr.Login)

	// Product endpoints
	products := server.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.POST("", productCtr.CreateProduct)
		products.GET("/:id", productCtr.GetProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)
		products.POST("/:id/rate-product", middleware.RequireAuth(tokens), productCtr.RateProduct)
	}

	return server
}
