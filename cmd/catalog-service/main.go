package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vkozak/product-catalog/internal/auth"
	"github.com/vkozak/product-catalog/internal/config"
	httpAPI "github.com/vkozak/product-catalog/internal/http"
	"github.com/vkozak/product-catalog/internal/http/controller"
	"github.com/vkozak/product-catalog/internal/logger"
	"github.com/vkozak/product-catalog/internal/metrics"
	reposql "github.com/vkozak/product-catalog/internal/repository/sql"
	"github.com/vkozak/product-catalog/internal/service"
	sqspkg "github.com/vkozak/product-catalog/internal/sqs"
)

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := reposql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	// Create repositories
	userRepository := reposql.NewUserRepository(db)
	productRepository := reposql.NewProductRepository(db)
	eventRepository := reposql.NewEventRepository(db)
	transactionalRepository := reposql.NewTransactionalRepository(db)

	// Initialize the SQS publisher for outbox delivery
	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("loading AWS config", err)
	sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	// Create services
	tokens := auth.NewManager(conf.JWTSecret)
	productService := service.NewProductService(productRepository, transactionalRepository)
	ratingService := service.NewRatingService(productRepository, transactionalRepository)
	authService := service.NewAuthService(userRepository, tokens)

	// Start outbox worker to publish pending events every 2 seconds
	outboxWorker := service.NewOutboxWorker(eventRepository, eventRepository, sqsPublisher, 2*time.Second)
	go outboxWorker.Start(ctx)

	// Start HTTP server
	ctr := controller.New(conf)
	productCtr := controller.NewProductController(productService, ratingService)
	authCtr := controller.NewAuthController(authService)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := gin.Default()
	httpServer = httpAPI.InitRouter(conf, httpServer, tokens, ctr, productCtr, authCtr)

	go func() {
		if err := httpServer.Run(":" + conf.HTTPServer.Port); err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	// Start metrics server
	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	outboxWorker.Stop()
	cancel()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
