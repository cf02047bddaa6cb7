package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsCreated is a Prometheus counter for tracking the total number of products created.
	ProductsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_created_total",
		Help: "The total number of products created",
	})

	// ProductsUpdated is a Prometheus counter for tracking the total number of products updated.
	ProductsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_updated_total",
		Help: "The total number of products updated",
	})

	// ProductsDeleted is a Prometheus counter for tracking the total number of products deleted.
	ProductsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_deleted_total",
		Help: "The total number of products deleted",
	})

	// RatingsSubmitted is a Prometheus counter for tracking the total number of ratings submitted.
	RatingsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratings_submitted_total",
		Help: "The total number of product ratings submitted",
	})

	// UsersRegistered is a Prometheus counter for tracking the total number of registered users.
	UsersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_registered_total",
		Help: "The total number of users registered",
	})
)
