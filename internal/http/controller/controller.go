package controller

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/vkozak/product-catalog/internal/config"
)

// Controller handles general HTTP requests.
type Controller struct {
	config *config.Config
}

// New creates a new Controller with the given configuration.
func New(config *config.Config) *Controller {
	return &Controller{
		config: config,
	}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// fieldErrors converts binding validation failures into a field-to-messages
// map. Returns nil when the error is not a validation error, in which case
// callers fall back to a plain error body.
func fieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := map[string][]string{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "this field is required"
		case "gt":
			msg = "must be greater than " + fe.Param()
		default:
			msg = "invalid value"
		}
		out[field] = append(out[field], msg)
	}
	return out
}

// bindingErrorResponse writes a 400 with field errors when possible,
// otherwise with the raw binding error.
func bindingErrorResponse(c *gin.Context, err error) {
	if fields := fieldErrors(err); fields != nil {
		c.JSON(400, gin.H{"errors": fields})
		return
	}
	c.JSON(400, gin.H{"error": err.Error()})
}
