// Package handlers binds HTTP requests to the shop services.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopkart_back_end/internal/apperr"
	"shopkart_back_end/internal/middleware"
	"shopkart_back_end/internal/models"
	"shopkart_back_end/internal/services"
)

// requestTimeout bounds the work of a single handler.
const requestTimeout = 30 * time.Second

type response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// bind decodes the request into dst and turns validation failures into
// field errors.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, len(verrs))
		for i, fe := range verrs {
			fields[i] = apperr.FieldError{Field: jsonName(fe.Field()), Message: fieldMessage(fe)}
		}
		e := apperr.Validation("Received data is not valid", fields...)
		e.Status = http.StatusUnprocessableEntity
		return e
	}
	return apperr.Validation("Invalid request body: " + err.Error())
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", jsonName(fe.Field()))
	case "email":
		return "Email is invalid"
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", jsonName(fe.Field()), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", jsonName(fe.Field()), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", jsonName(fe.Field()), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", jsonName(fe.Field()), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", jsonName(fe.Field()), jsonName(fe.Param()))
	}
	return fmt.Sprintf("%s is invalid", jsonName(fe.Field()))
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	return parseHexField(name, c.Param(name))
}

func parseHexField(name, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.ObjectID{}, apperr.Validation(
			"Received data is not valid",
			apperr.FieldError{Field: name, Message: "Invalid " + name},
		)
	}
	return id, nil
}

// pageQuery reads page and limit, falling back to the defaults.
func pageQuery(c *gin.Context) models.PageQuery {
	page, _ := strconv.ParseInt(c.Query("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	return models.PageQuery{Page: page, Limit: limit}.Normalize()
}

func currentUserID(c *gin.Context) primitive.ObjectID {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID
	}
	return primitive.NilObjectID
}

func viewer(c *gin.Context) services.Viewer {
	u := middleware.CurrentUser(c)
	if u == nil {
		return services.Viewer{}
	}
	return services.Viewer{ID: u.ID, Admin: u.IsAdmin()}
}
