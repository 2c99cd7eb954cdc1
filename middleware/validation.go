package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joshu-sajeev/researchindex/common"
)

var validate = validator.New()

func Bind[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return false
	}

	if err := validate.Struct(dest); err != nil {
		c.Error(common.APIError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  FormatValidationErrors(err),
		})
		return false
	}

	return true
}

// FormatValidationErrors maps each failing field to the rule it broke.
func FormatValidationErrors(err error) map[string]any {
	fields := map[string]any{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return fields
	}

	for _, e := range verrs {
		if e.Param() != "" {
			fields[e.Field()] = "failed " + e.Tag() + "=" + e.Param()
			continue
		}
		fields[e.Field()] = "failed " + e.Tag()
	}
	return fields
}
