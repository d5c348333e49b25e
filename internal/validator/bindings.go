package validator

import (
	"errors"
	"strings"
	"sync"

	"github.com/civicreport/api/internal/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterBindings adds the domain enum checks to gin's binding validator so
// request structs can use `binding:"priority"`, `binding:"status"` and
// `binding:"role"`.
func RegisterBindings() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return model.IsValidPriority(fl.Field().String())
		})
		_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
			return model.IsValidStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return model.IsValidRole(fl.Field().String())
		})
	})
}

// FromBinding converts a gin binding failure into a ValidationError naming
// the first field that failed. Errors that carry no field, such as malformed
// JSON, keep only the fallback message.
func FromBinding(err error, fallback string) *ValidationError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return New(lowerFirst(errs[0].Field()), fallback)
	}
	return New("", fallback)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
