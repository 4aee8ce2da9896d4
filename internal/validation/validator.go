package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var (
	standalone     *validator.Validate
	standaloneOnce sync.Once
)

// Init configures the validator behind gin's binding: JSON tag names in
// errors and the "slug" rule used for group names.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

func get() *validator.Validate {
	standaloneOnce.Do(func() {
		standalone = validator.New()
		configure(standalone)
	})
	return standalone
}

// ValidateSlug reports whether name is a non-empty slug of at most maxLen characters.
func ValidateSlug(name string, maxLen int) error {
	return get().Var(name, fmt.Sprintf("required,max=%d,slug", maxLen))
}

// ToDetails converts binding/validation errors into a field -> message map
// suitable for APIError.Details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "slug":
		return "may only contain letters, numbers, hyphens and underscores"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}
