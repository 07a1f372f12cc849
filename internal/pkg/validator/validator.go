package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/forumhq/forum-api/internal/domain/role"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Any role in the catalog, case-insensitive
	validate.RegisterValidation("forum_role", func(fl validator.FieldLevel) bool {
		_, err := role.Parse(fl.Field().String())
		return err == nil
	})

	// Rejects strings made only of whitespace
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required", "notblank":
			fields[field] = "This field is required"
		case "min":
			fields[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			fields[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			fields[field] = "Value must be at least " + err.Param()
		case "lte":
			fields[field] = "Value must be at most " + err.Param()
		case "oneof":
			fields[field] = "Must be one of: " + strings.ReplaceAll(err.Param(), " ", ", ")
		case "forum_role":
			fields[field] = "Invalid role. Must be one of: " + roleNames()
		default:
			fields[field] = "Invalid value"
		}
	}

	return fields
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

func roleNames() string {
	roles := role.All()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}
