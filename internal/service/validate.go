package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/docmanager/internal/model"
)

// bcrypt refuses inputs longer than 72 bytes.
const maxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their JSON names so clients can match them.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("docstatus", func(fl validator.FieldLevel) bool {
		return model.DocumentStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("ingestion", func(fl validator.FieldLevel) bool {
		return model.IngestionStatus(fl.Field().String()).Valid()
	})
	return v
}

// Struct validates s against its `validate` tags and converts failures into
// a *ValidationError whose fields keep the struct's declaration order.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internal("validate", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		fieldErr := FieldError{Field: fe.Field(), Message: messageFor(fe)}
		// Never echo secrets back.
		if fe.Field() != "password" {
			fieldErr.Value = echoValue(fe.Value())
		}
		out.Fields = append(out.Fields, fieldErr)
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "bcryptlen":
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	case "role":
		return oneOf(model.Roles)
	case "docstatus":
		return oneOf(model.DocumentStatuses)
	case "ingestion":
		return oneOf(model.IngestionStatuses)
	}
	return "is invalid"
}

func oneOf[T ~string](set []T) string {
	names := make([]string, len(set))
	for i, v := range set {
		names[i] = string(v)
	}
	return "must be one of: " + strings.Join(names, ", ")
}

// echoValue reports the rejected value back to the client.  Zero values
// are dropped and named string types are flattened to plain strings.
func echoValue(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.IsZero() {
		return nil
	}
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}
