package httpx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-storefront/internal/orders"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return orders.Status(fl.Field().String()).Known()
	})
	return v
}

// validationMessage flattens validator errors into one line,
// e.g. "status must be one of: ...".
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe)
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "order_status":
			known := make([]string, 0, len(orders.KnownStatuses))
			for _, s := range orders.KnownStatuses {
				known = append(known, string(s))
			}
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, strings.Join(known, ", ")))
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// fieldName uses the JSON path ("customer.address.zip") minus the root
// struct name.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
