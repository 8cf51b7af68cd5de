package handlers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// fieldMessages holds the client-facing message per "field.tag".
var fieldMessages = map[string]string{
	"nombre.notblank":      "El nombre es obligatorio",
	"nombre.max":           "El nombre no puede superar los 255 caracteres",
	"precio.required":      "El precio es obligatorio",
	"precio.decimal_min":   "El precio debe ser mayor a 0",
	"precio.decimal_max":   "El precio excede el máximo permitido",
	"precio.decimal_scale": "El precio admite como máximo 2 decimales",
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("decimal_min", decimalMin)
	_ = v.RegisterValidation("decimal_max", decimalMax)
	_ = v.RegisterValidation("decimal_scale", decimalScale)

	return v
}

// decimalMin checks that a decimal field is at least the tag parameter.
func decimalMin(fl validator.FieldLevel) bool {
	min, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return value.GreaterThanOrEqual(min)
}

// decimalMax checks that a decimal field is at most the tag parameter.
func decimalMax(fl validator.FieldLevel) bool {
	max, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return value.LessThanOrEqual(max)
}

// decimalScale checks that a decimal field has at most param fractional
// digits. Trailing zeros do not count, so 12.500 passes a scale of 2.
func decimalScale(fl validator.FieldLevel) bool {
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return value.Equal(value.Round(int32(places)))
}

// validationMessages turns validator errors into one message per failing field.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("El campo %s no es válido", fe.Field()))
	}
	return msgs
}
