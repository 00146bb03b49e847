package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator lets numeric tags (gte, gt, lte) apply to decimal amounts and
// reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("expense_category", func(fl validator.FieldLevel) bool {
		return IsExpenseCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("income_source", func(fl validator.FieldLevel) bool {
		return IsIncomeSource(fl.Field().String())
	})
	_ = v.RegisterValidation("investment_type", func(fl validator.FieldLevel) bool {
		return IsInvestmentType(fl.Field().String())
	})
	return v
}

// Validate runs struct tag validation on any model.
func Validate(v interface{}) error {
	return validate.Struct(v)
}
