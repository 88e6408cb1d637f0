package tax

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned by Validate when the input is outside the calculator's intended domain.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "tax: invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "tax: invalid input: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			d, ok := field.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			return comparableFloat(d)
		}, decimal.Decimal{})
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// comparableFloat converts d for the numeric range tags. When float64 rounding
// lands on a different value, the result moves one ulp toward d so that a
// decimal just beyond a bound such as 100 still compares beyond it.
func comparableFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	switch d.Cmp(decimal.NewFromFloat(f)) {
	case 1:
		return math.Nextafter(f, math.Inf(1))
	case -1:
		return math.Nextafter(f, math.Inf(-1))
	}
	return f
}

type checkedInput struct {
	Subtotal decimal.Decimal `json:"subtotal" validate:"gte=0"`
	Discount Discount        `json:"discount"`
	Config   Effective       `json:"config"`
}

// Validate rejects negative amounts, percentages outside [0,100], flat discounts
// above the subtotal and unnamed custom components. Calculate itself never checks these.
func Validate(in Input) error {
	var fields []FieldError
	err := engine().Struct(checkedInput{Subtotal: in.Subtotal, Discount: in.Discount, Config: in.Config})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   trimNamespace(fe.Namespace()),
				Rule:    fe.Tag(),
				Message: describe(fe),
			})
		}
	} else if err != nil {
		return fmt.Errorf("validate tax input: %w", err)
	}

	if in.Discount.Type == DiscountPercentage && in.Discount.Amount.GreaterThan(hundred) {
		fields = append(fields, FieldError{Field: "discount.amount", Rule: "lte", Message: "must be at most 100"})
	}
	if in.Discount.Type != DiscountPercentage && !in.Subtotal.IsNegative() && in.Discount.Amount.GreaterThan(in.Subtotal) {
		fields = append(fields, FieldError{Field: "discount.amount", Rule: "ltefield", Message: "must not exceed subtotal"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateConfiguration checks a store configuration before it is persisted.
func ValidateConfiguration(cfg Configuration) error {
	return Validate(Input{Config: Resolve(cfg, Override{})})
}

func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
