package trade

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that reports fields by their json name
// and compares decimal amounts numerically. Line prices with more than
// trade.PriceScale decimals fail with the "cents" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		line, ok := sl.Current().Interface().(trade.LineInput)
		if ok && !line.PriceFitsScale() {
			sl.ReportError(line.Price, "price", "Price", "cents", "")
		}
	}, trade.LineInput{})
	return v
}

// invalidInput wraps validator failures so that both shared.ErrInvalidInput
// and validator.ValidationErrors can be matched by callers.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrInvalidInput, strings.Join(fields, ", "), verrs)
}
