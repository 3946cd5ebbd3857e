// Package analysis runs the filter, aggregation and projection pipeline over
// a decoded table with an inferred column mapping.
package analysis

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/schema"
)

// Criteria holds the optional row filters. Pointer fields distinguish "not
// given" from zero values, and unset filters echo back as null in the
// response.
type Criteria struct {
	CardCode  *string  `json:"cardcode"`
	MinTotal  *float64 `json:"min_total" validate:"omitempty,gte=0"`
	MaxTotal  *float64 `json:"max_total" validate:"omitempty,gte=0"`
	StartDate *string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks boundary constraints on the criteria. Violations map to an
// INVALID_FILTER error naming the offending field.
func (c *Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			fe := verrs[0]
			return apierrors.InvalidFilterError(jsonFieldName(fe.Field()), validationMessage(fe))
		}
		return apierrors.InvalidFilterError("", err.Error())
	}

	if c.MinTotal != nil && c.MaxTotal != nil && *c.MaxTotal < *c.MinTotal {
		return apierrors.InvalidFilterError("max_total", "max_total must be greater than or equal to min_total")
	}

	if c.StartDate != nil && c.EndDate != nil {
		start, okS := schema.ParseDateStrict(*c.StartDate)
		end, okE := schema.ParseDateStrict(*c.EndDate)
		if okS && okE && end.Before(start) {
			return apierrors.InvalidFilterError("end_date", "end_date must not be before start_date")
		}
	}

	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		*target = verrs
		return true
	}
	return false
}

func jsonFieldName(structField string) string {
	switch structField {
	case "CardCode":
		return "cardcode"
	case "MinTotal":
		return "min_total"
	case "MaxTotal":
		return "max_total"
	case "StartDate":
		return "start_date"
	case "EndDate":
		return "end_date"
	}
	return structField
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", jsonFieldName(fe.Field()), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", jsonFieldName(fe.Field()))
	}
	return fmt.Sprintf("%s is invalid", jsonFieldName(fe.Field()))
}
