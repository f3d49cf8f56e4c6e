package models

import "fmt"

// ValidationError reports a field value rejected before it reaches storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePrice accepts zero and any positive price.
func ValidatePrice(price *int) error {
	if price == nil || *price < 0 {
		return &ValidationError{Field: "price", Message: "Price must be a positive number"}
	}
	return nil
}
