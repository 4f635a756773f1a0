package domain

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

const (
	maxStringLength = 500
	maxReasonLength = 1000
	minQuantityKG   = 0.1
	maxQuantityKG   = 1_000_000
	minValueUSD     = 1.0
	maxValueUSD     = 100_000_000
)

var exportIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ValidateExportID(exportID string) error {
	if exportID == "" {
		return fmt.Errorf("%w: export id is required", ErrValidationFailed)
	}
	if utf8.RuneCountInString(exportID) > maxStringLength {
		return fmt.Errorf("%w: export id exceeds %d characters", ErrValidationFailed, maxStringLength)
	}
	if !exportIDPattern.MatchString(exportID) {
		return fmt.Errorf("%w: export id may contain only alphanumerics, hyphens and underscores", ErrValidationFailed)
	}
	return nil
}

func validateText(field, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrValidationFailed, field)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrValidationFailed, field, max)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %s contains control characters", ErrValidationFailed, field)
		}
	}
	return nil
}

func validateQuantity(quantity float64) error {
	if quantity < minQuantityKG {
		return fmt.Errorf("%w: quantity must be at least %.1f kg", ErrValidationFailed, minQuantityKG)
	}
	if quantity > maxQuantityKG {
		return fmt.Errorf("%w: quantity cannot exceed %d kg", ErrValidationFailed, int(maxQuantityKG))
	}
	return nil
}

func validateEstimatedValue(value float64) error {
	if value < minValueUSD {
		return fmt.Errorf("%w: estimated value must be at least %.0f USD", ErrValidationFailed, minValueUSD)
	}
	if value > maxValueUSD {
		return fmt.Errorf("%w: estimated value cannot exceed %d USD", ErrValidationFailed, int(maxValueUSD))
	}
	return nil
}

func validateReason(reason string) error {
	return validateText("reason", reason, maxReasonLength)
}

// ValidateNewExport checks the business fields of a record being created.
func ValidateNewExport(r ExportRecord) error {
	if err := ValidateExportID(r.ExportID); err != nil {
		return err
	}
	if err := validateText("coffee type", r.CoffeeType, 100); err != nil {
		return err
	}
	if err := validateText("destination", r.Destination, 100); err != nil {
		return err
	}
	if err := validateQuantity(r.Quantity); err != nil {
		return err
	}
	return validateEstimatedValue(r.EstimatedValue)
}
