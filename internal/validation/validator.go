// =============================================================================
// dailyworker - Validation Engine
// =============================================================================
//
// This module checks worker records before they are declared. Records are
// never rejected at write time; the checks here are advisory and are run on
// demand (the "worker check" command and the export pre-flight).
//
// CHECKS:
//   - Name is required                                  (error)
//   - Birthdate parses as YYYY-MM-DD                    (warning)
//   - TAJ number: 9 digits with a valid check digit     (warning)
//   - Tax number: 10 digits, leading 8, check digit     (warning)
//   - Tax number encodes the birthdate                  (warning)
//   - Postal code: 4 digits                             (warning)
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the worker, field, value and rule
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/mezeipetister/dailyworker/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequired       = "required"
	RuleDate           = "date"
	RuleHealthID       = "taj"
	RuleTaxNumber      = "tax_number"
	RuleTaxBirthdate   = "tax_number_birthdate"
	RulePostalCode     = "postal_code"
	taxNumberEpochYear = 1867
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single failed check.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string

	WorkerID   uuid.UUID
	WorkerName string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	name := e.WorkerName
	if name == "" {
		name = e.WorkerID.String()
	}
	return fmt.Sprintf("[%s] %s, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		name,
		e.Field,
		e.Message,
		e.Value,
	)
}

// IsWarning reports whether the error is a warning.
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// WorkersValidated is the number of workers checked.
	WorkersValidated int
}

// Clean reports whether there are neither errors nor warnings.
func (r *ValidationResult) Clean() bool {
	return r.ErrorCount == 0 && r.WarningCount == 0
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks worker records.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors treats warnings as fatal errors.
	// Default: false
	TreatWarningsAsErrors bool

	// SkipChecksums disables the TAJ and tax number check digit rules.
	// Default: false
	SkipChecksums bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// NewValidator creates a validator with the given options.
func NewValidator(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Validate checks a single worker with the default options.
func Validate(w types.Worker) []*ValidationError {
	return NewValidator(DefaultValidationOptions()).ValidateWorker(w)
}

// ValidateAll checks every worker.
func (v *Validator) ValidateAll(workers []types.Worker) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	for _, w := range workers {
		result.WorkersValidated++
		for _, err := range v.ValidateWorker(w) {
			result.Errors = append(result.Errors, err)
			if err.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
		}
	}

	return result
}

// ValidateWorker checks a single worker.
func (v *Validator) ValidateWorker(w types.Worker) []*ValidationError {
	var errs []*ValidationError
	add := func(severity, field, value, rule, message string) {
		if severity == SeverityWarning && v.options.TreatWarningsAsErrors {
			severity = SeverityError
		}
		errs = append(errs, &ValidationError{
			Severity:   severity,
			WorkerID:   w.ID,
			WorkerName: w.Name,
			Field:      field,
			Value:      value,
			Rule:       rule,
			Message:    message,
		})
	}

	if strings.TrimSpace(w.Name) == "" {
		add(SeverityError, "name", w.Name, RuleRequired, "Name is required")
	}

	if !w.HasValidBirthdate() {
		add(SeverityWarning, "birthdate", w.Birthdate, RuleDate,
			fmt.Sprintf("Value is not a valid date (expected %s)", types.BirthdateLayout))
	}

	if msg := validateHealthID(w.NationalHealthID, !v.options.SkipChecksums); msg != "" {
		add(SeverityWarning, "taj", w.NationalHealthID, RuleHealthID, msg)
	}

	taxMsg := validateTaxNumber(w.TaxNumber, !v.options.SkipChecksums)
	if taxMsg != "" {
		add(SeverityWarning, "taxnumber", w.TaxNumber, RuleTaxNumber, taxMsg)
	} else if w.HasValidBirthdate() {
		if msg := validateTaxNumberBirthdate(w.TaxNumber, w.Birthdate); msg != "" {
			add(SeverityWarning, "taxnumber", w.TaxNumber, RuleTaxBirthdate, msg)
		}
	}

	if !isDigits(w.PostalCode, 4) {
		add(SeverityWarning, "zip", w.PostalCode, RulePostalCode, "Postal code must be 4 digits")
	}

	return errs
}

// =============================================================================
// FIELD RULES
// =============================================================================

// validateHealthID checks a TAJ number: 9 digits, the last one being the
// check digit. Odd positions of the first eight digits are weighted by 3,
// even positions by 7; the weighted sum modulo 10 is the check digit.
func validateHealthID(value string, checksum bool) string {
	if !isDigits(value, 9) {
		return "TAJ number must be 9 digits"
	}
	if !checksum {
		return ""
	}

	sum := 0
	for i := 0; i < 8; i++ {
		weight := 3
		if i%2 == 1 {
			weight = 7
		}
		sum += digit(value[i]) * weight
	}
	if sum%10 != digit(value[8]) {
		return "TAJ number check digit does not match"
	}
	return ""
}

// validateTaxNumber checks a personal tax identifier: 10 digits starting with
// 8. The sum of the first nine digits, each multiplied by its position,
// modulo 11 is the check digit.
func validateTaxNumber(value string, checksum bool) string {
	if !isDigits(value, 10) {
		return "Tax number must be 10 digits"
	}
	if value[0] != '8' {
		return "Tax number must start with 8"
	}
	if !checksum {
		return ""
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digit(value[i]) * (i + 1)
	}
	if rem := sum % 11; rem == 10 || rem != digit(value[9]) {
		return "Tax number check digit does not match"
	}
	return ""
}

// validateTaxNumberBirthdate checks that digits 2-6 of the tax number are the
// number of days between 1867-01-01 and the birthdate.
func validateTaxNumberBirthdate(taxNumber, birthdate string) string {
	born, err := time.Parse(types.BirthdateLayout, strings.TrimSpace(birthdate))
	if err != nil {
		return ""
	}

	encoded, err := strconv.Atoi(taxNumber[1:6])
	if err != nil {
		return ""
	}

	if encoded != DaysSinceTaxEpoch(born) {
		return "Tax number does not match the birthdate"
	}
	return ""
}

// DaysSinceTaxEpoch returns the number of days between 1867-01-01 and date,
// the value encoded in digits 2-6 of a personal tax identifier.
func DaysSinceTaxEpoch(date time.Time) int {
	epoch := time.Date(taxNumberEpochYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(epoch).Hours() / 24)
}

// =============================================================================
// SANITIZING
// =============================================================================

// Sanitize trims every text field and strips everything but letters and
// digits from the identifier fields (TAJ, tax number, postal code), so
// "123 456 788" and "123-456-788" are stored as "123456788".
func Sanitize(w types.Worker) types.Worker {
	w.Name = strings.TrimSpace(w.Name)
	w.MothersName = strings.TrimSpace(w.MothersName)
	w.Birthdate = strings.TrimSpace(w.Birthdate)
	w.Birthplace = strings.TrimSpace(w.Birthplace)
	w.City = strings.TrimSpace(w.City)
	w.Street = strings.TrimSpace(w.Street)
	w.NationalHealthID = alphanumeric(w.NationalHealthID)
	w.TaxNumber = alphanumeric(w.TaxNumber)
	w.PostalCode = alphanumeric(w.PostalCode)
	return w
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display, one per line.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d validation issue(s):\n", len(errors)))
	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func isDigits(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digit(b byte) int {
	return int(b - '0')
}

func alphanumeric(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
}
