package validation

import (
	"fmt"
	"testing"
	"time"

	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taxNumberFor builds a valid tax number for the given birthdate.
func taxNumberFor(t *testing.T, birthdate string) string {
	t.Helper()
	born, err := time.Parse(types.BirthdateLayout, birthdate)
	require.NoError(t, err)

	for serial := 0; serial < 1000; serial++ {
		base := fmt.Sprintf("8%05d%03d", DaysSinceTaxEpoch(born), serial)
		sum := 0
		for i := 0; i < 9; i++ {
			sum += int(base[i]-'0') * (i + 1)
		}
		if rem := sum % 11; rem < 10 {
			return fmt.Sprintf("%s%d", base, rem)
		}
	}
	t.Fatal("no valid serial found")
	return ""
}

func validWorker(t *testing.T) types.Worker {
	w := types.NewWorker()
	w.Name = "Kiss Anna"
	w.Birthdate = "1987-04-23"
	w.NationalHealthID = "123456788"
	w.TaxNumber = taxNumberFor(t, w.Birthdate)
	w.PostalCode = "6720"
	return w
}

func rules(errs []*ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidateCleanWorker(t *testing.T) {
	assert.Empty(t, Validate(validWorker(t)))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(w *types.Worker)
		expected []string
	}{
		{
			name:     "missing name",
			mutate:   func(w *types.Worker) { w.Name = "  " },
			expected: []string{RuleRequired},
		},
		{
			name:     "invalid birthdate",
			mutate:   func(w *types.Worker) { w.Birthdate = "1987.04.23" },
			expected: []string{RuleDate},
		},
		{
			name:     "short TAJ",
			mutate:   func(w *types.Worker) { w.NationalHealthID = "12345678" },
			expected: []string{RuleHealthID},
		},
		{
			name:     "TAJ check digit",
			mutate:   func(w *types.Worker) { w.NationalHealthID = "123456789" },
			expected: []string{RuleHealthID},
		},
		{
			name:     "tax number prefix",
			mutate:   func(w *types.Worker) { w.TaxNumber = "7" + w.TaxNumber[1:] },
			expected: []string{RuleTaxNumber},
		},
		{
			name: "tax number check digit",
			mutate: func(w *types.Worker) {
				last := (w.TaxNumber[9]-'0'+1)%10 + '0'
				w.TaxNumber = w.TaxNumber[:9] + string(rune(last))
			},
			expected: []string{RuleTaxNumber},
		},
		{
			name: "tax number of another birthdate",
			mutate: func(w *types.Worker) {
				w.TaxNumber = taxNumberFor(t, "1990-01-01")
			},
			expected: []string{RuleTaxBirthdate},
		},
		{
			name:     "postal code",
			mutate:   func(w *types.Worker) { w.PostalCode = "H-6720" },
			expected: []string{RulePostalCode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWorker(t)
			tt.mutate(&w)
			assert.Equal(t, tt.expected, rules(Validate(w)))
		})
	}
}

func TestValidateSeverity(t *testing.T) {
	w := validWorker(t)
	w.Name = ""
	w.Birthdate = ""

	errs := Validate(w)
	require.Len(t, errs, 2)
	assert.Equal(t, SeverityError, errs[0].Severity)
	assert.True(t, errs[1].IsWarning())
}

func TestTreatWarningsAsErrors(t *testing.T) {
	w := validWorker(t)
	w.Birthdate = "unknown"

	v := NewValidator(ValidationOptions{TreatWarningsAsErrors: true})
	result := v.ValidateAll([]types.Worker{w})

	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 0, result.WarningCount)
}

func TestSkipChecksums(t *testing.T) {
	w := validWorker(t)
	w.NationalHealthID = "123456789"

	v := NewValidator(ValidationOptions{SkipChecksums: true})
	assert.Empty(t, v.ValidateWorker(w))
}

func TestValidateAll(t *testing.T) {
	good := validWorker(t)
	warn := validWorker(t)
	warn.PostalCode = ""
	bad := validWorker(t)
	bad.Name = ""

	result := NewValidator(DefaultValidationOptions()).ValidateAll([]types.Worker{good, warn, bad})

	assert.Equal(t, 3, result.WorkersValidated)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 1, result.WarningCount)
	assert.False(t, result.IsValid)
	assert.False(t, result.Clean())
}

func TestDaysSinceTaxEpoch(t *testing.T) {
	assert.Equal(t, 0, DaysSinceTaxEpoch(time.Date(1867, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 365, DaysSinceTaxEpoch(time.Date(1868, time.January, 1, 12, 0, 0, 0, time.UTC)))
}

func TestSanitize(t *testing.T) {
	w := types.Worker{
		Name:             "  Kiss Anna ",
		NationalHealthID: "123 456 788",
		TaxNumber:        "8123-456-786",
		PostalCode:       " 6720 ",
		City:             "Szeged\t",
	}

	got := Sanitize(w)

	assert.Equal(t, "Kiss Anna", got.Name)
	assert.Equal(t, "123456788", got.NationalHealthID)
	assert.Equal(t, "8123456786", got.TaxNumber)
	assert.Equal(t, "6720", got.PostalCode)
	assert.Equal(t, "Szeged", got.City)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	w := validWorker(t)
	w.PostalCode = "1"
	out := FormatErrors(Validate(w))

	assert.Contains(t, out, "Found 1 validation issue(s)")
	assert.Contains(t, out, "[WARNING] Kiss Anna, Field 'zip'")
}
