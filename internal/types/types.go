// =============================================================================
// dailyworker - Shared Types
// =============================================================================
//
// This package contains the worker record shared by every other package:
//   - store       (persistence)
//   - xmlwriter   (declaration rendering)
//   - validation  (record checks)
//   - roster      (spreadsheet import/export)
//
// ON-DISK FORMAT:
//   The JSON keys below are the keys written by earlier releases of the
//   application, so an existing data directory loads without conversion.
//
// =============================================================================

package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BirthdateLayout is the expected textual format of Worker.Birthdate.
const BirthdateLayout = "2006-01-02"

// =============================================================================
// WORKER
// =============================================================================

// Worker is a single employment-registration record.
type Worker struct {
	// ID is assigned once at creation and never changes.
	ID uuid.UUID `json:"id"`

	// Name is the full name of the worker.
	Name string `json:"name"`

	// NationalHealthID is the TAJ number.
	NationalHealthID string `json:"taj"`

	// TaxNumber is the personal tax identifier (adóazonosító jel).
	TaxNumber string `json:"taxnumber"`

	// MothersName is the mother's birth name.
	MothersName string `json:"mothersname"`

	// Birthdate is free text. It is expected in BirthdateLayout but this is
	// not enforced; see HasValidBirthdate.
	Birthdate string `json:"birthdate"`

	Birthplace string `json:"birthplace"`
	PostalCode string `json:"zip"`
	City       string `json:"city"`
	Street     string `json:"street"`

	// IsSelected marks the worker for inclusion in the next export.
	IsSelected bool `json:"is_selected"`
}

// NewWorker returns an empty, unselected worker with a fresh identifier.
func NewWorker() Worker {
	return Worker{ID: uuid.New()}
}

// WithSelected returns a copy of w with the selection flag set to selected.
func (w Worker) WithSelected(selected bool) Worker {
	w.IsSelected = selected
	return w
}

// HasValidBirthdate reports whether Birthdate parses as YYYY-MM-DD.
func (w Worker) HasValidBirthdate() bool {
	_, err := time.Parse(BirthdateLayout, strings.TrimSpace(w.Birthdate))
	return err == nil
}

// FileName is the name of the file backing this record: the identifier as
// 32 hex characters followed by ".json".
func (w Worker) FileName() string {
	return FileNameFor(w.ID)
}

// FileNameFor returns the backing file name for id.
func FileNameFor(id uuid.UUID) string {
	return SimpleID(id) + ".json"
}

// SimpleID renders id without dashes.
func SimpleID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// ShortID is the first eight hex characters of the identifier, used in
// listings.
func (w Worker) ShortID() string {
	return SimpleID(w.ID)[:8]
}
