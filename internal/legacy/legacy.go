// Package legacy reads the single-file database written by old releases
// (~/.dailyworkerdb/workersdb) and moves its workers into a store.
//
// The old file holds every worker and employer in one JSON document with
// numeric ids and a numeric postal code. Employers have no counterpart in
// the per-file store; they are counted and reported only.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mezeipetister/dailyworker/internal/store"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/sirupsen/logrus"
)

// Data is the legacy database document.
type Data struct {
	Employers       []Employer `json:"employers"`
	EmployerCounter uint32     `json:"employer_counter"`
	WorkerCounter   uint32     `json:"worker_counter"`
	Workers         []Worker   `json:"workers"`
}

// Employer is a legacy employer record.
type Employer struct {
	ID        uint32 `json:"id"`
	Name      string `json:"name"`
	TaxNumber string `json:"taxnumber"`
}

// Worker is a legacy worker record.
type Worker struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	Taj         string `json:"taj"`
	TaxNumber   string `json:"taxnumber"`
	MothersName string `json:"mothersname"`
	Birthdate   string `json:"birthdate"`
	Birthplace  string `json:"birthplace"`
	Zip         uint32 `json:"zip"`
	City        string `json:"city"`
	Street      string `json:"street"`
	IsSelected  bool   `json:"is_selected"`
}

// Load reads and decodes the legacy database at path.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy database: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode legacy database %s: %w", path, err)
	}
	return &data, nil
}

// Workers converts the legacy workers. Each gets a new id; a zero postal code
// becomes empty.
func (d *Data) Workers() []types.Worker {
	out := make([]types.Worker, 0, len(d.Workers))
	for _, old := range d.Workers {
		w := types.NewWorker()
		w.Name = old.Name
		w.NationalHealthID = old.Taj
		w.TaxNumber = old.TaxNumber
		w.MothersName = old.MothersName
		w.Birthdate = old.Birthdate
		w.Birthplace = old.Birthplace
		if old.Zip != 0 {
			w.PostalCode = strconv.FormatUint(uint64(old.Zip), 10)
		}
		w.City = old.City
		w.Street = old.Street
		w.IsSelected = old.IsSelected
		out = append(out, w)
	}
	return out
}

// Migrate adds every worker of the legacy database at path to s and returns
// the number migrated. Workers whose name and TAJ number already appear in s
// are skipped, so running it again after a partial failure is safe. It stops
// at the first worker that cannot be saved.
func Migrate(path string, s *store.Store, log logrus.FieldLogger) (int, error) {
	data, err := Load(path)
	if err != nil {
		return 0, err
	}

	log = log.WithField("file", path)
	if n := len(data.Employers); n > 0 {
		log.WithField("employers", n).Warn("legacy employers are not migrated")
	}

	present := make(map[string]bool, s.Len())
	for _, w := range s.All() {
		present[migrationKey(w)] = true
	}

	migrated, skipped := 0, 0
	for _, w := range data.Workers() {
		key := migrationKey(w)
		if present[key] {
			skipped++
			log.WithField("worker", w.Name).Debug("worker already in the store")
			continue
		}
		if _, err := s.Add(w); err != nil {
			return migrated, fmt.Errorf("failed to migrate %q: %w", w.Name, err)
		}
		present[key] = true
		migrated++
		log.WithField("worker", w.Name).Debug("worker migrated")
	}

	log.WithFields(logrus.Fields{
		"workers": migrated,
		"skipped": skipped,
	}).Info("legacy database migrated")
	return migrated, nil
}

// migrationKey identifies a worker across the legacy and the current store,
// where ids differ.
func migrationKey(w types.Worker) string {
	return strings.ToLower(strings.TrimSpace(w.Name)) + "\x00" + w.NationalHealthID
}
