// =============================================================================
// dailyworker - Worker Store
// =============================================================================
//
// This module owns the full set of worker records and keeps them in sync with
// their backing files. Every mutation is persisted synchronously before the
// in-memory list changes.
//
// STORAGE LAYOUT:
//   <dir>/
//     0b7c1f2e3d4a4b5c8d9e0f1a2b3c4d5e.json   <!-- one file per worker -->
//     5a1d...json
//
//   The file name is the worker identifier without dashes. Files are replaced
//   atomically (temp file + rename). Nothing is locked: another process
//   editing the directory at the same time is not detected.
//
// LOADING:
//   Open reads every *.json file and fails on the first one that cannot be
//   read or decoded, or whose name is not the one of the id it holds. There
//   is no partial load, and no id can be loaded twice. Records are sorted by name,
//   case-insensitively.
//
// =============================================================================

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mezeipetister/dailyworker/internal/logging"
	"github.com/mezeipetister/dailyworker/internal/types"
	"github.com/mezeipetister/dailyworker/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrAmbiguous is returned by Resolve when a reference matches more than one
// worker.
var ErrAmbiguous = errors.New("reference matches more than one worker")

// =============================================================================
// STORE
// =============================================================================

// Store is the durable collection of workers. It is not safe for concurrent
// use; the owning application serializes access.
type Store struct {
	dir     string
	workers []types.Worker
	log     logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open loads every worker stored in dir. The directory is created if it does
// not exist yet.
//
// RETURNS:
//   - The loaded store, sorted by name.
//   - A KindIO error if the directory or a file cannot be read, or a
//     KindDecode error naming the first malformed file.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}

	if err := utils.EnsureDirectories(dir); err != nil {
		return nil, ioError("open", uuid.Nil, dir, err)
	}

	workers, err := loadAll(dir)
	if err != nil {
		return nil, err
	}
	s.workers = workers

	s.log.WithFields(logrus.Fields{
		"dir":     dir,
		"workers": len(workers),
	}).Debug("worker store loaded")

	return s, nil
}

// loadAll reads and decodes every record file in dir.
func loadAll(dir string) ([]types.Worker, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("load", uuid.Nil, dir, err)
	}

	workers := make([]types.Worker, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || utils.IsTempFile(name) || filepath.Ext(name) != ".json" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ioError("load", uuid.Nil, path, err)
		}

		var w types.Worker
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, decodeError("load", path, err)
		}
		if w.ID == uuid.Nil {
			return nil, decodeError("load", path, fmt.Errorf("record has no id"))
		}
		if name != types.FileNameFor(w.ID) {
			return nil, decodeError("load", path, fmt.Errorf("record %s belongs in %s", w.ID, types.FileNameFor(w.ID)))
		}
		workers = append(workers, w)
	}

	sortByName(workers)
	return workers, nil
}

func sortByName(workers []types.Worker) {
	sort.SliceStable(workers, func(i, j int) bool {
		return strings.ToLower(workers[i].Name) < strings.ToLower(workers[j].Name)
	})
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Len returns the number of workers.
func (s *Store) Len() int {
	return len(s.workers)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Add persists w and appends it to the store. A nil identifier is replaced
// with a fresh one. The in-memory list is only changed when the write
// succeeded.
func (s *Store) Add(w types.Worker) (types.Worker, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if s.indexOf(w.ID) >= 0 {
		return types.Worker{}, &Error{Kind: KindExists, Op: "add", ID: w.ID, Err: ErrExists}
	}

	if err := s.save(w); err != nil {
		return types.Worker{}, err
	}
	s.workers = append(s.workers, w)

	s.log.WithField("id", w.ID).Info("worker added")
	return w, nil
}

// Update replaces the stored worker with the same identifier. The whole
// record is overwritten.
//
// RETURNS:
//   - The stored worker.
//   - A KindNotFound error, with nothing written, if the identifier is unknown.
func (s *Store) Update(w types.Worker) (types.Worker, error) {
	idx := s.indexOf(w.ID)
	if idx < 0 {
		return types.Worker{}, notFound("update", w.ID)
	}

	if err := s.save(w); err != nil {
		return types.Worker{}, err
	}
	s.workers[idx] = w

	s.log.WithField("id", w.ID).Info("worker updated")
	return w, nil
}

// Remove deletes the backing file of id and drops the worker from the store.
// A missing file is an error.
func (s *Store) Remove(id uuid.UUID) error {
	path := s.path(id)
	if err := os.Remove(path); err != nil {
		return ioError("remove", id, path, err)
	}

	if idx := s.indexOf(id); idx >= 0 {
		s.workers = append(s.workers[:idx], s.workers[idx+1:]...)
	}

	s.log.WithField("id", id).Info("worker removed")
	return nil
}

// SetSelected sets the selection flag of id and persists the record.
//
// RETURNS:
//   - The updated worker and true.
//   - false, with nothing written, if the identifier is unknown.
//   - An error if the record could not be written; the store is unchanged.
func (s *Store) SetSelected(id uuid.UUID, selected bool) (types.Worker, bool, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return types.Worker{}, false, nil
	}

	updated := s.workers[idx].WithSelected(selected)
	if err := s.save(updated); err != nil {
		return types.Worker{}, true, err
	}
	s.workers[idx] = updated

	s.log.WithFields(logrus.Fields{"id": id, "selected": selected}).Debug("worker selection changed")
	return updated, true, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// All returns a copy of every worker in store order.
func (s *Store) All() []types.Worker {
	out := make([]types.Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// Sorted returns every worker sorted by name, case-insensitively.
func (s *Store) Sorted() []types.Worker {
	out := s.All()
	sortByName(out)
	return out
}

// Get returns the worker with the given identifier.
func (s *Store) Get(id uuid.UUID) (types.Worker, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return types.Worker{}, false
	}
	return s.workers[idx], true
}

// Selected returns the selected workers in store order.
func (s *Store) Selected() []types.Worker {
	var out []types.Worker
	for _, w := range s.workers {
		if w.IsSelected {
			out = append(out, w)
		}
	}
	return out
}

// Find returns workers whose name, TAJ or tax number contains query,
// ignoring case, sorted by name.
func (s *Store) Find(query string) []types.Worker {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []types.Worker
	for _, w := range s.Sorted() {
		if strings.Contains(strings.ToLower(w.Name), q) ||
			strings.Contains(w.NationalHealthID, q) ||
			strings.Contains(strings.ToLower(w.TaxNumber), q) {
			out = append(out, w)
		}
	}
	return out
}

// Resolve finds a single worker by full identifier, identifier prefix (dashes
// optional, at least four characters) or exact name ignoring case.
func (s *Store) Resolve(ref string) (types.Worker, error) {
	ref = strings.TrimSpace(ref)

	if id, err := uuid.Parse(ref); err == nil {
		w, ok := s.Get(id)
		if !ok {
			return types.Worker{}, notFound("resolve", id)
		}
		return w, nil
	}

	var matches []types.Worker
	prefix := strings.ToLower(strings.ReplaceAll(ref, "-", ""))
	if len(prefix) >= 4 && isHex(prefix) {
		for _, w := range s.workers {
			if strings.HasPrefix(types.SimpleID(w.ID), prefix) {
				matches = append(matches, w)
			}
		}
	}
	if len(matches) == 0 {
		for _, w := range s.workers {
			if strings.EqualFold(w.Name, ref) {
				matches = append(matches, w)
			}
		}
	}

	switch len(matches) {
	case 0:
		return types.Worker{}, &Error{Kind: KindNotFound, Op: "resolve", Err: fmt.Errorf("%w: %q", ErrNotFound, ref)}
	case 1:
		return matches[0], nil
	default:
		return types.Worker{}, fmt.Errorf("%q: %w (%d matches)", ref, ErrAmbiguous, len(matches))
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Store) indexOf(id uuid.UUID) int {
	for i, w := range s.workers {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.dir, types.FileNameFor(id))
}

// save writes the full record to its backing file.
func (s *Store) save(w types.Worker) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return &Error{Kind: KindIO, Op: "save", ID: w.ID, Err: fmt.Errorf("encoding record: %w", err)}
	}

	path := s.path(w.ID)
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return ioError("save", w.ID, path, err)
	}
	return nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
