package recordstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	railerrors "github.com/railclaw/orchestrator/internal/errors"
)

// Store persists Records as one JSON file per payment under
// <dataDir>/pending/<payment_id>.json. There is no in-memory index: every
// call reads or writes straight through to disk, so a restart loses nothing.
type Store struct {
	dataDir string
}

// New returns a Store rooted at dataDir. The pending/ and notifications/
// subdirectories are created lazily on first write.
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

func (s *Store) pendingDir() string {
	return filepath.Join(s.dataDir, "pending")
}

func (s *Store) recordPath(paymentID string) string {
	return filepath.Join(s.pendingDir(), paymentID+".json")
}

// Create writes a new record, failing with a RecordError{Kind:"conflict"}
// if a record with the same payment ID already exists.
func (s *Store) Create(r Record) error {
	if err := os.MkdirAll(s.pendingDir(), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	// Write the full record to a temp file, then hard-link it into place:
	// the link fails if the record already exists, and readers only ever
	// see the complete file.
	path := s.recordPath(r.PaymentID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return &railerrors.RecordError{Kind: "conflict", PaymentID: r.PaymentID}
		}
		return err
	}
	return nil
}

// Get loads the record for paymentID, returning a RecordError{Kind:"not_found"}
// if no such record exists.
func (s *Store) Get(paymentID string) (Record, error) {
	data, err := os.ReadFile(s.recordPath(paymentID))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, &railerrors.RecordError{Kind: "not_found", PaymentID: paymentID}
		}
		return Record{}, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Update performs a read-modify-write on the record for paymentID: it loads
// the current record, applies mutate, and persists the result atomically. It
// returns a RecordError{Kind:"not_found"} if the record does not exist, and
// whatever error mutate returns without writing anything.
func (s *Store) Update(paymentID string, mutate func(*Record) error) error {
	r, err := s.Get(paymentID)
	if err != nil {
		return err
	}

	if err := mutate(&r); err != nil {
		return err
	}

	return s.writeAtomic(s.recordPath(paymentID), r)
}

func (s *Store) writeAtomic(path string, r Record) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Filter narrows a List call. A zero-value Filter matches every record.
type Filter struct {
	BusinessID string
	Status     Status
}

// List scans pending/ and returns every record matching filter, sorted by
// payment ID for deterministic output.
func (s *Store) List(filter Filter) ([]Record, error) {
	entries, err := os.ReadDir(s.pendingDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paymentID := strings.TrimSuffix(entry.Name(), ".json")
		r, err := s.Get(paymentID)
		if err != nil {
			continue
		}
		if filter.BusinessID != "" && r.BusinessID != filter.BusinessID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PaymentID < out[j].PaymentID })
	return out, nil
}
