package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrStoreCorrupt means the catalog could not be parsed even though
// EnsureExists had a chance to self-heal it.
var ErrStoreCorrupt = errors.New("catalog store corrupt")

const backupPrefix = "movies-backup-"

// Store is the persistence boundary for the catalog. The default is a
// single JSON file; swapping in a database-backed implementation is a
// drop-in replacement.
type Store interface {
	// EnsureExists self-heals a missing or unparseable catalog back to an
	// empty collection. It never reports an error to callers.
	EnsureExists()
	// Backup snapshots the current catalog before a mutation.
	Backup() error
	// PruneBackups keeps only the newest max snapshots. Failures are
	// logged, never propagated.
	PruneBackups(max int)
	Read() ([]Record, error)
	Write(records []Record) error
}

// JSONStore keeps the catalog as a pretty-printed JSON array in one file,
// with timestamped full-file snapshots in backupDir.
type JSONStore struct {
	path      string
	backupDir string
	log       *log.Logger
}

func NewJSONStore(path, backupDir string, logger *log.Logger) *JSONStore {
	if logger == nil {
		logger = log.Default()
	}
	return &JSONStore{path: path, backupDir: backupDir, log: logger}
}

func (s *JSONStore) EnsureExists() {
	data, err := os.ReadFile(s.path)
	if err == nil {
		var records []Record
		if json.Unmarshal(data, &records) == nil {
			return
		}
		s.log.Printf("catalog: %s is not valid JSON, resetting to empty array", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Printf("catalog: create data dir: %v", err)
		return
	}
	if err := os.WriteFile(s.path, []byte("[]"), 0o644); err != nil {
		s.log.Printf("catalog: reset %s: %v", s.path, err)
	}
}

// Backup copies the catalog file into the backup directory under a
// timestamped name. Colons and dots in the ISO timestamp are replaced so
// the name is safe on every filesystem and sorts lexicographically.
func (s *JSONStore) Backup() error {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	dst := filepath.Join(s.backupDir, backupPrefix+ts+".json")

	src, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy backup: %w", err)
	}
	return nil
}

func (s *JSONStore) PruneBackups(max int) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		s.log.Printf("catalog: list backups: %v", err)
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			names = append(names, e.Name())
		}
	}
	// Timestamp-lexicographic: newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names[minInt(max, len(names)):] {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			s.log.Printf("catalog: prune backup %s: %v", name, err)
		}
	}
}

func (s *JSONStore) Read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	records := []Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	for i := range records {
		if records[i].Genres == nil {
			records[i].Genres = []string{}
		}
	}
	return records, nil
}

func (s *JSONStore) Write(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
