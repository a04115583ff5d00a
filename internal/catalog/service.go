package catalog

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkarrel/kinotek/internal/httputil"
)

// Input carries the normalized form fields of an add/edit request plus
// the site-relative paths of any files the upload router already stored.
// HasFilePath/HasPoster distinguish "field absent" from "field empty" so
// edits know when to fall back to the prior value.
type Input struct {
	Title       string
	Category    string
	Genres      string
	Duration    string
	Year        string
	Rating      string
	Resolution  string
	Description string

	FilePath    string
	HasFilePath bool
	Poster      string
	HasPoster   bool
}

// Service orchestrates record lifecycle against the store: every mutation
// runs validate → backup → read-modify-write, with best-effort cleanup of
// files a mutation unreferences. The mutex makes the service the single
// writer for the whole read-modify-write sequence, so concurrent admin
// requests cannot lose updates.
type Service struct {
	mu         sync.Mutex
	store      Store
	uploadRoot string
	maxBackups int
	log        *log.Logger
}

func NewService(store Store, uploadRoot string, maxBackups int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, uploadRoot: uploadRoot, maxBackups: maxBackups, log: logger}
}

func notFoundErr(id int) error {
	return httputil.NewAPIError(http.StatusNotFound, httputil.CodeNotFound,
		fmt.Sprintf("record %d not found", id))
}

// List returns the full catalog, self-healing the store first.
func (s *Service) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.EnsureExists()
	return s.store.Read()
}

// Add creates a record from in. A primary media file must already have
// been stored by the upload router; validation failures abort before any
// store mutation (the uploaded file stays on disk for the sweeper).
func (s *Service) Add(in Input) (Record, error) {
	if !in.HasFilePath || in.FilePath == "" {
		return Record{}, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeMediaRequired,
			"a media file is required")
	}

	rec := buildRecord(0, in)
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.EnsureExists()
	s.backup()
	records, err := s.store.Read()
	if err != nil {
		return Record{}, err
	}
	rec.ID = NextID(records)
	records = append(records, rec)
	if err := s.store.Write(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Edit replaces the record wholesale, preserving only its id. Metadata
// fields absent from the request wipe the prior values; filePath and
// poster are the exception and fall back to the old record when no new
// file was uploaded and no override field was sent. A replaced file is
// deleted from disk best-effort.
func (s *Service) Edit(id int, in Input) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.EnsureExists()
	records, err := s.store.Read()
	if err != nil {
		return Record{}, err
	}
	idx := indexOf(records, id)
	if idx < 0 {
		return Record{}, notFoundErr(id)
	}
	old := records[idx]

	rec := buildRecord(id, in)
	if !in.HasFilePath {
		rec.FilePath = old.FilePath
	}
	if !in.HasPoster {
		rec.Poster = old.Poster
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	s.backup()
	records[idx] = rec

	if old.FilePath != "" && old.FilePath != rec.FilePath {
		s.removeUpload(old.FilePath)
	}
	if old.Poster != "" && old.Poster != rec.Poster {
		s.removeUpload(old.Poster)
	}

	if err := s.store.Write(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes the record and its referenced files. File deletion is
// best-effort and never fails the request.
func (s *Service) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.EnsureExists()
	records, err := s.store.Read()
	if err != nil {
		return err
	}
	idx := indexOf(records, id)
	if idx < 0 {
		return notFoundErr(id)
	}
	rec := records[idx]

	if rec.FilePath != "" {
		s.removeUpload(rec.FilePath)
	}
	if rec.Poster != "" {
		s.removeUpload(rec.Poster)
	}

	s.backup()
	records = append(records[:idx], records[idx+1:]...)
	return s.store.Write(records)
}

// backup snapshots the catalog and prunes old snapshots. A failed backup
// degrades durability but never blocks the mutation.
func (s *Service) backup() {
	if err := s.store.Backup(); err != nil {
		s.log.Printf("catalog: backup failed, continuing: %v", err)
		return
	}
	s.store.PruneBackups(s.maxBackups)
}

// removeUpload deletes a no-longer-referenced uploaded file. Only paths
// under /uploads/ are touched; anything else is an external reference the
// catalog does not own.
func (s *Service) removeUpload(siteRel string) {
	rel, ok := strings.CutPrefix(siteRel, "/uploads/")
	if !ok {
		return
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	full := filepath.Join(s.uploadRoot, rel)
	if err := os.Remove(full); err != nil {
		s.log.Printf("catalog: remove orphaned file %s: %v", full, err)
	}
}

func buildRecord(id int, in Input) Record {
	return Record{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Category:    Category(strings.TrimSpace(in.Category)),
		FilePath:    in.FilePath,
		Poster:      in.Poster,
		Duration:    strings.TrimSpace(in.Duration),
		Year:        strings.TrimSpace(in.Year),
		Rating:      strings.TrimSpace(in.Rating),
		Resolution:  strings.TrimSpace(in.Resolution),
		Description: strings.TrimSpace(in.Description),
		Genres:      SplitGenres(in.Genres),
	}
}

func indexOf(records []Record, id int) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
