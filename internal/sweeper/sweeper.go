// Package sweeper reclaims uploaded files that never made it into the
// catalog. Uploads are streamed to disk before record validation runs, so
// a rejected add leaves a file behind; the sweeper deletes unreferenced
// files once they outlive a grace period.
package sweeper

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkarrel/kinotek/internal/catalog"
)

type Sweeper struct {
	service    *catalog.Service
	uploadRoot string
	grace      time.Duration
	log        *log.Logger
	cron       *cron.Cron
}

func New(service *catalog.Service, uploadRoot string, grace time.Duration, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		service:    service,
		uploadRoot: uploadRoot,
		grace:      grace,
		log:        logger,
	}
}

// Start schedules periodic sweeps. An empty spec disables the sweeper.
func (s *Sweeper) Start(spec string) error {
	if spec == "" {
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			s.log.Printf("sweeper: removed %d orphaned upload(s)", n)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep deletes unreferenced uploads older than the grace period and
// returns how many files it removed. Every failure is logged and skipped;
// a sweep never aborts.
func (s *Sweeper) Sweep() int {
	records, err := s.service.List()
	if err != nil {
		s.log.Printf("sweeper: read catalog: %v", err)
		return 0
	}

	referenced := make(map[string]struct{})
	for _, rec := range records {
		for _, p := range []string{rec.FilePath, rec.Poster} {
			if disk, ok := s.diskPath(p); ok {
				referenced[disk] = struct{}{}
			}
		}
	}

	cutoff := time.Now().Add(-s.grace)
	removed := 0
	err = filepath.WalkDir(s.uploadRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := referenced[filepath.Clean(path)]; ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.log.Printf("sweeper: remove %s: %v", path, err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		s.log.Printf("sweeper: walk uploads: %v", err)
	}
	return removed
}

// diskPath maps a site-relative /uploads/ path onto the upload root.
func (s *Sweeper) diskPath(siteRel string) (string, bool) {
	rel, ok := strings.CutPrefix(siteRel, "/uploads/")
	if !ok || rel == "" {
		return "", false
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.Clean(filepath.Join(s.uploadRoot, rel)), true
}
