package catalog

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkarrel/kinotek/internal/httputil"
)

type Category string

const (
	CategoryMovie     Category = "movie"
	CategoryTVSeries  Category = "tv-series"
	CategoryMusic     Category = "music"
	CategoryAnimation Category = "animation"
)

// Categories lists every valid category, in display order.
var Categories = []Category{CategoryMovie, CategoryTVSeries, CategoryMusic, CategoryAnimation}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", httputil.NewAPIError(http.StatusBadRequest, httputil.CodeInvalidCategory,
		fmt.Sprintf("invalid category %q", s))
}

// Record is one catalog entry. Paths are site-relative (e.g.
// /uploads/movies/...), never absolute disk paths.
type Record struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Category    Category `json:"category"`
	FilePath    string   `json:"filePath,omitempty"`
	Poster      string   `json:"poster,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Year        string   `json:"year,omitempty"`
	Rating      string   `json:"rating,omitempty"`
	Resolution  string   `json:"resolution,omitempty"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres"`
}

const (
	maxDescriptionLen = 1000
	maxGenreLen       = 50
)

var yearRe = regexp.MustCompile(`^\d{4}$`)

// SplitGenres turns a comma-joined form value into the stored genre list:
// trimmed, empties dropped, order preserved. Always returns a non-nil
// slice so the catalog serializes genres as [] rather than null.
func SplitGenres(raw string) []string {
	genres := []string{}
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		genres = append(genres, g)
	}
	return genres
}

func validationErr(format string, args ...interface{}) error {
	return httputil.NewAPIError(http.StatusBadRequest, httputil.CodeValidation,
		fmt.Sprintf(format, args...))
}

// Validate checks every field constraint. It never mutates the record and
// must be called before any store mutation.
func (rec *Record) Validate() error {
	if strings.TrimSpace(rec.Title) == "" {
		return validationErr("title is required")
	}
	if _, err := ParseCategory(string(rec.Category)); err != nil {
		return err
	}
	// Series keep per-episode paths under their seasons; everything else
	// needs a primary media file.
	if rec.FilePath == "" && rec.Category != CategoryTVSeries {
		return validationErr("filePath is required for category %q", rec.Category)
	}
	if rec.Year != "" && !yearRe.MatchString(rec.Year) {
		return validationErr("year must be a 4-digit year, got %q", rec.Year)
	}
	if rec.Rating != "" {
		rating, err := strconv.ParseFloat(rec.Rating, 64)
		if err != nil {
			return validationErr("rating must be numeric, got %q", rec.Rating)
		}
		if rating < 0 || rating > 10 {
			return validationErr("rating must be between 0 and 10, got %v", rating)
		}
	}
	if len(rec.Description) > maxDescriptionLen {
		return validationErr("description exceeds %d characters", maxDescriptionLen)
	}
	for _, g := range rec.Genres {
		if len(g) > maxGenreLen {
			return validationErr("genre %q exceeds %d characters", g, maxGenreLen)
		}
	}
	return nil
}

// NextID returns max(existing ids)+1, or 1 for an empty catalog.
func NextID(records []Record) int {
	max := 0
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}
