// Package upload routes multipart file uploads to category-specific
// directories with collision-resistant names, enforcing type and size
// constraints before anything is kept.
package upload

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkarrel/kinotek/internal/catalog"
	"github.com/mkarrel/kinotek/internal/httputil"
)

const (
	FieldMovie  = "movie_file"
	FieldPoster = "poster_file"

	// posterDirName is shared by every category.
	posterDirName = "posters"

	MaxMovieBytes  = 500 << 20
	MaxPosterBytes = 10 << 20

	// maxParts bounds total files plus form values in one request.
	maxParts = 32

	// memoryLimit is the in-memory multipart buffer; larger parts spill
	// to temp files.
	memoryLimit = 16 << 20
)

// MaxRequestBytes caps the whole multipart body; callers wrap the request
// body in http.MaxBytesReader with it.
const MaxRequestBytes = MaxMovieBytes + MaxPosterBytes + (1 << 20)

// Stored reports where an accepted upload landed, as site-relative paths
// servable under /uploads/.
type Stored struct {
	FilePath    string
	HasFilePath bool
	Poster      string
	HasPoster   bool
}

type Router struct {
	root string
	log  *log.Logger
}

func NewRouter(root string, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{root: root, log: logger}
}

// ResolveDestination maps a file field and declared category to the
// directory the file belongs in. The category is required and validated
// even for posters, which always share one directory.
func (rt *Router) ResolveDestination(field, category string) (string, error) {
	cat, err := catalog.ParseCategory(category)
	if err != nil {
		return "", err
	}
	switch field {
	case FieldMovie:
		return filepath.Join(rt.root, string(cat)), nil
	case FieldPoster:
		return filepath.Join(rt.root, posterDirName), nil
	default:
		return "", httputil.NewAPIError(http.StatusBadRequest, httputil.CodeInvalidField,
			fmt.Sprintf("unexpected file field %q", field))
	}
}

// GenerateFilename prefixes the original name with epoch millis and a
// random 9-digit suffix. Collisions would need the same millisecond and
// the same draw, which is negligible at admin-tool request rates.
func GenerateFilename(original string) string {
	name := sanitizeName(filepath.Base(original))
	return fmt.Sprintf("%d-%09d-%s", time.Now().UnixMilli(), rand.Int64N(1_000_000_000), name)
}

// ValidateFile checks the declared MIME type against the field: movies
// accept video or audio, posters accept images.
func ValidateFile(field, mimeType string) error {
	switch field {
	case FieldMovie:
		if strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/") {
			return nil
		}
	case FieldPoster:
		if strings.HasPrefix(mimeType, "image/") {
			return nil
		}
	default:
		return httputil.NewAPIError(http.StatusBadRequest, httputil.CodeInvalidField,
			fmt.Sprintf("unexpected file field %q", field))
	}
	return httputil.NewAPIError(http.StatusUnsupportedMediaType, httputil.CodeUnsupportedMedia,
		fmt.Sprintf("%s does not accept %q", field, mimeType))
}

// Store validates and persists the uploaded files of an already-parsed
// multipart request. The declared category routes the media file; request
// fields beyond the known file fields are left for the caller.
func (rt *Router) Store(r *http.Request) (Stored, error) {
	var stored Stored

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return stored, httputil.NewAPIError(http.StatusRequestEntityTooLarge,
				httputil.CodePayloadTooLarge, "request body too large")
		}
		return stored, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeValidation,
			"invalid multipart form")
	}
	form := r.MultipartForm
	if form == nil {
		return stored, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeValidation,
			"multipart/form-data required")
	}

	parts := len(form.Value)
	for _, headers := range form.File {
		parts += len(headers)
	}
	if parts > maxParts {
		return stored, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeTooManyParts,
			fmt.Sprintf("too many form parts (max %d)", maxParts))
	}

	for field := range form.File {
		if field != FieldMovie && field != FieldPoster {
			return stored, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeInvalidField,
				fmt.Sprintf("unexpected file field %q", field))
		}
		if len(form.File[field]) > 1 {
			return stored, httputil.NewAPIError(http.StatusBadRequest, httputil.CodeTooManyParts,
				fmt.Sprintf("at most one file allowed for %s", field))
		}
	}

	category := r.FormValue("category")

	if header := firstFile(form, FieldMovie); header != nil {
		rel, err := rt.saveFile(FieldMovie, category, header, MaxMovieBytes)
		if err != nil {
			return stored, err
		}
		stored.FilePath = rel
		stored.HasFilePath = true
	}
	if header := firstFile(form, FieldPoster); header != nil {
		rel, err := rt.saveFile(FieldPoster, category, header, MaxPosterBytes)
		if err != nil {
			return stored, err
		}
		stored.Poster = rel
		stored.HasPoster = true
	}
	return stored, nil
}

func (rt *Router) saveFile(field, category string, header *multipart.FileHeader, maxBytes int64) (string, error) {
	if header.Size > maxBytes {
		return "", httputil.NewAPIError(http.StatusRequestEntityTooLarge, httputil.CodePayloadTooLarge,
			fmt.Sprintf("%s exceeds %d MB limit", field, maxBytes>>20))
	}
	if err := ValidateFile(field, header.Header.Get("Content-Type")); err != nil {
		return "", err
	}
	dir, err := rt.ResolveDestination(field, category)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := GenerateFilename(header.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	rel, err := filepath.Rel(rt.root, filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("relativize upload path: %w", err)
	}
	return "/uploads/" + filepath.ToSlash(rel), nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil
	}
	return headers[0]
}

// sanitizeName keeps the original name recognizable while staying safe on
// disk and in URLs.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '.', ch == '-', ch == '_':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
