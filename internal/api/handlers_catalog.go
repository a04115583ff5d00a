package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkarrel/kinotek/internal/catalog"
	"github.com/mkarrel/kinotek/internal/httputil"
	"github.com/mkarrel/kinotek/internal/upload"
)

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	records, err := s.catalog.List()
	if err != nil {
		s.log.Printf("api: list catalog: %v", err)
		httputil.WriteErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxRequestBytes)

	stored, err := s.uploads.Store(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	rec, err := s.catalog.Add(inputFromForm(r, stored))
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleEditMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation, "invalid record id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxRequestBytes)

	stored, err := s.uploads.Store(r)
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}

	rec, err := s.catalog.Edit(id, inputFromForm(r, stored))
	if err != nil {
		httputil.WriteErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeValidation, "invalid record id")
		return
	}
	if err := s.catalog.Delete(id); err != nil {
		httputil.WriteErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "record deleted"})
}

// inputFromForm collects the metadata fields plus file references. An
// uploaded file always wins; an explicit file_path/poster form value is
// the override for keeping or swapping references without an upload.
func inputFromForm(r *http.Request, stored upload.Stored) catalog.Input {
	in := catalog.Input{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Genres:      r.FormValue("genres"),
		Duration:    r.FormValue("duration"),
		Year:        r.FormValue("year"),
		Rating:      r.FormValue("rating"),
		Resolution:  r.FormValue("resolution"),
		Description: r.FormValue("description"),
	}

	switch {
	case stored.HasFilePath:
		in.FilePath, in.HasFilePath = stored.FilePath, true
	default:
		if vals, ok := formValues(r, "file_path"); ok {
			in.FilePath, in.HasFilePath = vals[0], true
		}
	}
	switch {
	case stored.HasPoster:
		in.Poster, in.HasPoster = stored.Poster, true
	default:
		if vals, ok := formValues(r, "poster"); ok {
			in.Poster, in.HasPoster = vals[0], true
		}
	}
	return in
}

// formValues distinguishes an absent field from an empty one.
func formValues(r *http.Request, key string) ([]string, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals, true
}
