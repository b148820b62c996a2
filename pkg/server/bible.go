package server

import (
	"cmp"
	"errors"
	"net/http"

	"github.com/germanamz/koinonia/pkg/passage"
)

// defaultCrossRefTranslation names the target books of cross references when
// the request does not pick a translation.
const defaultCrossRefTranslation = "KJV"

func (s *Server) translations(w http.ResponseWriter, r *http.Request) {
	ts, err := s.resolver.Translations(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) books(w http.ResponseWriter, r *http.Request) {
	books, err := s.resolver.Books(r.Context(), r.PathValue("translation"))
	switch {
	case errors.Is(err, passage.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "Translation not found")
	case err != nil:
		s.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, books)
	}
}

func (s *Server) chapter(w http.ResponseWriter, r *http.Request) {
	bookID, okBook := pathInt(r, "bookId")
	ch, okCh := pathInt(r, "chapter")
	if !okBook || !okCh {
		writeError(w, http.StatusBadRequest, "Invalid book or chapter")
		return
	}

	vs, err := s.resolver.Verses(r.Context(), r.PathValue("translation"), bookID, ch, passage.Range{})
	switch {
	case errors.Is(err, passage.ErrNoVersesFound):
		writeJSON(w, http.StatusOK, []passage.Verse{})
	case err != nil:
		s.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, vs)
	}
}

func (s *Server) verse(w http.ResponseWriter, r *http.Request) {
	bookID, okBook := pathInt(r, "bookId")
	ch, okCh := pathInt(r, "chapter")
	v, okV := pathInt(r, "verse")
	if !okBook || !okCh || !okV {
		writeError(w, http.StatusBadRequest, "Invalid verse reference")
		return
	}

	got, err := s.resolver.Verse(r.Context(), r.PathValue("translation"), bookID, ch, v)
	switch {
	case errors.Is(err, passage.ErrNoVersesFound):
		writeJSON(w, http.StatusOK, passage.Verse{})
	case err != nil:
		s.internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, got)
	}
}

// crossRefs serves both the chapter and the single-verse routes.
func (s *Server) crossRefs(w http.ResponseWriter, r *http.Request) {
	bookID, okBook := pathInt(r, "bookId")
	ch, okCh := pathInt(r, "chapter")
	if !okBook || !okCh {
		writeError(w, http.StatusBadRequest, "Invalid book or chapter")
		return
	}

	var rng passage.Range
	if r.PathValue("verse") != "" {
		v, ok := pathInt(r, "verse")
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid verse")
			return
		}
		rng = passage.Range{From: v, To: v}
	}

	tr := cmp.Or(r.URL.Query().Get("translation"), defaultCrossRefTranslation)
	refs, err := s.resolver.CrossRefs(r.Context(), tr, bookID, ch, rng)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if refs == nil {
		refs = []passage.CrossRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
