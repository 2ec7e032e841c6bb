package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/parser"
	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/storage"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ok(w, r, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "dataiq",
	})
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	src := s.runner.Source()
	if src == nil {
		failErr(w, r, pipeline.ErrNoSource)
		return
	}

	tables, err := src.ListTables(r.Context(), r.URL.Query().Get("schema"))
	if err != nil {
		s.logger.Error("Failed to list tables", zap.Error(err))
		failErr(w, r, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	ok(w, r, tables)
}

func (s *Server) tableColumns(w http.ResponseWriter, r *http.Request) {
	src := s.runner.Source()
	if src == nil {
		failErr(w, r, pipeline.ErrNoSource)
		return
	}

	cols, err := src.GetColumns(r.Context(), r.URL.Query().Get("schema"), chi.URLParam(r, "table"))
	if err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, r, cols)
}

func (s *Server) profileTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fail(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	if s.runner.Source() == nil {
		failErr(w, r, pipeline.ErrNoSource)
		return
	}

	out, err := s.runner.ProfileTable(r.Context(), table, limit)
	if err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, r, withAnomalies(out, s.runner))
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		fail(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	opts := parser.DefaultOptions()
	opts.MaxRows = s.fetch.UploadMaxRows

	ds, err := parser.LoadReader(header.Filename, file, opts)
	if err != nil {
		failErr(w, r, err)
		return
	}

	out, err := s.runner.ProfileDataset(r.Context(), ds, connectors.FileMeta{Path: header.Filename}.Name())
	if err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, r, withAnomalies(out, s.runner))
}

func withAnomalies(out *pipeline.ProfileOutcome, runner *pipeline.Runner) UploadResponse {
	resp := UploadResponse{
		ProfileOutcome: out,
		Anomalies:      runner.Detect(out.Dataset),
	}
	if out.PersistErr != nil {
		resp.PersistError = out.PersistErr.Error()
	}
	return resp
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	infos, err := s.runner.Profiles().List()
	if err != nil {
		failErr(w, r, err)
		return
	}
	if infos == nil {
		infos = []storage.ProfileInfo{}
	}
	ok(w, r, infos)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Profiles().Load(chi.URLParam(r, "name"))
	if err != nil {
		failErr(w, r, err)
		return
	}
	ok(w, r, result)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	h := s.runner.History()
	if h == nil {
		fail(w, r, http.StatusServiceUnavailable, "profile history is disabled")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Recent(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		failErr(w, r, err)
		return
	}
	if runs == nil {
		runs = []storage.ProfileRun{}
	}
	ok(w, r, runs)
}
