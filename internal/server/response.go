package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/peekknuf/dataiq/internal/fileio"
	"github.com/peekknuf/dataiq/internal/parser"
	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/profiler"
	"github.com/peekknuf/dataiq/internal/storage"
)

// APIResponse wraps every JSON body. Status is 0 on success.
type APIResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	Data   any    `json:"data,omitempty"`
}

func ok(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: data})
}

func fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, APIResponse{Status: code, Msg: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, fileio.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrRaggedRow),
		errors.Is(err, profiler.ErrEmptyDataset):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoSource):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func failErr(w http.ResponseWriter, r *http.Request, err error) {
	fail(w, r, statusFor(err), err.Error())
}
