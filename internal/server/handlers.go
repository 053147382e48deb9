package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/photox/internal/pipeline"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
)

const maxBodyBytes = 4 << 20

// PipelineHandler serves the pipeline endpoints.
type PipelineHandler struct {
	pipeline *pipeline.Pipeline
	logger   *log.Logger
}

// NewPipelineHandler creates a handler for p.
func NewPipelineHandler(p *pipeline.Pipeline, logger *log.Logger) *PipelineHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineHandler{pipeline: p, logger: logger}
}

// Routes returns the paths this handler serves.
func (h *PipelineHandler) Routes() []string {
	return []string{
		"/selectfolder",
		"/importfolder",
		"/fixfiles",
		"/postproc",
		"/finish",
		"/cancel",
		"/toggle_processed",
		"/progress",
	}
}

func (h *PipelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	want := http.MethodPost
	if r.URL.Path == "/progress" {
		want = http.MethodGet
	}
	if r.Method != want {
		w.Header().Set("Allow", want)
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	switch r.URL.Path {
	case "/selectfolder":
		h.selectFolder(w, r)
	case "/importfolder":
		h.importFolder(w, r)
	case "/fixfiles":
		h.fixFiles(w, r)
	case "/postproc":
		h.postProc(w, r)
	case "/finish":
		h.finish(w, r)
	case "/cancel":
		h.cancel(w, r)
	case "/toggle_processed":
		h.toggleProcessed(w, r)
	case "/progress":
		h.progress(w, r)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
	}
}

func (h *PipelineHandler) selectFolder(w http.ResponseWriter, r *http.Request) {
	var req pipeline.SelectRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.Select(r.Context(), req)
	h.respond(w, res, err)
}

func (h *PipelineHandler) importFolder(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.Import(r.Context(), req)
	h.respond(w, res, err)
}

func (h *PipelineHandler) fixFiles(w http.ResponseWriter, r *http.Request) {
	var req pipeline.FixRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.FixFiles(r.Context(), req)
	h.respond(w, res, err)
}

func (h *PipelineHandler) postProc(w http.ResponseWriter, r *http.Request) {
	var req pipeline.PostProcRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.PostProcess(r.Context(), req)
	if err != nil && res != nil && res.Script != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "script": res.Script})
		return
	}
	h.respond(w, res, err)
}

func (h *PipelineHandler) finish(w http.ResponseWriter, r *http.Request) {
	var req pipeline.FinishRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.Finish(r.Context(), req)
	h.respond(w, res, err)
}

func (h *PipelineHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req pipeline.CancelRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.Cancel(r.Context(), req)
	h.respond(w, res, err)
}

func (h *PipelineHandler) toggleProcessed(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ToggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.pipeline.ToggleProcessed(r.Context(), req)
	if err != nil {
		h.respond(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": res.Path, "processed": res.Processed})
}

func (h *PipelineHandler) progress(w http.ResponseWriter, r *http.Request) {
	res, err := h.pipeline.Progress(r.Context(), r.URL.Query().Get("task_id"))
	h.respond(w, res, err)
}

// decode fills dst from a JSON body or from form fields. It writes a 400 and returns false on failure.
func (h *PipelineHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeRequest(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func decodeRequest(r *http.Request, dst any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: malformed form: %v", shared.ErrInvalidInput, err)
	}

	fields := make(map[string]any, len(r.Form))
	radio := make(map[string]string)
	for key, values := range r.Form {
		if len(values) == 0 {
			continue
		}
		v := values[0]
		switch {
		case strings.HasPrefix(key, tasks.RadioKeyPrefix):
			radio[key] = v
		case key == "radio_values":
			var m map[string]string
			if err := json.Unmarshal([]byte(v), &m); err != nil {
				return fmt.Errorf("%w: radio_values must be a JSON object of strings", shared.ErrInvalidInput)
			}
			for k, choice := range m {
				radio[k] = choice
			}
		case key == "flag":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: flag must be true or false", shared.ErrInvalidInput)
			}
			fields[key] = b
		default:
			fields[key] = v
		}
	}
	if len(radio) > 0 {
		fields["radio_values"] = radio
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func (h *PipelineHandler) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("pipeline request failed", "error", err)
		}
		writeErrorBody(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnknownTask),
		errors.Is(err, shared.ErrUnknownPath),
		errors.Is(err, shared.ErrUnknownFile),
		errors.Is(err, shared.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrIncompleteResolution),
		errors.Is(err, shared.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidRange),
		errors.Is(err, shared.ErrInvalidDate),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrScriptFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeErrorBody adds the unresolved file ids to incomplete resolution errors.
func writeErrorBody(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	var incomplete *tasks.IncompleteResolutionError
	if errors.As(err, &incomplete) {
		body["file_ids"] = incomplete.FileIDs
	}
	writeJSON(w, status, body)
}
