package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tactful-app/tactful-backend/internal/fault"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/pipeline"
)

// ─── POST /api/compose ────────────────────────────────────────────────────────

// composeResponse is the success envelope: the explicit success flag plus the
// package-shaped final response inlined.
type composeResponse struct {
	Success bool `json:"success"`
	pipeline.FinalResponse
}

// errorBody describes one failure to the caller. Stage is the pipeline stage
// label; Message never contains prompt contents.
type errorBody struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// handleCompose runs the full normalize → decide → generate flow for one
// request body. The body is passed to the normalizer raw: it owns the
// multi-schema alias resolution, so no struct decoding happens here.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20)) // 1 MB max
	if err != nil {
		s.respondFault(w, r, fault.Wrap(fault.KindValidation, "decode", "could not read request body", err))
		return
	}

	in, err := s.normalizer.Normalize(body)
	if err != nil {
		s.respondFault(w, r, fault.Wrap(fault.KindValidation, "normalize", validationMessage(err), err))
		return
	}

	resp, err := s.composer.Compose(r.Context(), in)
	if err != nil {
		s.respondFault(w, r, err)
		return
	}

	respond(w, http.StatusOK, composeResponse{Success: true, FinalResponse: resp})
}

// validationMessage produces a caller-safe message for normalizer failures.
// The typed errors are already safe; anything else (malformed JSON) gets a
// generic line.
func validationMessage(err error) string {
	var missing *normalize.MissingFieldError
	var invalid *normalize.InvalidEnumError
	var short *normalize.FactsTooShortError
	if errors.As(err, &missing) || errors.As(err, &invalid) || errors.As(err, &short) {
		return err.Error()
	}
	return "request body is not a valid JSON object"
}

// respondFault maps a pipeline error to the HTTP envelope. Internal faults
// get a generic message; details are logged only.
func (s *Server) respondFault(w http.ResponseWriter, r *http.Request, err error) {
	kind := fault.KindOf(err)
	stage := fault.StageOf(err)

	message := "internal server error"
	switch kind {
	case fault.KindValidation:
		var f *fault.Fault
		if errors.As(err, &f) {
			message = f.Message
		}
	case fault.KindUpstreamFetch:
		message = "template store is unavailable"
	case fault.KindGenerationFailed:
		message = "text generation failed"
	}

	if kind == fault.KindInternal {
		s.logger.Error("internal error",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
	} else {
		s.logger.Warn("request failed",
			"kind", string(kind),
			"stage", stage,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}

	respond(w, fault.HTTPStatus(kind), errorResponse{
		Success: false,
		Error:   errorBody{Kind: string(kind), Stage: stage, Message: message},
	})
}
