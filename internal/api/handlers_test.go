package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tactful-app/tactful-backend/internal/api"
	"github.com/tactful-app/tactful-backend/internal/fault"
	"github.com/tactful-app/tactful-backend/internal/normalize"
	"github.com/tactful-app/tactful-backend/internal/pipeline"
)

// stubComposer returns a canned response or error and records the input it
// was handed.
type stubComposer struct {
	resp pipeline.FinalResponse
	err  error
	got  normalize.CanonicalInput
}

func (s *stubComposer) Compose(_ context.Context, in normalize.CanonicalInput) (pipeline.FinalResponse, error) {
	s.got = in
	return s.resp, s.err
}

func newTestServer(composer api.Composer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewServer(
		normalize.New(20),
		composer,
		api.Config{Env: "development"},
		logger,
	)
}

const validBody = `{
	"relationship": "professional",
	"intent": "set_boundary",
	"tone": "calm",
	"format": "message",
	"risk_scan": {"impact": "low", "continuity": "low"},
	"facts": "My manager keeps rescheduling our one-on-ones at the last minute.",
	"main_concerns": ["repeat"],
	"package": "message"
}`

func postCompose(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/compose", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (kind, message string) {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Error   struct {
			Kind    string `json:"kind"`
			Stage   string `json:"stage"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if envelope.Success {
		t.Error("error envelope has success=true")
	}
	return envelope.Error.Kind, envelope.Error.Message
}

// ─── SUCCESS ──────────────────────────────────────────────────────────────────

func TestHandleCompose_Success(t *testing.T) {
	msg := "Could we agree that schedule changes are sent a day ahead?"
	composer := &stubComposer{
		resp: pipeline.FinalResponse{
			Package:          "message",
			MessageText:      &msg,
			SafetyDisclaimer: pipeline.SafetyDisclaimer,
		},
	}
	rec := postCompose(t, newTestServer(composer), validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success          bool    `json:"success"`
		Package          string  `json:"package"`
		MessageText      *string `json:"message_text"`
		EmailText        *string `json:"email_text"`
		SafetyDisclaimer string  `json:"safety_disclaimer"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !envelope.Success {
		t.Error("success flag false on a 200")
	}
	if envelope.Package != "message" {
		t.Errorf("package = %q", envelope.Package)
	}
	if envelope.MessageText == nil || *envelope.MessageText != msg {
		t.Errorf("message_text = %v", envelope.MessageText)
	}
	if envelope.EmailText != nil {
		t.Error("email_text should be null for the message package")
	}
	if envelope.SafetyDisclaimer == "" {
		t.Error("safety_disclaimer missing")
	}

	// The normalized input, not the raw body, reaches the pipeline.
	if composer.got.Relationship != normalize.RelationshipProfessional {
		t.Errorf("composer saw relationship %q", composer.got.Relationship)
	}
}

func TestHandleCompose_LegacyNestedBodyAccepted(t *testing.T) {
	legacyBody := `{
		"context": {"relationship": "professional", "intent": "set_boundary"},
		"style": {"tone": "calm"},
		"output": {"format": "message"},
		"risk": {"impact": "low", "continuity": "low"},
		"situation": {"facts": "My manager keeps rescheduling our one-on-ones at the last minute."},
		"purchase": {"package": "bundle"}
	}`

	composer := &stubComposer{resp: pipeline.FinalResponse{Package: "total"}}
	rec := postCompose(t, newTestServer(composer), legacyBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if composer.got.Package != normalize.PackageTotal {
		t.Errorf("package = %q, want total (bundle alias)", composer.got.Package)
	}
}

// ─── VALIDATION FAILURES ──────────────────────────────────────────────────────

func TestHandleCompose_ValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "not json",
			body:        "not json at all",
			wantMessage: "request body is not a valid JSON object",
		},
		{
			name:        "missing relationship",
			body:        `{"intent": "set_boundary", "tone": "calm", "format": "message", "risk_scan": {"impact": "low", "continuity": "low"}, "facts": "My manager keeps rescheduling our one-on-ones.", "package": "message"}`,
			wantMessage: "relationship",
		},
		{
			name:        "unknown enum value",
			body:        strings.Replace(validBody, `"set_boundary"`, `"revenge"`, 1),
			wantMessage: "revenge",
		},
		{
			name:        "facts too short",
			body:        strings.Replace(validBody, `"My manager keeps rescheduling our one-on-ones at the last minute."`, `"too short"`, 1),
			wantMessage: "at least 20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := &stubComposer{}
			rec := postCompose(t, newTestServer(composer), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
			kind, message := decodeError(t, rec)
			if kind != string(fault.KindValidation) {
				t.Errorf("kind = %q, want %q", kind, fault.KindValidation)
			}
			if !strings.Contains(message, tt.wantMessage) {
				t.Errorf("message %q does not mention %q", message, tt.wantMessage)
			}
		})
	}
}

// ─── PIPELINE FAILURES ────────────────────────────────────────────────────────

func TestHandleCompose_FaultStatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    fault.Kind
		wantMessage string
	}{
		{
			name:        "unknown package",
			err:         fault.New(fault.KindValidation, "resolve", "unknown package"),
			wantStatus:  http.StatusBadRequest,
			wantKind:    fault.KindValidation,
			wantMessage: "unknown package",
		},
		{
			name:        "template store down",
			err:         fault.Wrap(fault.KindUpstreamFetch, "message", "template store unavailable", errors.New("503")),
			wantStatus:  http.StatusBadGateway,
			wantKind:    fault.KindUpstreamFetch,
			wantMessage: "template store is unavailable",
		},
		{
			name:        "generator down",
			err:         fault.Wrap(fault.KindGenerationFailed, "email", "generator call failed", errors.New("500")),
			wantStatus:  http.StatusBadGateway,
			wantKind:    fault.KindGenerationFailed,
			wantMessage: "text generation failed",
		},
		{
			name:        "untagged error",
			err:         errors.New("nil map write"),
			wantStatus:  http.StatusInternalServerError,
			wantKind:    fault.KindInternal,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := &stubComposer{err: tt.err}
			rec := postCompose(t, newTestServer(composer), validBody)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			kind, message := decodeError(t, rec)
			if kind != string(tt.wantKind) {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if message != tt.wantMessage {
				t.Errorf("message = %q, want %q", message, tt.wantMessage)
			}
		})
	}
}

func TestHandleCompose_InternalDetailNeverLeaks(t *testing.T) {
	composer := &stubComposer{err: errors.New("password=hunter2 leaked in error text")}
	rec := postCompose(t, newTestServer(composer), validBody)

	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Error("internal error detail leaked to the caller")
	}
}

// ─── HEALTH ───────────────────────────────────────────────────────────────────

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&stubComposer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
