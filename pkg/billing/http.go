package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/clinicdesk/pkg/logger"
	"github.com/dmitrymomot/clinicdesk/pkg/webhook"
)

// MaxBodyBytes caps the webhook request body.
const MaxBodyBytes = 1 << 20

const defaultProcessingTimeout = 30 * time.Second

// Response bodies. They never say why a signature was rejected.
var (
	respReceived     = map[string]any{"received": true}
	respInvalidSig   = map[string]any{"error": "invalid signature"}
	respMalformed    = map[string]any{"error": "malformed payload"}
	respUnconfigured = map[string]any{"error": "webhook secret not configured"}
	respFailed       = map[string]any{"error": "processing failed"}
)

// WebhookHandler is the HTTP entry point for provider deliveries.
type WebhookHandler struct {
	processor *Processor
	timeout   time.Duration
	logger    *slog.Logger
}

// NewWebhookHandler wraps processor. A non-positive timeout selects the default
// of 30 seconds. Panics if processor is nil.
func NewWebhookHandler(processor *Processor, timeout time.Duration, log *slog.Logger) *WebhookHandler {
	if processor == nil {
		panic("billing: Processor is required")
	}
	if timeout <= 0 {
		timeout = defaultProcessingTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &WebhookHandler{
		processor: processor,
		timeout:   timeout,
		logger:    log.With(logger.Component("billing.http")),
	}
}

// ServeHTTP reads the raw body before anything else touches it, then hands the
// exact bytes to the processor. Processing is detached from the request
// context so a disconnecting sender cannot abort a half-applied transition.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, respMalformed)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()

	_, err = h.processor.Process(ctx, payload, r.Header.Get(webhook.Header))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, respReceived)
	case errors.Is(err, ErrUnconfigured):
		writeJSON(w, http.StatusInternalServerError, respUnconfigured)
	case webhook.IsInvalidSignature(err):
		writeJSON(w, http.StatusBadRequest, respInvalidSig)
	case errors.Is(err, ErrMalformedPayload):
		writeJSON(w, http.StatusBadRequest, respMalformed)
	default:
		writeJSON(w, http.StatusInternalServerError, respFailed)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, MaxBodyBytes)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
