package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fluentnow/fluentnow-api/internal/speech"
	"github.com/fluentnow/fluentnow-api/internal/tts"
)

const maxSynthesisBody = 1 << 20

type AudioHandler struct {
	svc *speech.Service
}

func NewAudioHandler(svc *speech.Service) *AudioHandler {
	return &AudioHandler{svc: svc}
}

// Generate handles POST /generate-audio: it relays the synthesized audio
// bytes untouched, or the upstream status and body when the provider refused.
func (h *AudioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSynthesisBody)

	req, err := speech.DecodeRequest(r.Body)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		slog.Warn("write audio response", "error", err)
	}
}

func (h *AudioHandler) writeFailure(w http.ResponseWriter, err error) {
	var valErr *speech.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, valErr.Message)
		return
	}

	var upErr *tts.UpstreamError
	if errors.As(err, &upErr) {
		writeError(w, upErr.Status, upErr.Body)
		return
	}

	slog.Error("audio generation failed", "provider", h.svc.ProviderName(), "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error: "+err.Error())
}
