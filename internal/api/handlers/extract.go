package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/fluentnow/fluentnow-api/pkg/textextract"
)

const maxUploadSize = 32 << 20

type ExtractHandler struct{}

func NewExtractHandler() *ExtractHandler {
	return &ExtractHandler{}
}

type extractResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Type  string `json:"type"`
}

// Extract handles POST /extract-text with a multipart "file" field.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	fileType := textextract.DetectType(header.Header.Get("Content-Type"), filepath.Ext(header.Filename))

	result, err := textextract.Extract(file, header.Size, fileType)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedType) {
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Text:  result.Content,
		Pages: result.Pages,
		Type:  result.Metadata["type"],
	})
}
