package api

import (
	"net/http"
	"time"

	"github.com/unblurhq/unblur/pkg/objectstore"
)

type uploadResponse struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// createUpload hands the browser a presigned PUT so image bytes go straight
// to the bucket.
func (h *handlers) createUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	key, err := objectstore.ObjectKey(identityFromContext(r.Context()), req.FileName)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}

	signed, err := h.deps.Uploads.UploadURL(r.Context(), key, req.ContentType)
	if err != nil {
		writeError(w, r, h.deps.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		URL:       signed.URL,
		Method:    signed.Method,
		Key:       signed.Key,
		ExpiresAt: signed.ExpiresAt,
	})
}
