package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReceiptSource serves stored receipt bodies
type ReceiptSource interface {
	Download(ctx context.Context, key string) ([]byte, string, bool)
}

// ReceiptDownloadHandler serves receipts held by the in-memory store. With
// object storage enabled, links point at the bucket and this route is not
// mounted.
type ReceiptDownloadHandler struct {
	BaseHandler
	source ReceiptSource
}

// NewReceiptDownloadHandler creates a ReceiptDownloadHandler
func NewReceiptDownloadHandler(source ReceiptSource) *ReceiptDownloadHandler {
	return &ReceiptDownloadHandler{source: source}
}

// Download writes the receipt stored under the wildcard key.
// GET /receipts/*key
func (h *ReceiptDownloadHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		h.NotFound(c, "Receipt not found")
		return
	}
	data, contentType, ok := h.source.Download(c.Request.Context(), key)
	if !ok {
		h.NotFound(c, "Receipt not found")
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
