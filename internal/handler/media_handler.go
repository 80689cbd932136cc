package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/model"
)

type MediaSource interface {
	Open(ctx context.Context, name string) (*model.File, error)
}

type MediaHandler struct {
	src MediaSource
}

func NewMediaHandler(src MediaSource) *MediaHandler {
	return &MediaHandler{src: src}
}

func (h *MediaHandler) Get(c *gin.Context) {
	f, err := h.src.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, ct, f.Data)
}
