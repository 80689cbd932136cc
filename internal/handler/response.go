package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Yam_Community/internal/middleware"
	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

const maxUploadBytes = 10 << 20

func statusOf(err error) int {
	switch {
	case errors.Is(err, pkg.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, pkg.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkg.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pkg.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, pkg.ErrContentRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pkg.ErrValidationTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"msg": err.Error()})
}

func currentUser(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

// formFile 读取 multipart 文件，未上传时返回 nil
func formFile(c *gin.Context, field string) (*model.File, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, pkg.Invalid("read %s: %v", field, err)
	}
	if fh.Size > maxUploadBytes {
		return nil, pkg.Invalid("%s exceeds %d bytes", field, maxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, pkg.Invalid("open %s: %v", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, pkg.Invalid("read %s: %v", field, err)
	}
	return &model.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func pageQuery(c *gin.Context) model.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	return model.Page{Number: number, Size: size}.Normalize()
}
