package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"reefing/src/app"
)

// multipart framing allowance on top of the file payloads
const formOverhead = 1 << 20

// formFiles reads the multipart body and returns the files sent under any of fields.
// The body is capped so that at most maxFiles files of the allowed size fit.
func (a *AppHandler) formFiles(c *gin.Context, maxFiles int, fields ...string) ([]*multipart.FileHeader, error) {
	limit := int64(maxFiles)*a.upload.MaxFileSize + formOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, app.UploadRejected(fmt.Sprintf("File must be %s or smaller", humanize.IBytes(uint64(a.upload.MaxFileSize))))
		}
		return nil, app.Invalid("No file uploaded")
	}

	var files []*multipart.FileHeader
	for _, field := range fields {
		files = append(files, form.File[field]...)
	}
	if len(files) == 0 {
		return nil, app.Invalid("No file uploaded")
	}
	if len(files) > maxFiles {
		return nil, app.UploadRejected(fmt.Sprintf("At most %d files can be uploaded at once", maxFiles))
	}
	return files, nil
}

// prepareUploads validates every file before any of them is stored.
func (a *AppHandler) prepareUploads(files []*multipart.FileHeader, kind, id string) ([]app.Upload, error) {
	now := a.now()
	uploads := make([]app.Upload, 0, len(files))
	for _, f := range files {
		up, err := app.PrepareUpload(kind, id, f, a.upload.MaxFileSize, now)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func (a *AppHandler) singleUpload(c *gin.Context, field, kind, id string) (app.Upload, error) {
	files, err := a.formFiles(c, 1, field)
	if err != nil {
		return app.Upload{}, err
	}
	uploads, err := a.prepareUploads(files, kind, id)
	if err != nil {
		return app.Upload{}, err
	}
	return uploads[0], nil
}
