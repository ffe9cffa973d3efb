package httpserver

import (
	"mime/multipart"

	"github.com/labstack/echo/v4"
)

type upload struct {
	multipart.File
	Filename    string
	ContentType string
	Size        int64
}

// openUpload opens the multipart "file" field. Callers must Close it.
func openUpload(c echo.Context) (*upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &upload{
		File:        f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
	}, nil
}
