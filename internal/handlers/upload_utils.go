package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadSize = 25 << 20

var errNoFile = errors.New("file is required")

// uploadedFile is one multipart file read fully into memory.
type uploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// readUploadedFile reads the first file found under any of keys.
func readUploadedFile(w http.ResponseWriter, r *http.Request, keys ...string) (uploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return uploadedFile{}, fmt.Errorf("parse multipart form: %w", err)
	}
	headers := collectFiles(r.MultipartForm, keys...)
	if len(headers) == 0 {
		return uploadedFile{}, errNoFile
	}
	fh := headers[0]
	if fh.Size > maxUploadSize {
		return uploadedFile{}, fmt.Errorf("file %q exceeds 25MB", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return uploadedFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return uploadedFile{}, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return uploadedFile{
		Name:        sanitizeFileName(fh.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func collectFiles(form *multipart.Form, keys ...string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	var result []*multipart.FileHeader
	for _, key := range keys {
		if headers, ok := form.File[key]; ok {
			result = append(result, headers...)
		}
	}
	return result
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
