package httpinfra

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"kilometers.ai/shop/internal/core/domain"
)

// encodeBody turns a request payload into a reader and content type.
// GET and DELETE never carry a body.
func encodeBody(method string, payload interface{}) (io.Reader, string, error) {
	if payload == nil || method == http.MethodGet || method == http.MethodDelete {
		return nil, "", nil
	}

	switch p := payload.(type) {
	case *domain.MultipartForm:
		return encodeMultipart(p)
	case domain.MultipartForm:
		return encodeMultipart(&p)
	case json.RawMessage:
		return bytes.NewReader(p), "application/json", nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

func encodeMultipart(form *domain.MultipartForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("field %s: %w", f.Name, err)
		}
	}

	for _, file := range form.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = http.DetectContentType(file.Content)
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %s: %w", file.Filename, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("file %s: %w", file.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
