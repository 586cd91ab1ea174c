package dispatch

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/pkg/errors"
)

// File is one file part of a multipart upload.
type File struct {
	Field       string // Form field name
	Name        string // File name reported to the server
	ContentType string // Defaults to application/octet-stream
	Content     []byte
}

// PostMultipart uploads fields and files as multipart/form-data with the same
// token, timeout and retry rules as Execute.
func (d *Dispatcher) PostMultipart(ctx context.Context, path string, fields map[string]string, files []File, options ...RequestOption) (*Result, error) {
	payload, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		apiErr := apierror.API(0, "The upload could not be prepared.", nil)
		apiErr.Err = err
		return nil, apiErr
	}

	req, err := d.prepare(http.MethodPost, path, payload, options)
	if err != nil {
		return nil, err
	}
	req.header.Set(headerContentType, contentType)

	return d.do(ctx, req, 0)
}

func encodeMultipart(fields map[string]string, files []File) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] field %s", key)
		}
	}

	for _, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", multipartDisposition(file.Field, file.Name))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] file %s", file.Name)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", errors.Wrapf(err, "[encodeMultipart] file %s", file.Name)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "[encodeMultipart] close")
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func multipartDisposition(field, name string) string {
	return `form-data; name="` + escapeQuotes(field) + `"; filename="` + escapeQuotes(name) + `"`
}

func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		if r == '\\' || r == '"' {
			buf.WriteByte('\\')
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
