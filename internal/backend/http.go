package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// part is one multipart field. A file part has a filename.
type part struct {
	field    string
	filename string
	value    []byte
}

func formField(field, value string) part {
	return part{field: field, value: []byte(value)}
}

func jpegFile(field, filename string, data []byte) part {
	return part{field: field, filename: filename, value: data}
}

// doMultipart posts the parts as multipart/form-data and returns the body of
// a 2xx response. Everything else is a *TransportError.
func (c *Client) doMultipart(ctx context.Context, op, endpoint string, parts ...part) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, p := range parts {
		var w io.Writer
		var err error
		if p.filename != "" {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
			h.Set("Content-Type", "image/jpeg")
			w, err = writer.CreatePart(h)
		} else {
			w, err = writer.CreateFormField(p.field)
		}
		if err != nil {
			return nil, fmt.Errorf("could not create form field %s: %w", p.field, err)
		}
		if _, err := w.Write(p.value); err != nil {
			return nil, fmt.Errorf("could not write form field %s: %w", p.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint, nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(op, req)
}

// doPost sends a POST without a body.
func (c *Client) doPost(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("could not read response body: %w", err)}
	}

	c.logger.Debug("backend response", "op", op, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}
