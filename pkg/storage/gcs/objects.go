package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name        string
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// ObjectStore is the blob surface consumed by receipt storage.
type ObjectStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte, metadata map[string]string) (*ObjectInfo, error)
	NewReader(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, name string) error
	ObjectKey(parts ...string) string
}

// Upload writes an object using the multipart JSON API so custom metadata
// lands in the same request as the payload.
func (c *Client) Upload(ctx context.Context, name, contentType string, data []byte, metadata map[string]string) (*ObjectInfo, error) {
	if c == nil || c.tokenSource == nil {
		return nil, errors.New("gcs client not initialized")
	}
	if name == "" {
		return nil, errors.New("object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"name":        name,
		"contentType": contentType,
	}
	if len(metadata) > 0 {
		meta["metadata"] = metadata
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, err
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, err
	}

	dataHeader := textproto.MIMEHeader{}
	dataHeader.Set("Content-Type", contentType)
	dataPart, err := writer.CreatePart(dataHeader)
	if err != nil {
		return nil, err
	}
	if _, err := dataPart.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=multipart",
		url.PathEscape(c.defaultBucket),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var uploaded struct {
		Name        string            `json:"name"`
		ContentType string            `json:"contentType"`
		Size        string            `json:"size"`
		Metadata    map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	info := &ObjectInfo{
		Name:        uploaded.Name,
		ContentType: uploaded.ContentType,
		Size:        int64(len(data)),
		Metadata:    uploaded.Metadata,
	}
	return info, nil
}

// NewReader streams the object payload via alt=media. Callers must close the
// returned reader.
func (c *Client) NewReader(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error) {
	if c == nil || c.tokenSource == nil {
		return nil, nil, errors.New("gcs client not initialized")
	}
	if name == "" {
		return nil, nil, errors.New("object name is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, nil, err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s?alt=media",
		url.PathEscape(c.defaultBucket),
		url.PathEscape(name),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("gcs download failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	info := &ObjectInfo{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	return resp.Body, info, nil
}

// Delete removes the object. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, name string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if name == "" {
		return errors.New("object name is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(c.defaultBucket),
		url.PathEscape(name),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
}

// ErrObjectNotFound is returned when a requested object does not exist.
var ErrObjectNotFound = errors.New("gcs: object not found")
