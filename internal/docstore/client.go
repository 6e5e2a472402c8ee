package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"attendhub/internal/metrics"
)

// Client calls the managed record store over HTTP. The store owns every
// collection; this client is a passthrough and holds no state.
type Client struct {
	BaseURL string
	Project string
	APIKey  string
	HTTP    *http.Client
}

// New creates a client for one store project.
func New(baseURL, project, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		Project: project,
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ListDocuments fetches every document of a collection. The store answers
// with either a bare JSON array or a {"total": n, "documents": [...]}
// envelope; both are normalized here so callers see one shape.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, c.collectionPath(collection), nil)
	metrics.StoreRequests.WithLabelValues(collection, "list", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return normalizeList(body)
}

// CreateDocument writes a new document and returns the stored form.
func (c *Client) CreateDocument(ctx context.Context, collection, id string, doc any) (json.RawMessage, error) {
	payload := struct {
		ID   string `json:"id,omitempty"`
		Data any    `json:"data"`
	}{ID: id, Data: doc}
	body, err := c.do(ctx, http.MethodPost, c.collectionPath(collection), payload)
	metrics.StoreRequests.WithLabelValues(collection, "create", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// UpdateDocument replaces the data of an existing document by id.
func (c *Client) UpdateDocument(ctx context.Context, collection, id string, doc any) (json.RawMessage, error) {
	payload := struct {
		Data any `json:"data"`
	}{Data: doc}
	body, err := c.do(ctx, http.MethodPatch, c.documentPath(collection, id), payload)
	metrics.StoreRequests.WithLabelValues(collection, "update", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// DeleteDocument removes a document by id.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.documentPath(collection, id), nil)
	metrics.StoreRequests.WithLabelValues(collection, "delete", outcome(err)).Inc()
	return err
}

// Healthy reports whether the store answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.do(ctx, http.MethodGet, "/v1/health", nil)
	return err == nil
}

func (c *Client) collectionPath(collection string) string {
	return "/v1/collections/" + collection + "/documents"
}

func (c *Client) documentPath(collection, id string) string {
	return c.collectionPath(collection) + "/" + id
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Store-Project", c.Project)
	if c.APIKey != "" {
		req.Header.Set("X-Store-Key", c.APIKey)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("record store read failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("record store error %s: %s", resp.Status, string(body))
	}
	return body, nil
}

// normalizeList accepts both list shapes the store produces.
func normalizeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []json.RawMessage
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return docs, nil
	}
	var envelope struct {
		Total     int               `json:"total"`
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode list envelope: %w", err)
	}
	return envelope.Documents, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
