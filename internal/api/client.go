// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zonekit/deliveryzones/internal/model"
)

// DefaultTimeout bounds every request when New gets zero.
const DefaultTimeout = 30 * time.Second

const zonesPath = "/api/delivery-zones"

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response. Detail is the server's own message,
// empty when the body carried none.
type ServerError struct {
	Op     string
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
}

// Client talks to the delivery-zone HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Init satisfies the storage lifecycle; the remote service needs no setup.
func (c *Client) Init(ctx context.Context) error {
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetCenter fetches the service center.
func (c *Client) GetCenter(ctx context.Context) (model.Center, error) {
	var center model.Center
	err := c.do(ctx, "get center", http.MethodGet, zonesPath+"/center/info", nil, &center)
	return center, err
}

// UpdateCenter persists a new service center. Radius zone geometry on the
// server stays stale until RecalculateAll runs.
func (c *Client) UpdateCenter(ctx context.Context, center model.Center) (model.Center, error) {
	var out model.Center
	err := c.do(ctx, "update center", http.MethodPut, zonesPath+"/center/info", center, &out)
	return out, err
}

// RecalculateAll asks the server to rebuild radius zone geometry around the
// current center.
func (c *Client) RecalculateAll(ctx context.Context) (model.RecalcResult, error) {
	var res model.RecalcResult
	err := c.do(ctx, "recalculate zones", http.MethodPost, zonesPath+"/recalculate-all", nil, &res)
	return res, err
}

// ListZones fetches every zone ordered by priority.
func (c *Client) ListZones(ctx context.Context) ([]model.Zone, error) {
	var zones []model.Zone
	if err := c.do(ctx, "list zones", http.MethodGet, zonesPath+"/", nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// CreateZone persists a new zone.
func (c *Client) CreateZone(ctx context.Context, d model.ZoneDraft) (model.Zone, error) {
	var z model.Zone
	err := c.do(ctx, "create zone", http.MethodPost, zonesPath+"/", d, &z)
	return z, err
}

// UpdateZone replaces an existing zone.
func (c *Client) UpdateZone(ctx context.Context, id string, d model.ZoneDraft) (model.Zone, error) {
	var z model.Zone
	err := c.do(ctx, "update zone", http.MethodPut, zonesPath+"/"+url.PathEscape(id), d, &z)
	return z, err
}

// DeleteZone removes a zone.
func (c *Client) DeleteZone(ctx context.Context, id string) error {
	return c.do(ctx, "delete zone", http.MethodDelete, zonesPath+"/"+url.PathEscape(id), nil, nil)
}

// ClassifyPoint asks which zone, if any, serves the point.
func (c *Client) ClassifyPoint(ctx context.Context, lat, lng float64) (model.Classification, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var res model.Classification
	err := c.do(ctx, "classify point", http.MethodPost, zonesPath+"/detect-coordinates?"+q.Encode(), nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, Status: resp.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// errorDetail extracts the "detail" field of an error body. Request
// validation failures carry a list of {msg} objects instead of a string.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
