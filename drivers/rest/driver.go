// Package rest is the device directory over the OLT management HTTP API.
package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
)

const (
	defaultHTTPTimeout = 10 * time.Second

	// RequestIDHeader carries the id every request is logged under
	RequestIDHeader = "X-Request-ID"
)

// API paths relative to the base URL
const (
	pathBoardPON    = "/api/v1/board/%d/pon/%d"
	pathONU         = "/api/v1/board/%d/pon/%d/onu/%d"
	pathUnactivated = "/api/v1/onu/unactivated"
	pathRegister    = "/api/v1/onu/register"
	pathReboot      = "/api/v1/onu/reboot"
	pathRemove      = "/api/v1/onu/remove"
)

// Driver implements types.Directory over HTTP
type Driver struct {
	baseURL *url.URL
	apiKey  string
	config  *types.DirectoryConfig
	client  *http.Client
	logger  logger.Logger
}

// Option customizes a Driver
type Option func(*Driver)

// WithLogger sets the logger requests are recorded on
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(d *Driver) { d.client = c }
}

// NewDriver creates a REST driver for config.BaseURL
func NewDriver(config *types.DirectoryConfig, opts ...Option) (*Driver, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, errors.New("base url is required")
	}

	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", config.BaseURL)
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultHTTPTimeout
	}

	d := &Driver{
		baseURL: parsed,
		apiKey:  common.MetadataStringWithDefault(config.Metadata, "", "rest_api_key"),
		config:  config,
		logger:  logger.Global(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if config.TLSSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // User-controlled
		}
		d.client = &http.Client{Timeout: config.Timeout, Transport: transport}
	}

	return d, nil
}

// envelope is the common response wrapper of the API
type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// StatusError is returned for non-2xx responses on reads
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("response status %d", e.StatusCode)
	}
	return fmt.Sprintf("response status %d: %s", e.StatusCode, e.Body)
}

func (d *Driver) endpoint(p string) string {
	u := *d.baseURL
	u.Path = path.Join(u.Path, p)
	return u.String()
}

// do sends one request and returns the status code and body
func (d *Driver) do(ctx context.Context, method, p string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.endpoint(p), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.apiKey != "" {
		req.Header.Set("X-API-Key", d.apiKey)
	}
	if d.config.Username != "" {
		req.SetBasicAuth(d.config.Username, d.config.Password)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", p).
			Err(err).
			Msg("Request failed")
		return 0, nil, fmt.Errorf("%s %s failed: %w", method, p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	d.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", p).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	return resp.StatusCode, data, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

// get reads the data member of a GET response into out
func (d *Driver) get(ctx context.Context, p string, out interface{}) error {
	status, body, err := d.do(ctx, http.MethodGet, p, nil)
	if err != nil {
		return err
	}
	if !success(status) {
		return &StatusError{StatusCode: status, Body: snippet(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// Snapshot returns the ONUs reported on a board/PON
func (d *Driver) Snapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	var devices []types.Device
	if err := d.get(ctx, fmt.Sprintf(pathBoardPON, board, pon), &devices); err != nil {
		return nil, fmt.Errorf("snapshot board %d pon %d: %w", board, pon, err)
	}
	for i := range devices {
		if devices[i].Board == 0 {
			devices[i].Board = board
		}
		if devices[i].PON == 0 {
			devices[i].PON = pon
		}
	}
	return devices, nil
}

// Detail returns the extended record of one ONU
func (d *Driver) Detail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	var detail types.DeviceDetail
	if err := d.get(ctx, fmt.Sprintf(pathONU, board, pon, onuID), &detail); err != nil {
		return nil, fmt.Errorf("detail onu %d: %w", onuID, err)
	}
	if detail.OnuID == 0 {
		detail.OnuID = onuID
	}
	if detail.Board == 0 {
		detail.Board = board
	}
	if detail.PON == 0 {
		detail.PON = pon
	}
	return &detail, nil
}

// Unactivated lists ONUs waiting for registration
func (d *Driver) Unactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	var data struct {
		DetectedONU []types.UnactivatedONU `json:"detected_onu"`
	}
	if err := d.get(ctx, pathUnactivated, &data); err != nil {
		return nil, fmt.Errorf("unactivated onus: %w", err)
	}
	return data.DetectedONU, nil
}

// post sends a command body and decodes the {code, status} reply. The reply
// code is left as sent; callers decide what counts as success.
func (d *Driver) post(ctx context.Context, p string, body interface{}) (*types.CommandResponse, int, error) {
	status, data, err := d.do(ctx, http.MethodPost, p, body)
	if err != nil {
		return nil, 0, err
	}

	resp := &types.CommandResponse{}
	var env struct {
		Code    json.RawMessage `json:"code"`
		Status  string          `json:"status"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		resp.Status = env.Status
		resp.Message = env.Message
		// some deployments send the code as a string
		if code, err := strconv.Atoi(strings.Trim(string(env.Code), `"`)); err == nil {
			resp.Code = code
		}
	} else if !success(status) {
		resp.Message = snippet(data)
	}

	if resp.Status == "" {
		resp.Status = http.StatusText(status)
	}
	return resp, status, nil
}

// Register provisions an ONU. Any 2xx reply counts as success.
func (d *Driver) Register(ctx context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
	resp, status, err := d.post(ctx, pathRegister, req)
	if err != nil {
		return nil, err
	}
	if success(status) {
		resp.Code = types.CodeOK
	} else {
		resp.Code = status
	}
	return resp, nil
}

// Reboot restarts an ONU. Only a reply code of 200 is success.
func (d *Driver) Reboot(ctx context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
	return d.command(ctx, pathReboot, req)
}

// Remove deletes an ONU. Only a reply code of 200 is success.
func (d *Driver) Remove(ctx context.Context, req *types.RemoveRequest) (*types.CommandResponse, error) {
	return d.command(ctx, pathRemove, req)
}

func (d *Driver) command(ctx context.Context, p string, body interface{}) (*types.CommandResponse, error) {
	resp, status, err := d.post(ctx, p, body)
	if err != nil {
		return nil, err
	}
	if !success(status) && resp.Code == types.CodeOK {
		// an HTTP failure cannot be overridden by the body
		resp.Code = status
	}
	return resp, nil
}

// HealthCheck verifies the API root answers
func (d *Driver) HealthCheck(ctx context.Context) error {
	status, body, err := d.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	if status >= 500 {
		return &StatusError{StatusCode: status, Body: snippet(body)}
	}
	return nil
}

// Close drops idle keep-alive connections
func (d *Driver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

var _ types.Directory = (*Driver)(nil)
