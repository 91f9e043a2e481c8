// Package backend is the HTTP client for the underwriting API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/model"
	"github.com/Veraticus/proforma/internal/service"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client talks to the underwriting API. It never retries: a failed
// generation request is reported to the caller as is.
type Client struct {
	http *resty.Client
	// files fetches absolute URLs from model payloads. It carries no
	// credentials.
	files  *resty.Client
	logger *slog.Logger
}

var (
	_ service.SensitivityBackend = (*Client)(nil)
	_ service.ModelSource        = (*Client)(nil)
)

// New creates a client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	files := resty.New().SetTimeout(opts.Timeout)

	return &Client{http: client, files: files, logger: opts.Logger}
}

// RequestSensitivity posts a generation request. A 202, or a 200 whose body
// says the tables are generating, is reported as pending.
func (c *Client) RequestSensitivity(ctx context.Context, req service.SensitivityRequest) (*service.SensitivityResponse, error) {
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "version_id", req.VersionID)

	logger.Debug("requesting sensitivity tables",
		"max_price", req.MaxPrice,
		"min_cap_rate", req.MinCapRate)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		SetBody(req).
		Post("/sensitivity-analysis")
	if err != nil {
		logger.Warn("sensitivity request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}

	out := &service.SensitivityResponse{StatusCode: resp.StatusCode()}
	if resp.StatusCode() == http.StatusAccepted {
		logger.Debug("sensitivity generation accepted")
		out.Pending = true
		return out, nil
	}
	if resp.IsError() {
		logger.Warn("sensitivity request rejected", "status_code", resp.StatusCode())
		return nil, fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode())
	}

	var payload model.SensitivityTablesPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidPayload, err)
	}

	switch {
	case payload.Complete():
		out.Payload = &payload
	case payload.Generating():
		out.Pending = true
		out.Payload = &payload
	default:
		return nil, fmt.Errorf("%w: response has neither tables nor a generating status", common.ErrInvalidPayload)
	}
	return out, nil
}

// GetModel fetches a model version.
func (c *Client) GetModel(ctx context.Context, ref service.ModelRef) (*model.Model, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetPathParam("id", ref.ModelID)
	if ref.VersionID != "" {
		r.SetQueryParam("version_id", ref.VersionID)
	}

	resp, err := r.Get("/user_models/{id}")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("model %s: %w", ref.ModelID, common.ErrNotFound)
	case resp.IsError():
		return nil, fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode())
	}

	var m model.Model
	if err := json.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidPayload, err)
	}
	return &m, nil
}

// FetchSensitivity re-reads a model version and returns its embedded
// sensitivity payload, or nil when there is none.
func (c *Client) FetchSensitivity(ctx context.Context, ref service.ModelRef) (*model.SensitivityTablesPayload, error) {
	m, err := c.GetModel(ctx, ref)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.Sensitivity(), nil
}

type noteRecord struct {
	NoteValue string `json:"note_value"`
}

// GetNotes returns the model's active notes in order, skipping blank ones.
func (c *Client) GetNotes(ctx context.Context, modelID string) ([]string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetPathParam("id", modelID).
		Get("/user_models/{id}/notes")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode())
	}

	var records []noteRecord
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidPayload, err)
	}
	notes := make([]string, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.NoteValue) != "" {
			notes = append(notes, r.NoteValue)
		}
	}
	return notes, nil
}

// Download fetches an absolute URL such as a property picture and returns
// the body with its content type. The API token is not sent.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.files.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("%w: download %s: status %d", common.ErrRemoteUnavailable, url, resp.StatusCode())
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}
