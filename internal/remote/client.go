package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const maxErrorBody = 64 * 1024

// System is the client for the remote analysis backend. Every call runs under its
// own timeout; network failures and timeouts are reported as ErrTransport, non-2xx
// responses as *ServerError.
type System interface {
	Upload(ctx context.Context, files []File) (*UploadResult, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)
	GenerateInsight(ctx context.Context, datasetID, input string) (string, error)
	Predict(ctx context.Context, lead LeadInput) (*Prediction, error)
}

// Options configures the backend client.
type Options struct {
	BaseURL        string
	UploadPath     string
	DatasetsPath   string
	InsightPath    string
	PredictPath    string
	ListTimeout    time.Duration
	UploadTimeout  time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

type client struct {
	opts   Options
	http   *http.Client
	logger *slog.Logger
}

// New creates a backend client.
func New(opts Options, logger *slog.Logger) System {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &client{
		opts:   opts,
		http:   hc,
		logger: logger.With("system", "remote"),
	}
}

func (c *client) Upload(ctx context.Context, files []File) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrValidation)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var body struct {
		DatasetID        any    `json:"dataset_id"`
		Status           string `json:"status"`
		RecordsProcessed *int   `json:"records_processed"`
	}
	err := c.do(ctx, c.opts.UploadTimeout, http.MethodPost, c.opts.UploadPath, mw.FormDataContentType(), &buf, &body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("files uploaded", "count", len(files), "dataset_id", body.DatasetID)

	return &UploadResult{
		DatasetID:        stringify(body.DatasetID),
		Status:           body.Status,
		RecordsProcessed: body.RecordsProcessed,
	}, nil
}

func (c *client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var raw json.RawMessage
	err := c.do(ctx, c.opts.ListTimeout, http.MethodGet, c.opts.DatasetsPath, "", nil, &raw)
	if err != nil {
		return nil, err
	}
	return decodeDatasets(raw)
}

func (c *client) GenerateInsight(ctx context.Context, datasetID, input string) (string, error) {
	if datasetID == "" {
		return "", fmt.Errorf("%w: dataset id required", ErrValidation)
	}
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: input required", ErrValidation)
	}

	payload, err := json.Marshal(map[string]string{
		"dataset_id": datasetID,
		"input":      input,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var body struct {
		Insight  string `json:"insight"`
		Response string `json:"response"`
	}
	if err := c.do(ctx, c.opts.RequestTimeout, http.MethodPost, c.opts.InsightPath, "application/json", bytes.NewReader(payload), &body); err != nil {
		return "", err
	}

	if body.Insight != "" {
		return body.Insight, nil
	}
	return body.Response, nil
}

func (c *client) Predict(ctx context.Context, lead LeadInput) (*Prediction, error) {
	if strings.TrimSpace(lead.LeadName) == "" || strings.TrimSpace(lead.Company) == "" {
		return nil, fmt.Errorf("%w: lead_name and company required", ErrValidation)
	}

	payload, err := json.Marshal(lead)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var body struct {
		LeadScore      float64 `json:"lead_score"`
		Classification string  `json:"classification"`
		GPTSummary     string  `json:"gpt_summary"`
	}
	if err := c.do(ctx, c.opts.RequestTimeout, http.MethodPost, c.opts.PredictPath, "application/json", bytes.NewReader(payload), &body); err != nil {
		return nil, err
	}

	return &Prediction{
		LeadScore:      clampScore(body.LeadScore),
		Classification: body.Classification,
		GPTSummary:     body.GPTSummary,
	}, nil
}

func (c *client) do(ctx context.Context, timeout time.Duration, method, path, contentType string, body io.Reader, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(ctx, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &ServerError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.Status),
		}
		c.logger.Warn("remote request failed", "method", method, "path", path, "status", resp.StatusCode, "error", serr.Message)
		return serr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classify(ctx, method, path, err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// classify separates caller cancellation from transport failures. A cancelled
// caller context is returned as-is so a superseded operation is not mistaken for an
// unreachable backend.
func (c *client) classify(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, context.Canceled)
	}
	c.logger.Warn("remote unreachable", "method", method, "path", path, "error", err)
	return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
}

// errorMessage extracts the most specific message available from an error body:
// a detail, message or error field, then the raw body, then the status line.
func errorMessage(body []byte, status string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return status
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				if s != "" {
					return s
				}
				continue
			}
			if v := strings.TrimSpace(string(raw)); v != "" && v != "null" {
				return v
			}
		}
	}

	return string(trimmed)
}

func stringify(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

func clampScore(v float64) int {
	score := int(v + 0.5)
	return max(0, min(score, 100))
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
