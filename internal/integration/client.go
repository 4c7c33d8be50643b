package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/rs/zerolog"
)

const OperationHeader = "X-Operation-ID"

var ErrMalformedResponse = errors.New("malformed backend response")

// StatusError - ответ backend с неуспешным статусом. Message берется из поля error, если оно есть.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// BackendClient - контракт backend-сервиса анализа. Потоковые операции возвращают
// тело ответа text/event-stream, его читает канал прогресса.
type BackendClient interface {
	Upload(ctx context.Context, opID string, files []models.SelectedFile) (io.ReadCloser, error)
	Analyze(ctx context.Context, opID string, req models.AnalyzeRequest) (io.ReadCloser, error)
	Compare(ctx context.Context, opID string, req models.CompareRequest) (*models.CompareResponse, error)
	Converse(ctx context.Context, opID string, req models.ConverseRequest) (*models.ConverseResponse, error)
	Cleanup(ctx context.Context, opID string, req models.CleanupRequest) (*models.CleanupResponse, error)
	ReportURL(sessionID string) string
	DownloadReport(ctx context.Context, opID, sessionID string) (io.ReadCloser, int64, error)
}

type backendClient struct {
	baseURL string
	// stream без Timeout: длительность потока ограничивает канал прогресса
	stream *http.Client
	client *http.Client
	logger zerolog.Logger
}

func NewBackendClient(baseURL string, timeout time.Duration, logger zerolog.Logger) BackendClient {
	return &backendClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		stream:  &http.Client{},
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *backendClient) Upload(ctx context.Context, opID string, files []models.SelectedFile) (io.ReadCloser, error) {
	// Создаем multipart запрос
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		if err := writePart(writer, f); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug().
		Str("operation_id", opID).
		Int("files", len(files)).
		Int("bytes", buf.Len()).
		Msg("Sending upload batch")

	return c.openStream(req, opID)
}

func writePart(writer *multipart.Writer, f models.SelectedFile) error {
	part, err := writer.CreateFormFile("files[]", f.Name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return nil
}

func (c *backendClient) Analyze(ctx context.Context, opID string, body models.AnalyzeRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.openStream(req, opID)
}

func (c *backendClient) openStream(req *http.Request, opID string) (io.ReadCloser, error) {
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(OperationHeader, opID)

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}

func (c *backendClient) Compare(ctx context.Context, opID string, req models.CompareRequest) (*models.CompareResponse, error) {
	var out models.CompareResponse
	if err := c.postJSON(ctx, opID, "/compare", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *backendClient) Converse(ctx context.Context, opID string, req models.ConverseRequest) (*models.ConverseResponse, error) {
	var out models.ConverseResponse
	if err := c.postJSON(ctx, opID, "/converse", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *backendClient) Cleanup(ctx context.Context, opID string, req models.CleanupRequest) (*models.CleanupResponse, error) {
	var out models.CleanupResponse
	if err := c.postJSON(ctx, opID, "/cleanup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postJSON разбирает тело и при ошибочном статусе: backend кладет текст ошибки в поле error.
func (c *backendClient) postJSON(ctx context.Context, opID, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OperationHeader, opID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("operation_id", opID).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend response")

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &StatusError{Code: resp.StatusCode}
		}
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *backendClient) ReportURL(sessionID string) string {
	return c.baseURL + "/download/" + url.PathEscape(sessionID)
}

func (c *backendClient) DownloadReport(ctx context.Context, opID, sessionID string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReportURL(sessionID), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(OperationHeader, opID)

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download report: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, 0, statusError(resp)
	}
	return resp.Body, resp.ContentLength, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
