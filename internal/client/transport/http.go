package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/logging"
)

const (
	requestTimeout = 12 * time.Second
	retryAttempts  = 2
	retryBase      = 200 * time.Millisecond
)

// HTTPClient talks JSON and raw bytes to the storage server over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	token   string
}

// NewHTTPClient builds a client for the given server base URL, e.g.
// "https://vault.example.com".
func NewHTTPClient(baseURL string, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// no client-level timeout: it would cut off long streaming
		// transfers; per-call contexts bound the JSON endpoints
		http: &http.Client{},
		log:  log,
	}
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// checkStatus maps a response status onto the tri-state outcome.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, readServerReason(resp.Body))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &Rejection{Reason: readServerReason(resp.Body)}
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

// readServerReason extracts the error message the server sends with
// non-2xx responses, either {"error": "..."} or plain text.
func readServerReason(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return "request rejected"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

// doJSON performs a bounded request and decodes the JSON response into v
// (which may be nil).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, reqBody, v any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return nil
}

// getJSONRetried wraps doJSON for idempotent reads with a short Fibonacci
// backoff. Only transport failures are retried; rejections and auth errors
// pass through immediately.
func (c *HTTPClient) getJSONRetried(ctx context.Context, path string, query url.Values, v any) error {
	backoff := retry.WithMaxRetries(retryAttempts, retry.NewFibonacci(retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doJSON(ctx, http.MethodGet, path, query, nil, v)
		if errors.Is(err, ErrUnavailable) {
			c.log.Warn(ctx, "retryable transport failure", "path", path, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", nil, payload, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *HTTPClient) GetEncryptionParameters(ctx context.Context) (*Parameters, error) {
	var wire struct {
		IV           string `json:"iv"`
		Salt         string `json:"salt"`
		EncryptedKey string `json:"encryptedKey"`
	}
	if err := c.getJSONRetried(ctx, "/api/params", nil, &wire); err != nil {
		return nil, err
	}
	// iv and salt are fixed-length strings coerced to bytes
	return &Parameters{
		IV:           []byte(wire.IV),
		Salt:         []byte(wire.Salt),
		EncryptedKey: wire.EncryptedKey,
	}, nil
}

func (c *HTTPClient) ListDirectory(ctx context.Context, path string) ([]models.ListEntry, error) {
	var entries []models.ListEntry
	if err := c.getJSONRetried(ctx, "/api/list", url.Values{"path": {path}}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) PathExists(ctx context.Context, path string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.getJSONRetried(ctx, "/api/exists", url.Values{"path": {path}}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (c *HTTPClient) GetFileStream(ctx context.Context, path string, onProgress ProgressFunc) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/file", url.Values{"path": {path}}, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &progressReadCloser{
		progressReader: progressReader{r: resp.Body, total: resp.ContentLength, onProgress: onProgress},
		close:          resp.Body.Close,
	}, nil
}

func (c *HTTPClient) CreateDirectory(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/mkdir", nil, map[string]string{"path": path}, nil)
}

func (c *HTTPClient) CreateFile(ctx context.Context, path string, content io.Reader, size int64, mimeType string, onProgress ProgressFunc) error {
	body := &progressReader{r: content, total: size, onProgress: onProgress}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", url.Values{"path": {path}}, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *HTTPClient) DeleteItem(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/item", url.Values{"path": {path}}, nil, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	onProgress  ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.transferred, p.total)
		}
	}
	return n, err
}

type progressReadCloser struct {
	progressReader
	close func() error
}

func (p *progressReadCloser) Close() error {
	return p.close()
}
