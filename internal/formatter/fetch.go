package formatter

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
	"github.com/devkitlanka/devkit/internal/validation"
	"github.com/devkitlanka/devkit/internal/version"
)

// FetchOptions configure a Fetcher.
type FetchOptions struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	Logger   logging.Logger
}

// FetchResult is a downloaded document.
type FetchResult struct {
	URL         string `json:"url"`
	Body        string `json:"body"`
	Format      Format `json:"format"`
	ContentType string `json:"contentType,omitempty"`
	Bytes       int    `json:"bytes"`
}

// Fetcher downloads remote documents into the editor. At most one request
// is outstanding: starting a new fetch cancels the one in flight.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   logging.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewFetcher creates a fetcher.
func NewFetcher(opts FetchOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Fetcher{
		client:   client,
		timeout:  timeout,
		maxBytes: opts.MaxBytes,
		logger:   logger.WithComponent("fetcher"),
	}
}

// Busy reports whether a fetch is outstanding. The fetch control stays
// disabled while it is.
func (f *Fetcher) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cancel != nil
}

// Cancel aborts the outstanding fetch, if any.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) begin(ctx context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	f.seq++
	f.cancel = cancel

	return reqCtx, f.seq
}

func (f *Fetcher) end(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seq == id && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Fetch downloads rawURL. Only http and https URLs are allowed; non-2xx
// answers and transport failures are network errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := validation.ValidateRemoteURL(rawURL); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidURL, err.Error()).
			WithSource(rawURL).
			WithHints("enter a full http:// or https:// address")
	}

	reqCtx, id := f.begin(ctx)
	defer f.end(id)

	op := logging.StartOperation(f.logger, "fetch")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.FetchError(rawURL, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		err = f.transportError(ctx, reqCtx, rawURL, err)
		op.EndWithError(ctx, err)

		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := errors.FetchStatusError("HTTP", resp.StatusCode, rawURL)
		op.EndWithError(ctx, err)

		return nil, err
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		err = f.transportError(ctx, reqCtx, rawURL, err)
		op.EndWithError(ctx, err)

		return nil, err
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, errors.InputTooLarge(int64(len(body)), f.maxBytes).WithSource(rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	text := string(body)
	op.End(ctx, "url", rawURL, "bytes", len(body))

	return &FetchResult{
		URL:         rawURL,
		Body:        text,
		Format:      formatFromContentType(contentType, text),
		ContentType: contentType,
		Bytes:       len(body),
	}, nil
}

func (f *Fetcher) transportError(parent, reqCtx context.Context, rawURL string, err error) error {
	switch {
	case parent.Err() == nil && stderrors.Is(reqCtx.Err(), context.Canceled):
		return errors.NewNetworkError(errors.ErrCodeFetchCanceled,
			"fetch canceled", err).WithHints("a newer fetch replaces the one in flight").WithSource(rawURL)
	case stderrors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return errors.NewNetworkError(errors.ErrCodeFetchFailed,
			fmt.Sprintf("fetch timed out after %s", f.timeout), err).WithSource(rawURL)
	}

	return errors.FetchError(rawURL, err)
}

func formatFromContentType(contentType, body string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return JSON
	case strings.Contains(ct, "yaml"):
		return YAML
	}

	return Detect(body)
}
