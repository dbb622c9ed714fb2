// Package github reads repository star counts from the GitHub REST API.
// Answers are cached per repository for a fixed time, and concurrent
// lookups of the same repository share one request.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/logging"
	"github.com/devkitlanka/devkit/internal/validation"
	"github.com/devkitlanka/devkit/internal/version"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultOwner  = "senulahesara"
	DefaultRepo   = "lms"

	mediaType = "application/vnd.github+json"
)

// Stars is the envelope returned to callers. A non-success answer from
// GitHub is reported in Error with a zero count rather than as a failure.
type Stars struct {
	Count int    `json:"stargazers_count"`
	Error string `json:"error,omitempty"`
}

// Options configure a Client.
type Options struct {
	APIURL string
	// Token is sent as a bearer token when set.
	Token    string
	CacheTTL time.Duration
	Timeout  time.Duration
	Client   *http.Client
	Logger   logging.Logger
}

type cached struct {
	stars   Stars
	expires time.Time
}

// Client fetches star counts.
type Client struct {
	apiURL  string
	token   string
	ttl     time.Duration
	timeout time.Duration
	http    *http.Client
	logger  logging.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cached
	group singleflight.Group
}

// NewClient creates a client.
func NewClient(opts Options) *Client {
	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = time.Minute
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Client{
		apiURL:  apiURL,
		token:   opts.Token,
		ttl:     ttl,
		timeout: timeout,
		http:    client,
		logger:  logger.WithComponent("github"),
		now:     time.Now,
		cache:   make(map[string]cached),
	}
}

// Stars returns the star count of owner/repo. Empty names fall back to the
// defaults. Transport failures are network errors and are not cached.
func (c *Client) Stars(ctx context.Context, owner, repo string) (Stars, error) {
	if owner == "" {
		owner = DefaultOwner
	}
	if repo == "" {
		repo = DefaultRepo
	}
	if err := validation.ValidateRepoSlug("owner", owner); err != nil {
		return Stars{}, errors.WrapValidation(err, errors.ErrCodeInvalidOption, "invalid repository owner")
	}
	if err := validation.ValidateRepoSlug("repo", repo); err != nil {
		return Stars{}, errors.WrapValidation(err, errors.ErrCodeInvalidOption, "invalid repository name")
	}

	key := owner + "/" + repo
	if s, ok := c.lookup(key); ok {
		return s, nil
	}

	// The shared fetch outlives any single caller: it runs on the client
	// timeout, and each caller stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		s, err := c.fetch(shared, owner, repo)
		if err != nil {
			return Stars{}, err
		}
		c.store(key, s)

		return s, nil
	})

	select {
	case <-ctx.Done():
		return Stars{}, errors.FetchError(c.apiURL+"/repos/"+key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Stars{}, res.Err
		}

		return res.Val.(Stars), nil
	}
}

func (c *Client) lookup(key string) (Stars, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok || c.now().After(e.expires) {
		return Stars{}, false
	}

	return e.stars, true
}

func (c *Client) store(key string, s Stars) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cached{stars: s, expires: c.now().Add(c.ttl)}
}

// Purge drops every cached answer.
func (c *Client) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cached)
}

func (c *Client) fetch(ctx context.Context, owner, repo string) (Stars, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, owner, repo)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Stars{}, errors.FetchError(url, err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", version.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, err, "GitHub request failed", "repo", owner+"/"+repo)

		return Stars{}, errors.FetchError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Info(ctx, "GitHub answered with an error status", "repo", owner+"/"+repo, "status", resp.StatusCode)

		return Stars{Error: fmt.Sprintf("GitHub: %d", resp.StatusCode)}, nil
	}

	var body struct {
		StargazersCount *int `json:"stargazers_count"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Stars{}, errors.FetchError(url, err).WithHints("GitHub returned a body that is not JSON")
	}

	s := Stars{}
	if body.StargazersCount != nil {
		s.Count = *body.StargazersCount
	}
	c.logger.Debug(ctx, "Fetched star count", "repo", owner+"/"+repo, "stars", s.Count)

	return s, nil
}
