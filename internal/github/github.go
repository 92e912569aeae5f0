// Package github is the remote inventory side of workon: a thin client for
// the GitHub REST v3 API that materializes the authenticated user's
// repositories behind a single call, with transparent pagination, bounded
// retry and a freshness-windowed cache.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100

	// Pages after the first are fetched concurrently, bounded so a user
	// with many repos doesn't trip secondary rate limits.
	fetchConcurrency = 4

	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

// ErrRemoteUnavailable wraps any network or auth failure talking to the API.
var ErrRemoteUnavailable = errors.New("remote unavailable")

// ErrNotFound is returned for a 404 on a single-repo lookup.
var ErrNotFound = errors.New("repository not found")

// RateLimitError is returned when the API keeps throttling us after the one
// Retry-After honoring retry this client performs per call.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by GitHub, retry after %s", e.RetryAfter)
}

// RemoteRepository is an immutable snapshot of one hosted repository. It is
// never mutated after a fetch, only replaced wholesale by the next one.
type RemoteRepository struct {
	Name          string
	Owner         string
	DefaultBranch string
	Fork          bool
	Private       bool
	HTMLURL       string
	CloneURL      string
	PushedAt      time.Time
}

type repoJSON struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	DefaultBranch string    `json:"default_branch"`
	Fork          bool      `json:"fork"`
	Private       bool      `json:"private"`
	HTMLURL       string    `json:"html_url"`
	CloneURL      string    `json:"clone_url"`
	PushedAt      time.Time `json:"pushed_at"`
}

func (r repoJSON) toRepo() RemoteRepository {
	return RemoteRepository{
		Name:          r.Name,
		Owner:         r.Owner.Login,
		DefaultBranch: r.DefaultBranch,
		Fork:          r.Fork,
		Private:       r.Private,
		HTMLURL:       r.HTMLURL,
		CloneURL:      r.CloneURL,
		PushedAt:      r.PushedAt,
	}
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *expirable.LRU[string, []RemoteRepository]
	logger  *slog.Logger
}

func NewClient(token string, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   expirable.NewLRU[string, []RemoteRepository](8, nil, cacheTTL),
		logger:  logger,
	}
}

const listCacheKey = "user/repos"

// FetchAllRepos returns every repository of the authenticated user as one
// materialized slice, following the Link header pagination convention. A
// fetch within the cache freshness window is served from cache unless force
// is set.
func (c *Client) FetchAllRepos(ctx context.Context, force bool) ([]RemoteRepository, error) {
	if !force {
		if repos, ok := c.cache.Get(listCacheKey); ok {
			c.logger.Debug("serving repo list from cache", "repos", len(repos))
			return repos, nil
		}
	}

	first, lastPage, err := c.getPage(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch repos page 1: %w", err)
	}

	pages := make([][]RemoteRepository, lastPage)
	pages[0] = first

	if lastPage > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fetchConcurrency)
		for page := 2; page <= lastPage; page++ {
			g.Go(func() error {
				repos, _, err := c.getPage(gctx, page)
				if err != nil {
					return fmt.Errorf("fetch repos page %d: %w", page, err)
				}
				pages[page-1] = repos
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var repos []RemoteRepository
	for _, p := range pages {
		repos = append(repos, p...)
	}

	c.cache.Add(listCacheKey, repos)
	c.logger.Debug("fetched repo list", "repos", len(repos), "pages", lastPage)
	return repos, nil
}

// GetRepo looks up a single repository by owner and name.
func (c *Client) GetRepo(ctx context.Context, owner, name string) (*RemoteRepository, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("%s/repos/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(name)))
	if err != nil {
		return nil, fmt.Errorf("get repo %s/%s: %w", owner, name, err)
	}

	var rj repoJSON
	if err := json.Unmarshal(body, &rj); err != nil {
		return nil, fmt.Errorf("parse repo %s/%s: %w", owner, name, err)
	}
	repo := rj.toRepo()
	return &repo, nil
}

// InvalidateCache drops the cached repo list so the next fetch goes to the
// network regardless of the freshness window.
func (c *Client) InvalidateCache() {
	c.cache.Remove(listCacheKey)
}

func (c *Client) getPage(ctx context.Context, page int) ([]RemoteRepository, int, error) {
	u := fmt.Sprintf("%s/user/repos?per_page=%d&page=%d", c.baseURL, perPage, page)
	body, header, err := c.get(ctx, u)
	if err != nil {
		return nil, 0, err
	}

	var raw []repoJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("parse repo list: %w", err)
	}

	repos := make([]RemoteRepository, 0, len(raw))
	for _, rj := range raw {
		repos = append(repos, rj.toRepo())
	}

	lastPage := page
	if n, ok := parseLastPage(header.Get("Link")); ok {
		lastPage = n
	}
	return repos, lastPage, nil
}

var lastLinkRe = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)

// parseLastPage pulls the rel="last" page number out of a Link header.
func parseLastPage(link string) (int, bool) {
	m := lastLinkRe.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// get performs one authenticated GET with bounded retry. Transient failures
// (connection errors, 5xx) back off exponentially; a 429 is retried exactly
// once honoring Retry-After; all other 4xx fail immediately.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	delay := retryBaseDelay
	retried429 := false

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Debug("retrying request", "url", rawURL, "attempt", attempt)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if c.token != "" {
			req.Header.Set("Authorization", "token "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
			if attempt == maxAttempts {
				break
			}
			if err := sleep(ctx, delay); err != nil {
				return nil, nil, err
			}
			delay *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, nil, fmt.Errorf("%w: read body: %v", ErrRemoteUnavailable, readErr)
			}
			return body, resp.Header, nil

		case resp.StatusCode == http.StatusNotFound:
			return nil, nil, ErrNotFound

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			if retried429 {
				return nil, nil, &RateLimitError{RetryAfter: retryAfter}
			}
			retried429 = true
			c.logger.Warn("rate limited, honoring Retry-After", "wait", retryAfter)
			if err := sleep(ctx, retryAfter); err != nil {
				return nil, nil, err
			}
			continue

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: server returned %d", ErrRemoteUnavailable, resp.StatusCode)
			if attempt == maxAttempts {
				return nil, nil, lastErr
			}
			if err := sleep(ctx, delay); err != nil {
				return nil, nil, err
			}
			delay *= 2
			continue

		default:
			// Remaining 4xx: auth or request problems, never retried.
			return nil, nil, fmt.Errorf("%w: server returned %d", ErrRemoteUnavailable, resp.StatusCode)
		}
	}
	return nil, nil, lastErr
}

func parseRetryAfter(value string) time.Duration {
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return retryBaseDelay
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
