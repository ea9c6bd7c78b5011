// Package photo fetches product photos and places them into a card's photo
// box.
//
// The pieces are independent: [Fetcher] downloads (and caches) raw bytes,
// [RemoveBackground] makes a chroma-key color transparent, and [Place]
// scales and centers the result inside the configured box. A failure at any
// step leaves the card untouched; the caller decides how to report it.
package photo

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/cardforge/pkg/cache"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/observability"
)

const (
	// DefaultTimeout bounds one photo download.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent with every download; some image hosts reject
	// requests without a browser-like agent.
	DefaultUserAgent = "Mozilla/5.0"

	// MaxPhotoBytes caps the size of a downloaded payload.
	MaxPhotoBytes = 32 << 20
)

// Fetcher downloads photo payloads over HTTP(S). It never retries. Payloads
// are cached by URL, and concurrent requests for the same URL share one
// download. A Fetcher is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	cache     cache.Cache
	userAgent string
	logger    *log.Logger
	group     singleflight.Group
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client. Its Timeout is kept as is.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// NewFetcher creates a fetcher. A nil cache disables caching and a nil
// logger discards output.
func NewFetcher(c cache.Cache, logger *log.Logger, opts ...FetcherOption) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		cache:     c,
		userAgent: DefaultUserAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the payload at rawURL. Errors carry INVALID_URL,
// NETWORK_ERROR or TIMEOUT codes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	key := cache.PhotoKey(rawURL)
	if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "photo")
		f.logger.Debug("photo cache hit", "url", rawURL)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "photo")

	v, err, _ := f.group.Do(rawURL, func() (any, error) {
		return f.download(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte)

	if err := f.cache.Set(ctx, key, data, cache.TTLPhoto); err != nil {
		f.logger.Debug("photo cache write failed", "url", rawURL, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "photo", len(data))
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidURL, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	u := req.URL
	hooks := observability.HTTP()

	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if isTimeout(err) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", rawURL)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", rawURL)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPhotoBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "read %s", rawURL)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL)
	}
	if len(data) > MaxPhotoBytes {
		return nil, errors.New(errors.ErrCodeNetwork, "fetch %s: payload exceeds %d bytes", rawURL, MaxPhotoBytes)
	}
	f.logger.Debug("photo downloaded", "url", rawURL, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func isTimeout(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err)
}
