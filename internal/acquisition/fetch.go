package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gruppe-adler/landscape-utils/internal/progress"
)

// Errors reported by acquisitions and the scheduler
var (
	ErrNetwork           = errors.New("download connection failure")
	ErrTimeout           = errors.New("download time-out")
	ErrUserCancelled     = progress.ErrUserCancelled
	ErrIncompleteTileSet = errors.New("could not download all necessary elevation model files")
)

// Fetcher issues a single request for the resource at url. Implementations
// must abort the request when ctx is done.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch implements Fetcher
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// HTTPFetcher fetches tiles with GET requests. Identical requests running at
// the same time, e.g. from two jobs sharing tiles, are only sent once. A
// shared request outlives a cancelled caller as long as anyone else waits
// for it, and is aborted when the last waiter leaves.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string

	// Timeout bounds a shared request, callers are still bound by their own context
	Timeout time.Duration

	inflight singleflight.Group

	mu       sync.Mutex
	requests map[string]*sharedRequest
}

type sharedRequest struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewHTTPFetcher creates a fetcher with a client tuned for many small downloads from one host
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   32,
				MaxConnsPerHost:       32,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		UserAgent: userAgent,
	}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	shared := f.join(ctx, url)
	defer f.leave(url, shared)

	ch := f.inflight.DoChan(url, func() (interface{}, error) {
		return f.get(shared.ctx, url)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *HTTPFetcher) join(ctx context.Context, url string) *sharedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.requests == nil {
		f.requests = make(map[string]*sharedRequest)
	}

	r, ok := f.requests[url]
	if !ok {
		timeout := f.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		r = &sharedRequest{ctx: sharedCtx, cancel: cancel}
		f.requests[url] = r
	}
	r.waiters++
	return r
}

func (f *HTTPFetcher) leave(url string, r *sharedRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r.waiters--
	if r.waiters > 0 {
		return
	}

	r.cancel()
	if f.requests[url] == r {
		delete(f.requests, url)
	}
	// later callers must not join a request that was just aborted
	f.inflight.Forget(url)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrNetwork, url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNetwork, url, err)
	}

	return data, nil
}
