// internal/adapters/steam/client.go
package steam

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"steam_reviews/internal/domain"
)

const maxAttempts = 4

// Client talks to the Steam appreviews endpoint. All failures surface as
// *domain.FetchError after the retry budget is spent.
type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	pageSize int
}

func New(base string, pageSize, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		pageSize: pageSize,
	}, nil
}

// ---- wire payloads ----

type reviewsPayload struct {
	Success      int             `json:"success"`
	Cursor       string          `json:"cursor"`
	QuerySummary summaryPayload  `json:"query_summary"`
	Reviews      []reviewPayload `json:"reviews"`
}

type summaryPayload struct {
	TotalReviews  int `json:"total_reviews"`
	TotalPositive int `json:"total_positive"`
	TotalNegative int `json:"total_negative"`
}

type reviewPayload struct {
	Review           string `json:"review"`
	VotesUp          *int64 `json:"votes_up"`
	TimestampCreated int64  `json:"timestamp_created"`
	Author           struct {
		PlaytimeLastTwoWeeks int64 `json:"playtime_last_two_weeks"`
	} `json:"author"`
}

// ---- Public API ----

// Summary fetches the upstream review counts for a game without paging.
func (c *Client) Summary(ctx context.Context, appID int64) (domain.ReviewSummary, error) {
	u := fmt.Sprintf("%s/appreviews/%d?json=1", c.base, appID)
	var out reviewsPayload
	if err := c.get(ctx, u, &out); err != nil {
		return domain.ReviewSummary{}, &domain.FetchError{AppID: appID, Err: err}
	}
	return domain.ReviewSummary{
		Total:    out.QuerySummary.TotalReviews,
		Positive: out.QuerySummary.TotalPositive,
		Negative: out.QuerySummary.TotalNegative,
	}, nil
}

// ReviewsPage fetches one page of reviews for a game. The cursor is opaque
// and URL-escaped verbatim; an empty entry list is a valid page.
func (c *Client) ReviewsPage(ctx context.Context, appID int64, cursor string) (domain.ReviewPage, error) {
	if cursor == "" {
		cursor = domain.FirstCursor
	}
	u := fmt.Sprintf("%s/appreviews/%d?json=1&language=english&filter=recent&num_per_page=%d&cursor=%s",
		c.base, appID, c.pageSize, url.QueryEscape(cursor))

	var out reviewsPayload
	if err := c.get(ctx, u, &out); err != nil {
		return domain.ReviewPage{}, &domain.FetchError{AppID: appID, Cursor: cursor, Err: err}
	}
	if out.Success != 1 {
		return domain.ReviewPage{}, &domain.FetchError{
			AppID: appID, Cursor: cursor,
			Err: fmt.Errorf("upstream success=%d", out.Success),
		}
	}

	page := domain.ReviewPage{NextCursor: out.Cursor}
	for _, rv := range out.Reviews {
		page.Entries = append(page.Entries, domain.RawReviewEntry{
			Text:             rv.Review,
			VotesUp:          rv.VotesUp,
			TimestampCreated: rv.TimestampCreated,
			PlaytimeLast2W:   rv.Author.PlaytimeLastTwoWeeks,
		})
	}
	return page, nil
}

// ---- Internals ----

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "steam-reviews/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("malformed payload: %w", err)
			}
			return nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
