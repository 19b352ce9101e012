// internal/pubs/crossref.go
package pubs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
)

const (
	// DefaultEndpoint is the Crossref works search API.
	DefaultEndpoint = "https://api.crossref.org/works"

	// DefaultUserAgent identifies requests to Crossref. Crossref asks for a
	// contact address; set one with Client.UserAgent.
	DefaultUserAgent = "navmark-doi/1.0"

	// DefaultMinScore is the lowest title similarity accepted as a match.
	DefaultMinScore = 0.55

	searchRows = 5
)

// ErrNotFound is returned by Lookup when no result is close enough.
var ErrNotFound = errors.New("no matching DOI")

// Client searches Crossref for a publication's DOI.
type Client struct {
	HTTP      *http.Client
	Endpoint  string
	UserAgent string
	MinScore  float64

	// Retries is how many times a rate-limited or failed request is
	// retried, waiting RetryInterval (growing exponentially) in between.
	Retries       uint64
	RetryInterval time.Duration
}

// NewClient returns a Client with the default endpoint and a 30 second
// request timeout.
func NewClient(userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		HTTP:          &http.Client{Timeout: 30 * time.Second},
		Endpoint:      DefaultEndpoint,
		UserAgent:     userAgent,
		MinScore:      DefaultMinScore,
		Retries:       3,
		RetryInterval: time.Second,
	}
}

// Lookup returns the DOI of the search result whose title is most similar
// to title, or ErrNotFound. author narrows the search by the first author's
// last name and a non-zero year restricts it to that publication year.
func (c *Client) Lookup(ctx context.Context, title, author string, year int) (string, error) {
	if title == "" {
		return "", ErrNotFound
	}

	q := url.Values{}
	q.Set("query.title", title)
	q.Set("rows", strconv.Itoa(searchRows))
	if author != "" {
		q.Set("query.author", author)
	}
	if year != 0 {
		q.Set("filter", fmt.Sprintf("from-pub-date:%d-01-01,until-pub-date:%d-12-31", year, year))
	}

	body, err := c.get(ctx, c.endpoint()+"?"+q.Encode())
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("crossref: response is not valid JSON")
	}

	var doi string
	best := 0.0
	gjson.GetBytes(body, "message.items").ForEach(func(_, item gjson.Result) bool {
		score := TitleSimilarity(title, item.Get("title.0").String())
		if score > best {
			best = score
			doi = item.Get("DOI").String()
		}
		return true
	})
	if doi == "" || best < c.minScore() {
		return "", ErrNotFound
	}
	return doi, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("crossref: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("crossref: unexpected status %s", resp.Status))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.Retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *Client) minScore() float64 {
	if c.MinScore > 0 {
		return c.MinScore
	}
	return DefaultMinScore
}
