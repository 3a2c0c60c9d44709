package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "homefit-match-core/1.0"

// Options configures the HTTP listing-source client.
type Options struct {
	BaseURL   string
	Token     string // bearer token forwarded to the source
	Timeout   time.Duration
	UserAgent string
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client is an HTTP implementation of Source.
type Client struct {
	opts *Options
	http *http.Client
}

// NewClient creates a listing-source client for the given base URL.
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("listing source base URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// FetchMatches calls GET /preferences/{id}/matches with the query
// parameters the source understands.
func (c *Client) FetchMatches(ctx context.Context, prefSetID uuid.UUID, query types.Query) (*types.MatchPage, error) {
	query.Normalize()

	endpoint := fmt.Sprintf("%s/preferences/%s/matches", strings.TrimSuffix(c.opts.BaseURL, "/"), prefSetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Op: "fetch matches", Message: "failed to create request", Cause: err}
	}
	req.URL.RawQuery = encodeQuery(query)
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: "fetch matches", Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Op:         "fetch matches",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var page types.MatchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &Error{Op: "fetch matches", Message: "failed to decode response", Cause: err}
	}
	return &page, nil
}

// encodeQuery renders a normalized query as the source's parameter set.
func encodeQuery(q types.Query) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.PageSize))
	v.Set("sortBy", string(q.SortBy))
	v.Set("sortOrder", string(q.SortOrder))
	if q.Filters.PriceMin > 0 {
		v.Set("minPrice", strconv.FormatFloat(q.Filters.PriceMin, 'f', -1, 64))
	}
	if q.Filters.PriceMax > 0 {
		v.Set("maxPrice", strconv.FormatFloat(q.Filters.PriceMax, 'f', -1, 64))
	}
	if len(q.Filters.Bedrooms) > 0 {
		v.Set("bedrooms", joinInts(q.Filters.Bedrooms))
	}
	if len(q.Filters.Bathrooms) > 0 {
		v.Set("bathrooms", joinInts(q.Filters.Bathrooms))
	}
	if len(q.Filters.Neighborhoods) > 0 {
		v.Set("neighborhoods", strings.Join(q.Filters.Neighborhoods, ","))
	}
	if len(q.Filters.Amenities) > 0 {
		v.Set("amenities", strings.Join(q.Filters.Amenities, ","))
	}
	return v.Encode()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, n := range values {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
}
