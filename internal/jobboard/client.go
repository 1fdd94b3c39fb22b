package jobboard

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	userAgent       = "hyresense-analyzer"
	contentType     = "application/json"
	contentEncoding = "gzip"
	// Safety net against pagination loops.
	maxPages = 50
)

// Client reads records from the job-board REST API.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// page is the paginated list envelope of the job-board API.
type page struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []any  `json:"results"`
}

// NewClient creates an API client. The token is sent as a bearer token when not empty.
func NewClient(apiURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		APIURL:    strings.TrimRight(apiURL, "/"),
	}
}

func (c *Client) Job(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.getJSON(ctx, c.endpoint("jobs", id), nil, &job); err != nil {
		return nil, fmt.Errorf("job %q: %w", id, err)
	}
	return &job, nil
}

func (c *Client) Profile(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	if err := c.getJSON(ctx, c.endpoint("profiles", id), nil, &profile); err != nil {
		return nil, fmt.Errorf("profile %q: %w", id, err)
	}
	return &profile, nil
}

func (c *Client) Resume(ctx context.Context, id string) (*Resume, error) {
	var resume Resume
	if err := c.getJSON(ctx, c.endpoint("resumes", id), nil, &resume); err != nil {
		return nil, fmt.Errorf("resume %q: %w", id, err)
	}
	return &resume, nil
}

func (c *Client) DefaultResume(ctx context.Context, profileID string) (*Resume, error) {
	items, err := c.getItems(ctx, c.endpoint("profiles", profileID, "resumes"), url.Values{"is_default": {"true"}})
	if err != nil {
		return nil, fmt.Errorf("resumes of profile %q: %w", profileID, err)
	}

	var resumes []*Resume
	cfg := &mapstructure.DecoderConfig{
		Result:  &resumes,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode resumes: %w", err)
	}

	return PickDefault(resumes), nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return fmt.Sprintf("%s/api/%s/", c.APIURL, strings.Join(escaped, "/"))
}

// getItems follows "next" links and returns the results of all pages.
func (c *Client) getItems(ctx context.Context, apiURL string, q url.Values) ([]any, error) {
	var items []any

	next := apiURL
	for i := 0; next != "" && i < maxPages; i++ {
		var resp page
		if err := c.getJSON(ctx, next, q, &resp); err != nil {
			return nil, err
		}

		items = append(items, resp.Results...)
		c.logger.Debug("got page from job board", zap.Int("count", resp.Count), zap.Int("collected", len(items)))

		next = resp.Next
		// next already carries the query string
		q = nil
	}

	return items, nil
}

func (c *Client) getJSON(ctx context.Context, apiURL string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	}

	if target == nil {
		return nil
	}

	return json.NewDecoder(reader).Decode(target)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}
