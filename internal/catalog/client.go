package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const statusSuccess = "success"

// maxErrorBody bounds how much of a failed response is kept in an APIError
const maxErrorBody = 2048

// APIError reports a request whose envelope was not a success
type APIError struct {
	Endpoint   string
	HTTPStatus int
	Status     string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("request %s failed: %v", e.Endpoint, e.Err)
	case e.Status != "":
		return fmt.Sprintf("request %s returned status %q", e.Endpoint, e.Status)
	default:
		return fmt.Sprintf("request %s returned HTTP %d without data", e.Endpoint, e.HTTPStatus)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Client talks to the content API and owns the response cache
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *responseCache
	log        *logger.ComponentLogger
}

// NewClient builds an API client from configuration
func NewClient(cfg *config.APIConfig, log *logrus.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		cache:      newResponseCache(cfg.CacheTTL),
		log:        logger.NewComponentLogger(log, "catalog"),
	}, nil
}

// cacheKey identifies a request without the token
func cacheKey(uri string, params url.Values) string {
	if len(params) == 0 {
		return uri
	}
	return uri + "?" + params.Encode()
}

// get performs a GET against uri and returns the envelope's data payload
func (c *Client) get(ctx context.Context, uri string, params url.Values) ([]byte, error) {
	key := cacheKey(uri, params)
	if data, ok := c.cache.get(key); ok {
		c.log.WithField("endpoint", key).Debug("Serving cached response")
		return data, nil
	}

	ref, err := url.Parse(uri)
	if err != nil {
		return nil, &APIError{Endpoint: uri, Err: err}
	}
	target := c.baseURL.ResolveReference(ref)

	query := target.Query()
	for k, values := range params {
		for _, v := range values {
			query.Add(k, v)
		}
	}
	query.Set("api_token", c.token)
	target.RawQuery = query.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Endpoint: key, Err: err}
	}

	c.log.WithField("endpoint", key).Debug("Visiting")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &APIError{Endpoint: key, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Endpoint: key, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Endpoint: key, HTTPStatus: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{
			Endpoint:   key,
			HTTPStatus: resp.StatusCode,
			Body:       truncate(body),
			Err:        fmt.Errorf("decode envelope: %w", err),
		}
	}

	if env.Status != statusSuccess || len(env.Data) == 0 || string(env.Data) == "null" {
		apiErr := &APIError{
			Endpoint:   key,
			HTTPStatus: resp.StatusCode,
			Status:     env.Status,
			Body:       truncate(body),
		}
		c.log.WithFields(logrus.Fields{
			"endpoint": key,
			"status":   env.Status,
			"body":     apiErr.Body,
		}).Error("Request failed")
		return nil, apiErr
	}

	c.cache.put(key, env.Data)
	return env.Data, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

func (c *Client) getJSON(ctx context.Context, uri string, params url.Values, out interface{}) error {
	data, err := c.get(ctx, uri, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Endpoint: cacheKey(uri, params), Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// GetCatalog returns the catalog tree of a show
func (c *Client) GetCatalog(ctx context.Context, id int) (*models.Catalog, error) {
	var catalog models.Catalog
	if err := c.getJSON(ctx, "content/catalog/"+strconv.Itoa(id), nil, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// GetSeries returns the content-show metadata of a show
func (c *Client) GetSeries(ctx context.Context, id int) (*models.Series, error) {
	var series models.Series
	if err := c.getJSON(ctx, "content/content-show/"+strconv.Itoa(id), nil, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// Search looks shows up by keyword
func (c *Client) Search(ctx context.Context, keyword string) ([]models.SearchResult, error) {
	var page struct {
		Data []models.SearchResult `json:"data"`
	}
	if err := c.getJSON(ctx, "search/web", url.Values{"keyword": {keyword}}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Subscriptions lists the shows the token's user subscribed to
func (c *Client) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	var page models.SubscriptionPage
	if err := c.getJSON(ctx, "user/subscriptions-list", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// InvalidateShow drops the cached catalog and series of one show
func (c *Client) InvalidateShow(id int) {
	c.cache.invalidate("content/catalog/" + strconv.Itoa(id))
	c.cache.invalidate("content/content-show/" + strconv.Itoa(id))
}

// Invalidate drops every cached response
func (c *Client) Invalidate() {
	c.cache.clear()
}
