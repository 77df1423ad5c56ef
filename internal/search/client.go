package search

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	apiURL     = "https://google.serper.dev"
	searchPath = "/search"
	userAgent  = "spigell/job-seeker"

	contentType     = "application/json"
	contentEncoding = "gzip"
)

// Result is one organic hit returned by the search provider.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Position int    `json:"position"`
}

// Provider performs a single web search.
type Provider interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

// Client talks to the Serper.dev Google search API.
type Client struct {
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type searchResponse struct {
	Organic []any `json:"organic"`
}

func NewClient(apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey: apiKey,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	body, err := json.Marshal(searchRequest{Q: query, Num: num})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.APIURL, "/") + searchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}

	response, err := c.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	var results []Result
	cfg := &mapstructure.DecoderConfig{
		Result:           &results,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(response.Organic); err != nil {
		return nil, fmt.Errorf("decode organic results: %w", err)
	}

	c.logger.Debug("got response from serper", zap.String("query", query), zap.Int("results", len(results)))

	return results, nil
}

func (c *Client) parseResponse(resp *http.Response) (*searchResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	var response searchResponse
	if err := json.NewDecoder(reader).Decode(&response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
