// Package wheelmap fetches accessibility nodes from the Wheelmap API.
package wheelmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
)

// ErrUpstream is returned when Wheelmap answers with a non-200 status.
var ErrUpstream = errors.New("wheelmap: upstream error")

// maxPages bounds the pages followed for one bounding box.
const maxPages = 20

type nodesResponse struct {
	Nodes []domain.Node `json:"nodes"`
	Meta  struct {
		Page     int `json:"page"`
		NumPages int `json:"num_pages"`
	} `json:"meta"`
}

// Client implements ports.NodeSource.
type Client struct {
	baseURL string
	apiKey  string
	perPage int
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a Wheelmap client. baseURL is the API root, without the
// trailing /nodes.
func New(baseURL, apiKey string, perPage int, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		perPage: perPage,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:            "barrierfree",
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: 64,
		},
	}
}

// FetchNodes returns every node inside bounds, following pagination.
func (c *Client) FetchNodes(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error) {
	var nodes []domain.Node
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := c.fetchPage(ctx, bounds, page)
		metrics.ObserveUpstream("wheelmap", start, err)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, resp.Nodes...)
		if resp.Meta.NumPages <= page {
			break
		}
	}
	return nodes, nil
}

func (c *Client) fetchPage(ctx context.Context, bounds domain.Bounds, page int) (*nodesResponse, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/nodes/")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	args := req.URI().QueryArgs()
	args.Set("api_key", c.apiKey)
	args.Set("bbox", bounds.String())
	args.Set("per_page", strconv.Itoa(c.perPage))
	args.Set("page", strconv.Itoa(page))
	args.Set("ts", "0")

	if err := c.http.DoTimeout(req, resp, c.requestTimeout(ctx)); err != nil {
		return nil, fmt.Errorf("wheelmap nodes: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, code)
	}

	var out nodesResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode wheelmap nodes: %w", err)
	}
	return &out, nil
}

// requestTimeout shortens the client timeout to the context deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	return timeout
}
