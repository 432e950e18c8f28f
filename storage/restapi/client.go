// Package restapi fetches portal records from the university REST backend.
package restapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

// Client is a portal.Source backed by the university REST backend.
type Client struct {
	client *resty.Client
	log    core.Logger
}

var _ portal.Source = (*Client)(nil) // interface compliance check

func NewClient(cfg core.BackendConfig, log core.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	client.AddRetryCondition(retryCondition)

	return &Client{client: client, log: log}
}

// retryCondition retries network errors and server errors.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Fetch GETs the collection endpoint, which must answer with a JSON array of objects.
func (c *Client) Fetch(ctx context.Context, coll portal.Collection) ([]view.Record, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/" + strings.TrimLeft(coll.Endpoint, "/"))
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(portal.ErrSourceUnavailable, "GET %s: %v", coll.Endpoint, ctx.Err())
		}
		return nil, errors.Wrapf(portal.ErrSourceUnavailable, "GET %s: %v", coll.Endpoint, err)
	}
	if resp.IsError() {
		c.log.Warn("backend error response", map[string]interface{}{
			"collection": coll.Name,
			"status":     resp.StatusCode(),
			"attempts":   resp.Request.Attempt,
		})
		return nil, errors.Wrapf(portal.ErrSourceUnavailable, "GET %s: %s", coll.Endpoint, resp.Status())
	}

	var records []view.Record
	if err := portal.DecodeJSON(resp.Body(), &records); err != nil {
		return nil, errors.Wrapf(portal.ErrSourceUnavailable, "decoding %s: %v", coll.Endpoint, err)
	}
	if records == nil {
		// "null" body
		records = []view.Record{}
	}
	return records, nil
}
