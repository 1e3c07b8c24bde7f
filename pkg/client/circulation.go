package client

import (
	"context"
	"fmt"
	"net/url"

	"circulation/pkg/model"
)

type CirculationClient struct {
	httpClient *HttpClient
}

// NewCirculationClient sends operatorID as X-Operator-ID on every call when it is set.
func NewCirculationClient(baseURL, operatorID string) *CirculationClient {
	httpClient := NewHttpClient(baseURL)
	if operatorID != "" {
		httpClient.Headers[operatorIDHeader] = operatorID
	}
	return &CirculationClient{httpClient: httpClient}
}

func (c *CirculationClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *CirculationClient) Checkout(ctx context.Context, req *model.CheckoutRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/circulation/checkout", req)
}

// CheckoutIdempotent retries safely: the server replays the first response for the same key.
func (c *CirculationClient) CheckoutIdempotent(ctx context.Context, key string, req *model.CheckoutRequest) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/circulation/checkout", req, map[string]string{
		idempotencyKeyHeader: key,
	})
}

func (c *CirculationClient) CheckIn(ctx context.Context, req *model.CheckInRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/circulation/checkin", req)
}

func (c *CirculationClient) Renew(ctx context.Context, loanID string) (*Response, error) {
	path := "/api/v1/circulation/loans/id/" + url.PathEscape(loanID) + "/renew"
	return c.httpClient.POST(ctx, path, nil)
}

func (c *CirculationClient) ListLoans(ctx context.Context, patronID, itemID string, activeOnly bool, limit int, offset int64) (*Response, error) {
	q := pageQuery(limit, offset)
	if patronID != "" {
		q.Set("patron_id", patronID)
	}
	if itemID != "" {
		q.Set("item_id", itemID)
	}
	if activeOnly {
		q.Set("active", "true")
	}
	return c.httpClient.GET(ctx, "/api/v1/circulation/loans?"+q.Encode())
}

func (c *CirculationClient) ListOverdue(ctx context.Context, limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/circulation/loans/overdue?"+pageQuery(limit, offset).Encode())
}

func (c *CirculationClient) ListFines(ctx context.Context, patronID string, status model.FineStatus, limit int, offset int64) (*Response, error) {
	q := pageQuery(limit, offset)
	if patronID != "" {
		q.Set("patron_id", patronID)
	}
	if status != "" {
		q.Set("status", string(status))
	}
	return c.httpClient.GET(ctx, "/api/v1/circulation/fines?"+q.Encode())
}

func (c *CirculationClient) PlaceHold(ctx context.Context, req *model.PlaceHoldRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/holds", req)
}

func (c *CirculationClient) CancelHold(ctx context.Context, holdID string) (*Response, error) {
	path := "/api/v1/holds/id/" + url.PathEscape(holdID) + "/cancel"
	return c.httpClient.POST(ctx, path, nil)
}

func (c *CirculationClient) UpdateHold(ctx context.Context, holdID string, update *model.HoldStatusUpdate) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/holds/id/"+url.PathEscape(holdID), update)
}

func (c *CirculationClient) ListHolds(ctx context.Context, patronID, itemID string, status model.HoldStatus, limit int, offset int64) (*Response, error) {
	q := pageQuery(limit, offset)
	if patronID != "" {
		q.Set("patron_id", patronID)
	}
	if itemID != "" {
		q.Set("item_id", itemID)
	}
	if status != "" {
		q.Set("status", string(status))
	}
	return c.httpClient.GET(ctx, "/api/v1/holds?"+q.Encode())
}

func (c *CirculationClient) HoldQueue(ctx context.Context, itemID string, limit int, offset int64) (*Response, error) {
	path := "/api/v1/holds/item/" + url.PathEscape(itemID) + "/queue?" + pageQuery(limit, offset).Encode()
	return c.httpClient.GET(ctx, path)
}

func pageQuery(limit int, offset int64) url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return q
}
