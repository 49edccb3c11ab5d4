package alerts

import (
	"context"

	"weatherdash/internal/gateway"
)

// API is the alerts backend the store talks to.
type API interface {
	List(ctx context.Context) ([]Alert, error)
	Create(ctx context.Context, req CreateAlertRequest) (Alert, error)
	Delete(ctx context.Context, id string) error
}

// Client implements API against the alerts service through the gateway.
type Client struct {
	gw *gateway.Client
}

func NewClient(gw *gateway.Client) *Client {
	return &Client{gw: gw}
}

func (c *Client) List(ctx context.Context) ([]Alert, error) {
	var list []Alert
	if err := c.gw.Get(ctx, "/alerts", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) Create(ctx context.Context, req CreateAlertRequest) (Alert, error) {
	var created Alert
	if err := c.gw.Post(ctx, "/alerts", req, &created); err != nil {
		return Alert{}, err
	}
	return created, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.gw.Delete(ctx, "/alerts/"+id)
}
