package doodle

import (
	"context"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/core/ports"
	"github.com/vncsmyrnk/dood/internal/metrics"
)

// Gateway is the doodle.com client as the poll service sees it, with each
// upstream call counted.
type Gateway struct {
	client *doodle.Client
}

func NewGateway(client *doodle.Client) ports.PollGateway {
	return &Gateway{
		client: client,
	}
}

func (g *Gateway) CreatePoll(ctx context.Context, poll doodle.Poll) (*doodle.CreatePollResult, error) {
	res, err := g.client.CreatePoll(ctx, poll)
	metrics.ObserveUpstream("create_poll", err)
	return res, err
}

func (g *Gateway) GetPoll(ctx context.Context, pollID, key string) (doodle.PollData, error) {
	data, err := g.client.GetPoll(ctx, pollID, key)
	metrics.ObserveUpstream("get_poll", err)
	return data, err
}
