package ports

import (
	"context"

	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/core/domain"
)

// PollGateway is the upstream poll service; *doodle.Client implements it.
type PollGateway interface {
	CreatePoll(ctx context.Context, p doodle.Poll) (*doodle.CreatePollResult, error)
	GetPoll(ctx context.Context, pollID, key string) (doodle.PollData, error)
}

type PollRecordRepository interface {
	Save(ctx context.Context, record *domain.PollRecord) error
	GetByPollID(ctx context.Context, pollID string) (*domain.PollRecord, error)
	List(ctx context.Context, limit, offset int) ([]*domain.PollRecord, error)
}

type OptionInput struct {
	Value    string
	Date     string
	DateTime string
	Start    string
	End      string
}

type CreatePollInput struct {
	Type           string
	Title          string
	Description    string
	Location       string
	Hidden         bool
	InitiatorName  string
	InitiatorEmail string
	Options        []OptionInput
}

type ListPollsInput struct {
	Page int
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.PollRecord, error)
	GetPoll(ctx context.Context, pollID string) (doodle.PollData, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.PollRecord, error)
	GetLinks(ctx context.Context, pollID string) (*domain.PollLinks, error)
}
