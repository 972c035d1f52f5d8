package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/dood/doodle"
	"github.com/vncsmyrnk/dood/internal/core/domain"
	"github.com/vncsmyrnk/dood/internal/core/ports"
)

const pageSize = 10

type pollService struct {
	gateway ports.PollGateway
	repo    ports.PollRecordRepository
	logger  zerolog.Logger
}

func NewPollService(gateway ports.PollGateway, repo ports.PollRecordRepository, logger zerolog.Logger) ports.PollService {
	return &pollService{
		gateway: gateway,
		repo:    repo,
		logger:  logger,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.PollRecord, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.ErrTitleRequired
	}
	if strings.TrimSpace(input.InitiatorName) == "" {
		return nil, domain.ErrInitiatorRequired
	}

	poll := doodle.Poll{
		Type:        doodle.PollType(strings.ToUpper(input.Type)),
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Hidden:      input.Hidden,
		Initiator: doodle.Initiator{
			Name:  input.InitiatorName,
			Email: input.InitiatorEmail,
		},
	}
	if poll.Type == "" {
		poll.Type = doodle.PollTypeText
	}

	for _, in := range input.Options {
		entry, err := optionEntry(in)
		if err != nil {
			return nil, err
		}
		poll.Options = append(poll.Options, entry)
	}

	res, err := s.gateway.CreatePoll(ctx, poll)
	if err != nil {
		return nil, err
	}

	record := &domain.PollRecord{
		ID:        uuid.New(),
		PollID:    res.ID(),
		Title:     poll.Title,
		Type:      string(poll.Type),
		Location:  res.Location,
		AdminKey:  res.Key,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Save(ctx, record); err != nil {
		// The poll exists upstream; the admin URL is the only way back to it.
		s.logger.Error().Err(err).
			Str("poll_id", record.PollID).
			Str("admin_url", record.Links().AdminURL).
			Msg("poll created but not recorded")
		return nil, fmt.Errorf("failed to record poll %s: %w", record.PollID, err)
	}

	s.logger.Info().Str("poll_id", record.PollID).Str("type", record.Type).Msg("poll created")
	return record, nil
}

func (s *pollService) GetPoll(ctx context.Context, pollID string) (doodle.PollData, error) {
	if strings.TrimSpace(pollID) == "" {
		return nil, domain.ErrInvalidPollID
	}

	var key string
	record, err := s.repo.GetByPollID(ctx, pollID)
	switch {
	case err == nil:
		key = record.AdminKey
	case errors.Is(err, domain.ErrPollNotFound):
	default:
		return nil, err
	}

	return s.gateway.GetPoll(ctx, pollID, key)
}

func (s *pollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.PollRecord, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, pageSize, (page-1)*pageSize)
}

func (s *pollService) GetLinks(ctx context.Context, pollID string) (*domain.PollLinks, error) {
	if strings.TrimSpace(pollID) == "" {
		return nil, domain.ErrInvalidPollID
	}

	record, err := s.repo.GetByPollID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	links := record.Links()
	return &links, nil
}

func optionEntry(in ports.OptionInput) (doodle.OptionEntry, error) {
	if in.Date == "" && in.DateTime == "" && in.Start == "" && in.End == "" {
		return doodle.Text(in.Value), nil
	}

	opt := doodle.Option{Value: in.Value}
	if in.Date != "" {
		d, err := civil.ParseDate(in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidOptionDate, in.Date)
		}
		opt.Date = &d
	}

	var err error
	if opt.DateTime, err = parseDateTime(in.DateTime); err != nil {
		return nil, err
	}
	if opt.Start, err = parseDateTime(in.Start); err != nil {
		return nil, err
	}
	if opt.End, err = parseDateTime(in.End); err != nil {
		return nil, err
	}
	return opt, nil
}

func parseDateTime(s string) (*civil.DateTime, error) {
	if s == "" {
		return nil, nil
	}
	dt, err := civil.ParseDateTime(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidOptionDate, s)
	}
	return &dt, nil
}
