package domain

import "errors"

var (
	ErrPollNotFound      = errors.New("poll not found")
	ErrInvalidPollID     = errors.New("invalid poll id")
	ErrInvalidOptionDate = errors.New("invalid option date")
	ErrTitleRequired     = errors.New("title is required")
	ErrInitiatorRequired = errors.New("initiator name is required")
	ErrInternal          = errors.New("internal server error")
)
