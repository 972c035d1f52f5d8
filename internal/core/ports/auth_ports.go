package ports

import (
	"context"
)

type TokenPayload struct {
	Subject string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*TokenPayload, error)
}
