package checkout

import (
	"context"
	"errors"
	"strings"
)

// ErrTokenUnavailable means no card token could be produced.
var ErrTokenUnavailable = errors.New("card token unavailable")

// CardTokenizer turns card details into a single-use gateway token.
type CardTokenizer interface {
	CreateCardToken(ctx context.Context, card CardDetails) (string, error)
}

// PresentedTokenizer accepts the token the gateway's browser widget already
// created. Raw card numbers never reach this service.
type PresentedTokenizer struct{}

func (PresentedTokenizer) CreateCardToken(_ context.Context, card CardDetails) (string, error) {
	token := strings.TrimSpace(card.Token)
	if token == "" {
		return "", ErrTokenUnavailable
	}
	return token, nil
}

// TokenizerFunc adapts a function to CardTokenizer.
type TokenizerFunc func(ctx context.Context, card CardDetails) (string, error)

func (f TokenizerFunc) CreateCardToken(ctx context.Context, card CardDetails) (string, error) {
	return f(ctx, card)
}
