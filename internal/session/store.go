package session

import (
	"context"
)

// TokenStore is the durable home of the credential token. It holds at most
// one token; an empty Load result means logged out.
// Only Login and Logout write to it.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
