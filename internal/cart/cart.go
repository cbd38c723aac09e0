package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/commerce"
	"storefront/internal/fetch"
	"storefront/internal/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthenticated means there is no token to send. No request is made.
	ErrUnauthenticated = errors.New("cart: not logged in")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

type Backend interface {
	GetCart(ctx context.Context, token string) ([]commerce.CartItem, error)
	AddToCart(ctx context.Context, token string, req commerce.AddToCartRequest) error
	RemoveFromCart(ctx context.Context, token string, itemID commerce.ID) error
}

// TokenSource yields the current session token. *session.Manager
// satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// Cart is a client-side view of the backend-owned cart. Loads are retried;
// mutations are sent once.
type Cart struct {
	backend Backend
	tokens  TokenSource
	retrier *fetch.Retrier
	gen     fetch.Generation

	mu      sync.RWMutex
	items   []commerce.CartItem
	err     error
	loading bool
}

func New(backend Backend, tokens TokenSource, retrier *fetch.Retrier) *Cart {
	if retrier == nil {
		retrier = fetch.NewRetrier()
	}
	return &Cart{
		backend: backend,
		tokens:  tokens,
		retrier: retrier,
	}
}

// Load fetches the cart, retrying transient failures. On success the list
// is replaced in full; on failure the previous list is kept and Err is set.
// A load superseded by a newer one returns fetch.ErrStale and changes
// nothing.
func (c *Cart) Load(ctx context.Context) ([]commerce.CartItem, error) {
	if _, ok := c.tokens.Token(); !ok {
		c.mu.Lock()
		c.err = ErrUnauthenticated
		c.mu.Unlock()
		return nil, ErrUnauthenticated
	}

	gen := c.gen.Begin()
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	items, err := fetch.Do(ctx, c.retrier, func(ctx context.Context) ([]commerce.CartItem, error) {
		// re-read per attempt: a logout during a backoff wait ends the load
		token, ok := c.tokens.Token()
		if !ok {
			return nil, backoff.Permanent(ErrUnauthenticated)
		}
		return c.backend.GetCart(ctx, token)
	})

	if !c.gen.IsCurrent(gen) {
		logger.Debug("discarding stale cart load", map[string]any{
			"generation": gen,
		})
		return nil, fetch.ErrStale
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.err = err
		logger.Warn("cart load failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if items == nil {
		items = []commerce.CartItem{}
	}
	c.items = items
	c.err = nil
	return cloneItems(items), nil
}

// Add puts a product in the cart. It is not retried.
func (c *Cart) Add(ctx context.Context, productID commerce.ID, size string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	token, ok := c.tokens.Token()
	if !ok {
		return ErrUnauthenticated
	}

	err := c.backend.AddToCart(ctx, token, commerce.AddToCartRequest{
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
	})
	if err != nil {
		logger.Warn("add to cart failed", map[string]any{
			"product_id": productID.String(),
			"error":      err.Error(),
		})
		return fmt.Errorf("cart: add %s: %w", productID, err)
	}
	return nil
}

// Remove sends exactly one delete for itemID. Only a successful delete
// changes the local list, and only the matching entry is dropped.
func (c *Cart) Remove(ctx context.Context, itemID commerce.ID) error {
	token, ok := c.tokens.Token()
	if !ok {
		return ErrUnauthenticated
	}

	if err := c.backend.RemoveFromCart(ctx, token, itemID); err != nil {
		logger.Warn("remove from cart failed", map[string]any{
			"item_id": itemID.String(),
			"error":   err.Error(),
		})
		return fmt.Errorf("cart: remove %s: %w", itemID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0:0]
	for _, item := range c.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	if len(kept) != len(c.items) {
		c.items = kept
	}
	return nil
}

// Items returns a copy of the last successfully loaded list.
func (c *Cart) Items() []commerce.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

// Err is the error of the most recent load, or nil.
func (c *Cart) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cart) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func cloneItems(items []commerce.CartItem) []commerce.CartItem {
	if items == nil {
		return nil
	}
	out := make([]commerce.CartItem, len(items))
	copy(out, items)
	return out
}

// Subtotal is the sum of price × quantity.
func Subtotal(items []commerce.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func TotalItems(items []commerce.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
