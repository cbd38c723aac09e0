package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/commerce"
	"storefront/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotLoggedIn = errors.New("checkout: not logged in")
	ErrEmptyCart   = errors.New("checkout: cart is empty")
)

// Rates are the order charges on top of the subtotal.
type Rates struct {
	Shipping decimal.Decimal
	TaxRate  decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		Shipping: decimal.RequireFromString("15.00"),
		TaxRate:  decimal.RequireFromString("0.08"),
	}
}

type Summary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"totalItems"`
}

// Summarize prices a cart. Tax is rounded to cents. An empty cart costs
// nothing, shipping included.
func Summarize(items []commerce.CartItem, rates Rates) Summary {
	subtotal := cart.Subtotal(items)
	s := Summary{
		Subtotal:   subtotal,
		Shipping:   decimal.Zero,
		Tax:        subtotal.Mul(rates.TaxRate).Round(2),
		TotalItems: cart.TotalItems(items),
	}
	if len(items) > 0 {
		s.Shipping = rates.Shipping
	}
	s.Total = s.Subtotal.Add(s.Shipping).Add(s.Tax)
	return s
}

type Confirmation struct {
	OrderID  uuid.UUID           `json:"orderId"`
	Email    string              `json:"email"`
	Items    []commerce.CartItem `json:"items"`
	Summary  Summary             `json:"summary"`
	PlacedAt time.Time           `json:"placedAt"`
}

type Session interface {
	IsLoggedIn() bool
	Identity() *auth.Identity
}

type Cart interface {
	Load(ctx context.Context) ([]commerce.CartItem, error)
}

// Service prices the cart and places orders. The backend has no order
// endpoint, so placing an order only issues a confirmation.
type Service struct {
	session Session
	cart    Cart
	rates   Rates
	now     func() time.Time
}

func NewService(session Session, c Cart, rates Rates) *Service {
	return &Service{
		session: session,
		cart:    c,
		rates:   rates,
		now:     time.Now,
	}
}

// Preview loads the cart and prices it.
func (s *Service) Preview(ctx context.Context) ([]commerce.CartItem, Summary, error) {
	if !s.session.IsLoggedIn() {
		return nil, Summary{}, ErrNotLoggedIn
	}
	items, err := s.cart.Load(ctx)
	if err != nil {
		return nil, Summary{}, err
	}
	return items, Summarize(items, s.rates), nil
}

func (s *Service) PlaceOrder(ctx context.Context, form Form) (*Confirmation, error) {
	identity := s.session.Identity()
	if identity == nil {
		return nil, ErrNotLoggedIn
	}

	now := s.now()
	if err := form.Validate(now); err != nil {
		return nil, err
	}

	items, err := s.cart.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	conf := &Confirmation{
		OrderID:  uuid.New(),
		Email:    identity.Email,
		Items:    items,
		Summary:  Summarize(items, s.rates),
		PlacedAt: now.UTC(),
	}

	logger.Info("order placed", map[string]any{
		"order_id": conf.OrderID.String(),
		"user_id":  identity.ID,
		"total":    conf.Summary.Total.StringFixed(2),
		"items":    conf.Summary.TotalItems,
	})
	return conf, nil
}
