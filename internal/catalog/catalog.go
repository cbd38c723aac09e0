package catalog

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/commerce"
	"storefront/internal/fetch"
	"storefront/internal/logger"
)

var ErrNotFound = errors.New("catalog: product not found")

type Backend interface {
	ListProducts(ctx context.Context, token string) ([]commerce.Product, error)
}

type TokenSource interface {
	Token() (string, bool)
}

// Catalog reads the product list. Reads go through the Retrier; the token
// is sent when the session has one but is not required.
type Catalog struct {
	backend Backend
	tokens  TokenSource
	retrier *fetch.Retrier
}

func New(backend Backend, tokens TokenSource, retrier *fetch.Retrier) *Catalog {
	if retrier == nil {
		retrier = fetch.NewRetrier()
	}
	return &Catalog{backend: backend, tokens: tokens, retrier: retrier}
}

func (c *Catalog) List(ctx context.Context) ([]commerce.Product, error) {
	products, err := fetch.Do(ctx, c.retrier, func(ctx context.Context) ([]commerce.Product, error) {
		return c.backend.ListProducts(ctx, c.token())
	})
	if err != nil {
		logger.Warn("product list failed", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}
	return products, nil
}

// Find lists the catalog and returns the product with id. The backend has
// no single-product endpoint.
func (c *Catalog) Find(ctx context.Context, id commerce.ID) (commerce.Product, error) {
	products, err := c.List(ctx)
	if err != nil {
		return commerce.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return commerce.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (c *Catalog) token() string {
	if c.tokens == nil {
		return ""
	}
	token, _ := c.tokens.Token()
	return token
}

type Category struct {
	Name     string             `json:"name"`
	Products []commerce.Product `json:"products"`
}

// Categories groups products by category in first-seen order. Products
// without a category land in "Other".
func Categories(products []commerce.Product) []Category {
	index := map[string]int{}
	var out []Category
	for _, p := range products {
		name := p.Category
		if name == "" {
			name = "Other"
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Category{Name: name})
		}
		out[i].Products = append(out[i].Products, p)
	}
	return out
}
