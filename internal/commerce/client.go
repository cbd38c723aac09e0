package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/auth/credentials"

	"github.com/google/uuid"
)

var (
	// ErrUnreachable means no HTTP response was received at all.
	ErrUnreachable = errors.New("commerce: backend unreachable")
	// ErrMalformed means a 2xx response carried an unexpected body.
	ErrMalformed = errors.New("commerce: malformed response")
)

// StatusError is a non-2xx response. Message is the body's "message"
// (or "error") field when the backend sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("commerce: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("commerce: status %d", e.StatusCode)
}

// IsClientError reports a 4xx rejection.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type Paths struct {
	Login    string
	Signup   string
	Products string
	Cart     string
}

func DefaultPaths() Paths {
	return Paths{
		Login:    "/checkpassword",
		Signup:   "/auth/signup",
		Products: "/dresses",
		Cart:     "/carts",
	}
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Paths      Paths
	HTTPClient *http.Client
}

// Client speaks the commerce backend's REST contract. It holds no
// credentials; callers pass the token per call.
type Client struct {
	baseURL string
	paths   Paths
	http    *http.Client
}

func New(opts Options) *Client {
	paths := opts.Paths
	def := DefaultPaths()
	if paths.Login == "" {
		paths.Login = def.Login
	}
	if paths.Signup == "" {
		paths.Signup = def.Signup
	}
	if paths.Products == "" {
		paths.Products = def.Products
	}
	if paths.Cart == "" {
		paths.Cart = def.Cart
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		paths:   paths,
		http:    hc,
	}
}

// CheckPassword validates a Basic token and returns the backend identity id.
func (c *Client) CheckPassword(ctx context.Context, token string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, c.paths.Login, token, struct {
		Check bool `json:"check"`
	}{Check: true})
	if err != nil {
		return "", err
	}
	return identityID(body)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	_, err := c.do(ctx, http.MethodPost, c.paths.Signup, "", req)
	return err
}

// ListProducts is public; token may be empty.
func (c *Client) ListProducts(ctx context.Context, token string) ([]Product, error) {
	body, err := c.do(ctx, http.MethodGet, c.paths.Products, token, nil)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := decodeList(body, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetCart(ctx context.Context, token string) ([]CartItem, error) {
	body, err := c.do(ctx, http.MethodGet, c.paths.Cart, token, nil)
	if err != nil {
		return nil, err
	}
	var items []CartItem
	if err := decodeList(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddToCart(ctx context.Context, token string, req AddToCartRequest) error {
	_, err := c.do(ctx, http.MethodPost, c.paths.Cart, token, req)
	return err
}

func (c *Client) RemoveFromCart(ctx context.Context, token string, itemID ID) error {
	_, err := c.do(ctx, http.MethodDelete, c.paths.Cart+"/"+url.PathEscape(itemID.String()), token, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("commerce: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("commerce: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", credentials.AuthorizationHeader(token))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	return body, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func decodeList(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: expected a JSON array", ErrMalformed)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// identityID pulls the backend-assigned id out of a credential-check
// response. Backend builds have used "id", "userId", "_id" and a nested
// "user" object.
func identityID(body []byte) (string, error) {
	var payload struct {
		ID      ID `json:"id"`
		UserID  ID `json:"userId"`
		MongoID ID `json:"_id"`
		User    *struct {
			ID      ID `json:"id"`
			MongoID ID `json:"_id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	candidates := []ID{payload.ID, payload.UserID, payload.MongoID}
	if payload.User != nil {
		candidates = append(candidates, payload.User.ID, payload.User.MongoID)
	}
	for _, id := range candidates {
		if id != "" {
			return id.String(), nil
		}
	}
	return "", fmt.Errorf("%w: no identity id in response", ErrMalformed)
}
