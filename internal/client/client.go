// Package client talks to the hq Card Store over HTTP. CardStore satisfies
// board.Store, so a board can be driven from the command line exactly as the
// server drives it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/domain"
)

const apiPrefix = "/api/v1"

// Client holds the connection settings shared by every board kind.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token pair. The client keeps using its
// current token; callers store the returned one.
func (c *Client) Login(ctx context.Context, tenantSlug, email, password string) (*auth.TokenPair, error) {
	in := map[string]string{
		"tenant_slug": tenantSlug,
		"email":       email,
		"password":    password,
	}
	var out auth.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Title  string
	Detail string
	Fields []FieldError
}

// FieldError points at the request field a validation failure is about.
type FieldError struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Location+": "+f.Message)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("hq: %d %s", e.Status, msg)
}

// Unwrap maps the status to the matching domain sentinel.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	default:
		return nil
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var problem struct {
		Title  string       `json:"title"`
		Detail string       `json:"detail"`
		Errors []FieldError `json:"errors"`
	}
	if json.Unmarshal(raw, &problem) != nil {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}
	if problem.Title != "" {
		apiErr.Title = problem.Title
	}
	apiErr.Detail = problem.Detail
	apiErr.Fields = problem.Errors
	return apiErr
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// CardStore is the Card Store of one board kind.
type CardStore[S domain.Stage, P domain.Payload] struct {
	client *Client
	kind   domain.BoardKind[S]
}

// Cards returns the Card Store of kind.
func Cards[S domain.Stage, P domain.Payload](c *Client, kind domain.BoardKind[S]) *CardStore[S, P] {
	return &CardStore[S, P]{client: c, kind: kind}
}

func (s *CardStore[S, P]) path(id uuid.UUID) string {
	if id == uuid.Nil {
		return "/" + s.kind.Name
	}
	return "/" + s.kind.Name + "/" + id.String()
}

func (s *CardStore[S, P]) List(ctx context.Context) ([]*domain.Card[S, P], error) {
	var out struct {
		Items []*domain.Card[S, P] `json:"items"`
	}
	if err := s.client.do(ctx, http.MethodGet, s.path(uuid.Nil), nil, &out); err != nil {
		return nil, fmt.Errorf("client.List: %w", err)
	}
	return out.Items, nil
}

func (s *CardStore[S, P]) Create(ctx context.Context, stage S, data P) (*domain.Card[S, P], error) {
	in := struct {
		Stage S `json:"stage,omitempty"`
		Data  P `json:"data"`
	}{Stage: stage, Data: data}

	var card domain.Card[S, P]
	if err := s.client.do(ctx, http.MethodPost, s.path(uuid.Nil), in, &card); err != nil {
		return nil, fmt.Errorf("client.Create: %w", err)
	}
	return &card, nil
}

func (s *CardStore[S, P]) Get(ctx context.Context, id uuid.UUID) (*domain.Card[S, P], error) {
	var card domain.Card[S, P]
	if err := s.client.do(ctx, http.MethodGet, s.path(id), nil, &card); err != nil {
		return nil, fmt.Errorf("client.Get: %w", err)
	}
	return &card, nil
}

func (s *CardStore[S, P]) Patch(ctx context.Context, id uuid.UUID, patch domain.CardPatch[S, P]) error {
	if err := s.client.do(ctx, http.MethodPatch, s.path(id), patch, nil); err != nil {
		return fmt.Errorf("client.Patch: %w", err)
	}
	return nil
}

func (s *CardStore[S, P]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.do(ctx, http.MethodDelete, s.path(id), nil, nil); err != nil {
		return fmt.Errorf("client.Delete: %w", err)
	}
	return nil
}

// History returns the audit trail of one card, newest first.
func (s *CardStore[S, P]) History(ctx context.Context, id uuid.UUID) ([]*domain.AuditEntry, error) {
	var out struct {
		Items []*domain.AuditEntry `json:"items"`
	}
	if err := s.client.do(ctx, http.MethodGet, s.path(id)+"/history", nil, &out); err != nil {
		return nil, fmt.Errorf("client.History: %w", err)
	}
	return out.Items, nil
}
