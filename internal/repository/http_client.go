package repository

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	apperrors "github.com/spec-kit/ticket-tracker/pkg/util/errorutil"
)

// ListMeta describes one page of a list response.
type ListMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	HasFilters bool `json:"has_filters"`
}

type dataEnvelope[T any] struct {
	Data T         `json:"data"`
	Meta *ListMeta `json:"meta,omitempty"`
}

type countResult struct {
	Count int `json:"count"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// APIClient talks to a running tracker's JSON API.
type APIClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

// NewAPIClient builds a client for baseURL; token may be empty when auth is off.
func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, timeout: timeout}
}

// BaseURL returns the server the client talks to.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return errors.Wrapf(err, "%s %s", method, path)
	}

	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if c.timeout > 0 {
		agent.Timeout(c.timeout)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "%s %s", method, path)
	}

	if status >= fiber.StatusBadRequest {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		return apperrors.FromResponse(status, env.Error.Code, env.Error.Message, env.Error.Details)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(raw, out), "decode %s %s", method, path)
}

func (c *APIClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, fiber.MethodGet, path, query, nil, out)
}

// exists maps a 404 on path to false.
func (c *APIClient) exists(ctx context.Context, path string) (bool, error) {
	err := c.do(ctx, fiber.MethodGet, path, nil, nil, nil)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *APIClient) count(ctx context.Context, path string, query url.Values) (int, error) {
	var env dataEnvelope[countResult]
	if err := c.get(ctx, path, query, &env); err != nil {
		return 0, err
	}
	return env.Data.Count, nil
}

// Login exchanges the owner password for an access token.
func (c *APIClient) Login(ctx context.Context, password string) (string, error) {
	var env dataEnvelope[struct {
		AccessToken string `json:"access_token"`
	}]
	if err := c.do(ctx, fiber.MethodPost, "/auth/token", nil, map[string]string{"password": password}, &env); err != nil {
		return "", err
	}
	return env.Data.AccessToken, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
