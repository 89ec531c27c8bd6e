package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"colorx/internal/api"
)

// Client is a thin HTTP wrapper over the session API for the clx binary.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type LoginResponse struct {
	Token   string              `json:"token"`
	Session api.SessionSnapshot `json:"session"`
}

type TradeResponse struct {
	Message    string              `json:"message"`
	Event      string              `json:"event"`
	GameOver   bool                `json:"game_over"`
	FinalValue int64               `json:"final_value"`
	Session    api.SessionSnapshot `json:"session"`
}

type RestartResponse struct {
	Session api.SessionSnapshot `json:"session"`
}

type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int64  `json:"score"`
	Date     string `json:"date"`
}

type LeaderboardResponse struct {
	Rows []LeaderboardRow `json:"rows"`
}

func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"username": username,
		"password": password,
	}, &out)
	return out.Message, err
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Snapshot(ctx context.Context, token string) (api.SessionSnapshot, error) {
	var out api.SessionSnapshot
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/session", token, nil, &out)
	return out, err
}

func (c *Client) Trade(ctx context.Context, token, action, color string, quantity int64) (TradeResponse, error) {
	var out TradeResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/trades", token, map[string]any{
		"action":   action,
		"color":    color,
		"quantity": quantity,
	}, &out)
	return out, err
}

func (c *Client) Restart(ctx context.Context, token string) (RestartResponse, error) {
	var out RestartResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/session/restart", token, map[string]any{}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/auth/logout", token, map[string]any{}, nil)
}

func (c *Client) Leaderboard(ctx context.Context) (LeaderboardResponse, error) {
	var out LeaderboardResponse
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", "", nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
