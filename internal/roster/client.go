// Package roster asks the community service which users belong to a community.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Yam_Community/internal/pkg"
)

// Envelope is the {code, message, data} response shape shared by the services.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type Member struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	token   string
}

func NewClient(baseURL string, timeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// WithToken sets the bearer token sent with every roster request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) Members(ctx context.Context, communityID string) ([]Member, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/users?communityId=" + url.QueryEscape(communityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkg.Store("roster.members", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, pkg.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkg.Store("roster.members", fmt.Errorf("status %d", resp.StatusCode))
	}
	var env Envelope[[]Member]
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkg.Store("roster.members", err)
	}
	return env.Data, nil
}

// IsMember 通过社区服务的成员列表判断
func (c *Client) IsMember(ctx context.Context, userID, communityID string) (bool, error) {
	members, err := c.Members(ctx, communityID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
