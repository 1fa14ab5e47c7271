// Package usersclient is Auth's typed client for Users' internal
// credential-verification and role-lookup surface, the two capabilities
// spec.md §1 says the core's collaborators expose. Grounded on the same
// platform/rpc transport txsvc/accountsclient uses.
package usersclient

import (
	"context"
	"time"

	"digitalbank/internal/platform/rpc"
)

type Client struct {
	rpc *rpc.Client
}

func New(baseURL string, callTimeout time.Duration) *Client {
	return &Client{rpc: rpc.New(baseURL, callTimeout)}
}

// Verification is what Users' internal verify-credentials endpoint
// returns: whether the credentials are valid, and if so the user's
// identity and assigned role.
type Verification struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Disabled bool   `json:"disabled"`
}

func (c *Client) VerifyCredentials(ctx context.Context, username, password string) (Verification, error) {
	var resp Verification
	err := c.rpc.Post(ctx, "/api/v1/internal/users/verify-credentials",
		map[string]string{"username": username, "password": password}, &resp)
	return resp, err
}

func (c *Client) GetRole(ctx context.Context, userID string) (string, error) {
	var resp struct {
		Role string `json:"role"`
	}
	err := c.rpc.Get(ctx, "/api/v1/internal/users/"+userID+"/role", &resp)
	return resp.Role, err
}
