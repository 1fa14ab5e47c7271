// Package accountsclient is Transactions' typed client for Accounts'
// privileged internal surface (spec.md §4.2). Grounded on the teacher's
// perf-test/internal/executor/executor.go client shape, layered over
// platform/rpc so the transport tuning and error-decoding live in one
// place shared with authsvc's usersclient.
package accountsclient

import (
	"context"
	"fmt"
	"time"

	"digitalbank/internal/platform/money"
	"digitalbank/internal/platform/rpc"
)

type Client struct {
	rpc *rpc.Client
}

func New(baseURL string, callTimeout time.Duration) *Client {
	return &Client{rpc: rpc.New(baseURL, callTimeout)}
}

// ActiveStatus is the {exists, active, closed} triple InternalGetActive returns.
type ActiveStatus struct {
	Exists bool `json:"exists"`
	Active bool `json:"active"`
	Closed bool `json:"closed"`
}

func (c *Client) GetActive(ctx context.Context, accountNumber int64) (ActiveStatus, error) {
	var resp ActiveStatus
	err := c.rpc.Get(ctx, fmt.Sprintf("/api/v1/internal/accounts/%d/active", accountNumber), &resp)
	return resp, err
}

func (c *Client) GetPrivilege(ctx context.Context, accountNumber int64) (string, error) {
	var resp struct {
		Privilege string `json:"privilege"`
	}
	err := c.rpc.Get(ctx, fmt.Sprintf("/api/v1/internal/accounts/%d/privilege", accountNumber), &resp)
	return resp.Privilege, err
}

func (c *Client) VerifyPin(ctx context.Context, accountNumber int64, pin string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := c.rpc.Post(ctx, fmt.Sprintf("/api/v1/internal/accounts/%d/verify-pin", accountNumber),
		map[string]string{"pin": pin}, &resp)
	return resp.Valid, err
}

// Debit and Credit take an idempotencyKey so a retried call (including the
// best-effort compensating credit spec.md §9 describes) is recognized by
// Accounts as a duplicate of one already applied rather than applied
// again. Pass "" when the caller has no stable key to dedup against.
func (c *Client) Debit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	return c.mutate(ctx, "debit", accountNumber, amount, idempotencyKey)
}

func (c *Client) Credit(ctx context.Context, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	return c.mutate(ctx, "credit", accountNumber, amount, idempotencyKey)
}

func (c *Client) mutate(ctx context.Context, verb string, accountNumber int64, amount money.Money, idempotencyKey string) (money.Money, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	err := c.rpc.Post(ctx, fmt.Sprintf("/api/v1/internal/accounts/%d/%s", accountNumber, verb),
		map[string]string{"amount": amount.String(), "idempotency_key": idempotencyKey}, &resp)
	if err != nil {
		return money.Zero, err
	}
	balance, parseErr := money.Parse(resp.Balance)
	if parseErr != nil {
		return money.Zero, fmt.Errorf("accountsclient: parse balance: %w", parseErr)
	}
	return balance, nil
}
