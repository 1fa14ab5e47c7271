package authtoken

import (
	"context"
	"strconv"
	"time"

	"digitalbank/internal/platform/logging"
	"digitalbank/internal/platform/rpc"
)

// RevocationPoller periodically pulls newly-revoked token ids from Auth's
// internal feed into a local RevocationCache, the read-through design
// SPEC_FULL.md's supplemented revoked-token-cache feature calls for:
// Accounts and Transactions verify tokens locally and only learn about
// revocations on this short delay rather than calling Auth per request.
type RevocationPoller struct {
	client   *rpc.Client
	cache    *RevocationCache
	interval time.Duration
	since    time.Time
}

func NewRevocationPoller(authBaseURL string, callTimeout time.Duration, cache *RevocationCache, interval time.Duration) *RevocationPoller {
	return &RevocationPoller{
		client:   rpc.New(authBaseURL, callTimeout),
		cache:    cache,
		interval: interval,
		since:    time.Now().UTC(),
	}
}

// Run blocks, polling until ctx is canceled. Call it in its own goroutine.
func (p *RevocationPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *RevocationPoller) pollOnce(ctx context.Context) {
	var resp struct {
		Revoked []string `json:"revoked"`
		AsOf    int64    `json:"as_of"`
	}
	path := "/revocations?since=" + strconv.FormatInt(p.since.Unix(), 10)
	if err := p.client.Get(ctx, path, &resp); err != nil {
		logging.Warn("failed to poll revocation feed", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, jti := range resp.Revoked {
		p.cache.Revoke(jti)
	}
	if resp.AsOf > 0 {
		p.since = time.Unix(resp.AsOf, 0).UTC()
	}
}
