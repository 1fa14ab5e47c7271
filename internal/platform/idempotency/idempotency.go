// Package idempotency derives deterministic dedup keys for the debit/credit
// calls Transactions makes into Accounts. Grounded on the teacher's
// internal/pkg/idempotency/idempotency.go, generalized from the bare-int
// account/amount pair to account_number + scale-2 money and reused for the
// compensating-credit retry path described in spec.md §9.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key derives a stable SHA-256 key for a single-account mutation: the same
// (kind, account, amount, fundTransferID) always yields the same key, so a
// retried HTTP call against Accounts' internal surface is recognized as a
// duplicate instead of double-applying the mutation.
func Key(kind string, accountNumber int64, amountCents int64, fundTransferID string) string {
	data := fmt.Sprintf("%s:%d:%d:%s", kind, accountNumber, amountCents, fundTransferID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// CompensationKey derives the key for the best-effort compensating credit
// issued after a transfer's destination leg fails: distinct from the
// forward-leg key so a compensation is never mistaken for the original
// debit it is undoing.
func CompensationKey(fundTransferID string) string {
	data := fmt.Sprintf("compensate:%s", fundTransferID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
