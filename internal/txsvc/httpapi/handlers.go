// Package httpapi exposes Transactions' public surface: deposits,
// withdrawals, transfers, and the two read endpoints spec.md §6 lists.
// Grounded on the teacher's internal/api/handlers/account.go closure
// style, generalized to call into txsvc/service instead of a store
// directly since every mutation here crosses a service boundary first.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/platform/money"
	"digitalbank/internal/txsvc/domain"
	"digitalbank/internal/txsvc/service"
)

type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

type depositRequest struct {
	AccountNumber int64  `json:"account_number"`
	Amount        string `json:"amount"`
}

func (h *Handlers) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpmid.RespondError(c, apierror.Validation("amount must be a decimal string with exactly 2 fractional digits"))
		return
	}
	if !ownsOrStaff(c, req.AccountNumber) {
		return
	}

	ft, err := h.svc.Deposit(c.Request.Context(), req.AccountNumber, amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	logging.Info("deposit completed", map[string]interface{}{"account_number": req.AccountNumber, "amount": amount.String()})
	c.JSON(http.StatusCreated, fundTransferResponse(ft))
}

type withdrawRequest struct {
	AccountNumber int64  `json:"account_number"`
	Amount        string `json:"amount"`
	Pin           string `json:"pin"`
}

func (h *Handlers) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpmid.RespondError(c, apierror.Validation("amount must be a decimal string with exactly 2 fractional digits"))
		return
	}
	if !ownsOrStaff(c, req.AccountNumber) {
		return
	}

	ft, err := h.svc.Withdraw(c.Request.Context(), req.AccountNumber, amount, req.Pin)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	logging.Info("withdrawal completed", map[string]interface{}{"account_number": req.AccountNumber, "amount": amount.String()})
	c.JSON(http.StatusCreated, fundTransferResponse(ft))
}

type transferRequest struct {
	FromAccount int64  `json:"from_account"`
	ToAccount   int64  `json:"to_account"`
	Amount      string `json:"amount"`
	Mode        string `json:"mode"`
	Pin         string `json:"pin"`
}

func (h *Handlers) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpmid.RespondError(c, apierror.Validation("amount must be a decimal string with exactly 2 fractional digits"))
		return
	}
	if !ownsOrStaff(c, req.FromAccount) {
		return
	}

	ft, err := h.svc.Transfer(c.Request.Context(), req.FromAccount, req.ToAccount, amount, domain.TransferMode(req.Mode), req.Pin)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	logging.Info("transfer completed", map[string]interface{}{
		"from_account": req.FromAccount, "to_account": req.ToAccount, "amount": amount.String(),
	})
	c.JSON(http.StatusCreated, fundTransferResponse(ft))
}

func (h *Handlers) TransferLimits(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	snapshot, err := h.svc.TransferLimits(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"privilege":        snapshot.Privilege,
		"cap_amount":       snapshot.CapAmount.String(),
		"cap_count":        snapshot.CapCount,
		"used_amount":      snapshot.UsedAmount.String(),
		"used_count":       snapshot.UsedCount,
		"remaining_amount": snapshot.RemainingAmount.String(),
		"remaining_count":  snapshot.RemainingCount,
	})
}

func (h *Handlers) TransactionLogs(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	entries, err := h.svc.TransactionLogs(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"id":             e.ID,
			"account_number": e.AccountNumber,
			"amount":         e.Amount.String(),
			"kind":           e.Kind,
			"at":             e.At,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func fundTransferResponse(ft domain.FundTransfer) gin.H {
	return gin.H{
		"id":           ft.ID,
		"from_account": ft.FromAccount,
		"to_account":   ft.ToAccount,
		"amount":       ft.Amount.String(),
		"mode":         ft.Mode,
		"status":       ft.Status,
		"at":           ft.At,
	}
}

// ownsOrStaff enforces the "CUSTOMER-of-account" clause of spec.md §6 for
// endpoints that carry the account number in the request body rather than
// the path. ADMIN and TELLER pass unconditionally; a CUSTOMER token's
// subject must equal the account it is operating against.
func ownsOrStaff(c *gin.Context, accountNumber int64) bool {
	claims, ok := httpmid.ClaimsFromGin(c)
	if !ok {
		httpmid.RespondError(c, apierror.Unauthenticated("missing authentication"))
		return false
	}
	if claims.Role == "ADMIN" || claims.Role == "TELLER" {
		return true
	}
	if claims.Role == "CUSTOMER" && claims.Subject == strconv.FormatInt(accountNumber, 10) {
		return true
	}
	httpmid.RespondError(c, apierror.Forbidden("role does not permit this operation"))
	return false
}

func parseAccountNumber(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("account"), 10, 64)
	if err != nil || n <= 0 {
		httpmid.RespondError(c, apierror.Validation("account must be a positive integer"))
		return 0, false
	}
	return n, true
}

// respondDomainError maps the domain sentinel errors Service can still
// return in their bare form (apierror.APIError values it already builds
// pass straight through via the default case) onto the status codes
// spec.md §7 specifies.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSameAccount):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeSameAccount, "from and to accounts must differ"))
	case errors.Is(err, domain.ErrInvalidMode):
		httpmid.RespondError(c, apierror.Validation("mode must be one of NEFT, RTGS, IMPS, UPI, CHEQUE"))
	case errors.Is(err, domain.ErrAmountTooLarge):
		httpmid.RespondError(c, apierror.Validation("amount exceeds the maximum deposit"))
	case errors.Is(err, domain.ErrNotFound):
		httpmid.RespondError(c, apierror.NotFound("transfer not found"))
	default:
		httpmid.RespondError(c, err)
	}
}
