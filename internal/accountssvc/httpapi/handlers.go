// Package httpapi exposes Accounts' public and internal HTTP surfaces.
// Grounded on the teacher's internal/api/handlers/{account,deposit,...}.go:
// closure-based handler constructors capturing store/publisher at route
// registration time, gin.H JSON envelopes, logging.Info on account
// creation and logging.Warn on event-publish failures.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"digitalbank/internal/accountssvc/domain"
	"digitalbank/internal/accountssvc/store"
	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/config"
	"digitalbank/internal/platform/events"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/platform/logging"
	"digitalbank/internal/platform/money"
)

type Handlers struct {
	store     *store.Store
	publisher events.Publisher
	pinRules  config.PinPolicy
}

func NewHandlers(s *store.Store, publisher events.Publisher, pinRules config.PinPolicy) *Handlers {
	return &Handlers{store: s, publisher: publisher, pinRules: pinRules}
}

type createSavingsRequest struct {
	HolderName  string  `json:"holder_name"`
	Pin         string  `json:"pin"`
	DateOfBirth string  `json:"date_of_birth"`
	Gender      string  `json:"gender"`
	Phone       string  `json:"phone"`
	Privilege   *string `json:"privilege"`
}

func (h *Handlers) CreateSavings(c *gin.Context) {
	var req createSavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		httpmid.RespondError(c, apierror.Validation("date_of_birth must be YYYY-MM-DD"))
		return
	}
	if err := domain.ValidateDateOfBirth(dob, time.Now().UTC()); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if err := domain.ValidateHolderName(req.HolderName); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if err := domain.ValidatePin(req.Pin, h.pinRules); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if err := domain.ValidatePhone(req.Phone, h.pinRules); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	gender := domain.Gender(req.Gender)
	if !gender.Valid() {
		httpmid.RespondError(c, apierror.Validation("gender must be one of Male, Female, Others"))
		return
	}
	privilege := domain.PrivilegeSilver
	if req.Privilege != nil {
		privilege = domain.Privilege(*req.Privilege)
	}
	if !privilege.Valid() {
		httpmid.RespondError(c, apierror.Validation("privilege must be one of SILVER, GOLD, PREMIUM"))
		return
	}

	accountNumber, err := h.store.CreateSavings(c.Request.Context(), store.CreateSavingsParams{
		HolderName: req.HolderName, Pin: req.Pin, DateOfBirth: dob,
		Gender: gender, Phone: req.Phone, Privilege: privilege,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.publishAccountCreated(accountNumber, domain.KindSavings, privilege)
	logging.Info("savings account created", map[string]interface{}{"account_number": accountNumber})
	c.JSON(http.StatusCreated, gin.H{"account_number": accountNumber})
}

type createCurrentRequest struct {
	HolderName         string  `json:"holder_name"`
	Pin                string  `json:"pin"`
	CompanyName        string  `json:"company_name"`
	Website            *string `json:"website"`
	RegistrationNumber string  `json:"registration_number"`
	Privilege          *string `json:"privilege"`
}

func (h *Handlers) CreateCurrent(c *gin.Context) {
	var req createCurrentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}

	if err := domain.ValidateHolderName(req.HolderName); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if err := domain.ValidatePin(req.Pin, h.pinRules); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if err := domain.ValidateWebsite(req.Website); err != nil {
		httpmid.RespondError(c, apierror.Validation(err.Error()))
		return
	}
	if req.RegistrationNumber == "" {
		httpmid.RespondError(c, apierror.Validation("registration_number is required"))
		return
	}
	privilege := domain.PrivilegeSilver
	if req.Privilege != nil {
		privilege = domain.Privilege(*req.Privilege)
	}
	if !privilege.Valid() {
		httpmid.RespondError(c, apierror.Validation("privilege must be one of SILVER, GOLD, PREMIUM"))
		return
	}

	accountNumber, err := h.store.CreateCurrent(c.Request.Context(), store.CreateCurrentParams{
		HolderName: req.HolderName, Pin: req.Pin, CompanyName: req.CompanyName,
		Website: req.Website, RegistrationNumber: req.RegistrationNumber, Privilege: privilege,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.publishAccountCreated(accountNumber, domain.KindCurrent, privilege)
	logging.Info("current account created", map[string]interface{}{"account_number": accountNumber})
	c.JSON(http.StatusCreated, gin.H{"account_number": accountNumber})
}

func (h *Handlers) publishAccountCreated(accountNumber int64, kind domain.Kind, privilege domain.Privilege) {
	if err := h.publisher.PublishAccountCreated(events.AccountCreatedEvent{
		AccountNumber: accountNumber, AccountType: string(kind), Privilege: string(privilege),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish account created event", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handlers) Get(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}

	acc, err := h.store.Get(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := gin.H{
		"account_number": acc.AccountNumber,
		"kind":           acc.Kind,
		"holder_name":    acc.HolderName,
		"balance":        acc.Balance.String(),
		"privilege":      acc.Privilege,
		"active":         acc.Active,
		"activated_at":   acc.ActivatedAt,
		"closed_at":      acc.ClosedAt,
	}

	switch acc.Kind {
	case domain.KindSavings:
		details, err := h.store.GetSavingsDetails(c.Request.Context(), accountNumber)
		if err == nil {
			resp["date_of_birth"] = details.DateOfBirth.Format("2006-01-02")
			resp["gender"] = details.Gender
			resp["phone"] = details.PhoneNumber
		}
	case domain.KindCurrent:
		details, err := h.store.GetCurrentDetails(c.Request.Context(), accountNumber)
		if err == nil {
			resp["company_name"] = details.CompanyName
			resp["website"] = details.Website
			resp["registration_number"] = details.RegistrationNumber
		}
	}

	c.JSON(http.StatusOK, resp)
}

type updateRequest struct {
	Name      *string `json:"name"`
	Privilege *string `json:"privilege"`
}

func (h *Handlers) Update(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	if req.Name == nil && req.Privilege == nil {
		httpmid.RespondError(c, apierror.Validation("at least one field must be supplied"))
		return
	}

	params := store.UpdateParams{Name: req.Name}
	if req.Privilege != nil {
		p := domain.Privilege(*req.Privilege)
		if !p.Valid() {
			httpmid.RespondError(c, apierror.Validation("privilege must be one of SILVER, GOLD, PREMIUM"))
			return
		}
		params.Privilege = &p
	}

	if err := h.store.Update(c.Request.Context(), accountNumber, params); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Activate(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	if err := h.store.Activate(c.Request.Context(), accountNumber); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Inactivate(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	if err := h.store.Inactivate(c.Request.Context(), accountNumber); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Close(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	if err := h.store.Close(c.Request.Context(), accountNumber); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type verifyPinRequest struct {
	Pin string `json:"pin"`
}

func (h *Handlers) VerifyPin(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	var req verifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	valid, err := h.store.VerifyPin(c.Request.Context(), accountNumber, req.Pin)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (h *Handlers) Audit(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	rows, err := h.store.ListAudit(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": rows})
}

// --- privileged internal surface, called only by Transactions ---

func (h *Handlers) InternalGet(c *gin.Context) {
	h.Get(c)
}

func (h *Handlers) InternalGetPrivilege(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	privilege, err := h.store.InternalGetPrivilege(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"privilege": privilege})
}

func (h *Handlers) InternalGetActive(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	status, err := h.store.InternalGetActive(c.Request.Context(), accountNumber)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": status.Exists, "active": status.Active, "closed": status.Closed})
}

func (h *Handlers) InternalVerifyPin(c *gin.Context) {
	h.VerifyPin(c)
}

type internalAmountRequest struct {
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *Handlers) InternalDebit(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	amount, key, ok := h.parseAmount(c)
	if !ok {
		return
	}

	newBalance, err := h.store.InternalDebit(c.Request.Context(), accountNumber, amount, key)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.publishBalanceUpdated(accountNumber, newBalance, money.Zero.Sub(amount))
	c.JSON(http.StatusOK, gin.H{"balance": newBalance.String()})
}

func (h *Handlers) InternalCredit(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	amount, key, ok := h.parseAmount(c)
	if !ok {
		return
	}

	newBalance, err := h.store.InternalCredit(c.Request.Context(), accountNumber, amount, key)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.publishBalanceUpdated(accountNumber, newBalance, amount)
	c.JSON(http.StatusOK, gin.H{"balance": newBalance.String()})
}

func (h *Handlers) publishBalanceUpdated(accountNumber int64, balanceAfter, delta money.Money) {
	if err := h.publisher.PublishBalanceUpdated(events.BalanceUpdatedEvent{
		AccountNumber: accountNumber, BalanceAfter: balanceAfter.String(), Delta: delta.String(),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		logging.Warn("failed to publish balance updated event", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handlers) parseAmount(c *gin.Context) (money.Money, string, bool) {
	var req internalAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return money.Zero, "", false
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		httpmid.RespondError(c, apierror.Validation("amount must be a decimal string with exactly 2 fractional digits"))
		return money.Zero, "", false
	}
	if !amount.IsPositive() {
		httpmid.RespondError(c, apierror.Validation("amount must be greater than zero"))
		return money.Zero, "", false
	}
	return amount, req.IdempotencyKey, true
}

func parseAccountNumber(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("account_number"), 10, 64)
	if err != nil || n <= 0 {
		httpmid.RespondError(c, apierror.Validation("account_number must be a positive integer"))
		return 0, false
	}
	return n, true
}

func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpmid.RespondError(c, apierror.NotFound("account not found"))
	case errors.Is(err, domain.ErrDuplicate):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeDuplicate, "account identity already exists"))
	case errors.Is(err, domain.ErrAlreadyActive):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeAlreadyActive, "account is already active"))
	case errors.Is(err, domain.ErrAlreadyInactive):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeAlreadyInactive, "account is already inactive"))
	case errors.Is(err, domain.ErrAccountClosed):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeAccountClosed, "account is closed"))
	case errors.Is(err, domain.ErrAccountInactive):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeAccountInactive, "account is inactive"))
	case errors.Is(err, domain.ErrInsufficientFunds):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeInsufficientFunds, "insufficient funds"))
	case errors.Is(err, domain.ErrBalanceOverflow):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeBalanceOverflow, "balance would exceed the representable maximum"))
	default:
		httpmid.RespondError(c, err)
	}
}
