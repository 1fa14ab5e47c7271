package httpapi

import (
	"github.com/gin-gonic/gin"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/httpmid"
)

const (
	roleAdmin    = "ADMIN"
	roleTeller   = "TELLER"
	roleCustomer = "CUSTOMER"
)

// RegisterRoutes wires Transactions' public surface, gated per spec.md §6.
// Deposit/Withdraw/Transfer additionally check account ownership for
// CUSTOMER callers inside the handler itself, since the account number
// travels in the request body rather than the path.
func RegisterRoutes(router *gin.Engine, h *Handlers, verifier *authtoken.Verifier, revocations *authtoken.RevocationCache) {
	router.Use(httpmid.Prometheus())

	public := router.Group("/api/v1")
	public.Use(httpmid.Authenticate(verifier, revocations))
	{
		public.POST("/deposits", httpmid.RequireRole(roleAdmin, roleTeller, roleCustomer), h.Deposit)
		public.POST("/withdrawals", httpmid.RequireRole(roleAdmin, roleTeller, roleCustomer), h.Withdraw)
		public.POST("/transfers", httpmid.RequireRole(roleAdmin, roleTeller, roleCustomer), h.Transfer)
		public.GET("/transfer-limits/:account", httpmid.RequireOwnerOrRole("account", roleAdmin, roleTeller), h.TransferLimits)
		public.GET("/transaction-logs/:account", httpmid.RequireOwnerOrRole("account", roleAdmin, roleTeller), h.TransactionLogs)
	}
}
