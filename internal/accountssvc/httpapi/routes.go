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

// RegisterRoutes wires Accounts' public and internal surfaces, gated per
// spec.md §6's role matrix. The internal surface carries no authentication
// middleware at all; it relies on a network boundary (reverse proxy /
// service mesh policy) restricting it to Transactions.
func RegisterRoutes(router *gin.Engine, h *Handlers, verifier *authtoken.Verifier, revocations *authtoken.RevocationCache) {
	router.Use(httpmid.Prometheus())

	public := router.Group("/api/v1")
	public.Use(httpmid.Authenticate(verifier, revocations))
	{
		public.POST("/accounts/savings", httpmid.RequireRole(roleAdmin, roleTeller), h.CreateSavings)
		public.POST("/accounts/current", httpmid.RequireRole(roleAdmin, roleTeller), h.CreateCurrent)
		public.GET("/accounts/:account_number", httpmid.RequireOwnerOrRole("account_number", roleAdmin, roleTeller), h.Get)
		public.PATCH("/accounts/:account_number", httpmid.RequireRole(roleAdmin, roleTeller), h.Update)
		public.PUT("/accounts/:account_number/activate", httpmid.RequireRole(roleAdmin), h.Activate)
		public.PUT("/accounts/:account_number/inactivate", httpmid.RequireRole(roleAdmin), h.Inactivate)
		public.POST("/accounts/:account_number/close", httpmid.RequireRole(roleAdmin), h.Close)
		public.POST("/accounts/:account_number/verify-pin", httpmid.RequireOwnerOrRole("account_number", roleAdmin, roleTeller), h.VerifyPin)
		public.GET("/internal/accounts/:account_number/audit", httpmid.RequireRole(roleAdmin, roleTeller), h.Audit)
	}

	internal := router.Group("/api/v1/internal/accounts")
	{
		internal.GET("/:account_number", h.InternalGet)
		internal.GET("/:account_number/privilege", h.InternalGetPrivilege)
		internal.GET("/:account_number/active", h.InternalGetActive)
		internal.POST("/:account_number/verify-pin", h.InternalVerifyPin)
		internal.POST("/:account_number/debit", h.InternalDebit)
		internal.POST("/:account_number/credit", h.InternalCredit)
	}
}
