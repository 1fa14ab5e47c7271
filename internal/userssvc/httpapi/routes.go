package httpapi

import (
	"github.com/gin-gonic/gin"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/httpmid"
)

const roleAdmin = "ADMIN"

// RegisterRoutes wires Users' public identity-admin surface (ADMIN-only:
// this is staff tooling, not an account holder surface) plus the internal
// verify-credentials/role-lookup surface Auth calls.
func RegisterRoutes(router *gin.Engine, h *Handlers, verifier *authtoken.Verifier, revocations *authtoken.RevocationCache) {
	router.Use(httpmid.Prometheus())

	public := router.Group("/api/v1/users")
	public.Use(httpmid.Authenticate(verifier, revocations), httpmid.RequireRole(roleAdmin))
	{
		public.POST("", h.Create)
		public.GET("/:id", h.Get)
		public.PATCH("/:id", h.Update)
		public.POST("/:id/disable", h.Disable)
		public.POST("/:id/enable", h.Enable)
	}

	internal := router.Group("/api/v1/internal/users")
	{
		internal.POST("/verify-credentials", h.InternalVerifyCredentials)
		internal.GET("/:id/role", h.InternalGetRole)
	}
}
