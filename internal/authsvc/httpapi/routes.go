package httpapi

import (
	"github.com/gin-gonic/gin"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/httpmid"
)

// RegisterRoutes wires Auth's public login/logout surface plus the
// internal revocation feed polled by Accounts and Transactions. Login
// itself carries no bearer token since it is how one is obtained.
func RegisterRoutes(router *gin.Engine, h *Handlers, verifier *authtoken.Verifier, revocations *authtoken.RevocationCache) {
	router.Use(httpmid.Prometheus())

	public := router.Group("/api/v1/auth")
	{
		public.POST("/login", h.Login)

		authenticated := public.Group("")
		authenticated.Use(httpmid.Authenticate(verifier, revocations))
		authenticated.POST("/logout", h.Logout)
	}

	router.GET("/api/v1/internal/auth/revocations", h.Revocations)
}
