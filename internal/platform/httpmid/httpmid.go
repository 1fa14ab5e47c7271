// Package httpmid collects the gin middleware shared by all four services:
// Prometheus instrumentation (grounded on the teacher's
// internal/api/middleware/prometheus.go), bearer-token authentication and
// role gating (spec.md §4.5, role matrix), and a request-scoped deadline.
package httpmid

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/authtoken"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed, labeled by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight)
}

// Prometheus records per-route request counts and latencies.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(duration.Seconds())
	}
}

// Deadline attaches a request-scoped deadline to the request context so
// handlers and outbound RPC calls share one end-to-end budget
// (spec.md §5's request-deadline propagation requirement).
func Deadline(budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), budget)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// revokedChecker is satisfied by *authtoken.RevocationCache; declared as an
// interface so handlers can be tested with a fake.
type revokedChecker interface {
	IsRevoked(jti string) bool
}

// Authenticate parses the bearer token, rejects revoked or malformed
// tokens, and stores the verified claims on the gin and request contexts.
func Authenticate(verifier *authtoken.Verifier, revocations revokedChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithAPIError(c, apierror.Unauthenticated("missing bearer token"))
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := verifier.Parse(tokenString)
		if err != nil {
			abortWithAPIError(c, apierror.Unauthenticated("invalid or expired token"))
			return
		}
		if revocations != nil && revocations.IsRevoked(claims.JTI) {
			abortWithAPIError(c, apierror.Unauthenticated("token has been revoked"))
			return
		}

		c.Set("claims", claims)
		c.Request = c.Request.WithContext(authtoken.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireRole enforces the role matrix gating of spec.md §4.5: the caller's
// role must be one of allowed, or the request is rejected as forbidden.
// ADMIN is not implicitly granted access here — each route lists every role
// permitted to call it, ADMIN included where it applies.
func RequireRole(allowed ...string) gin.HandlerFunc {
	permitted := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		permitted[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := ClaimsFromGin(c)
		if !ok {
			abortWithAPIError(c, apierror.Unauthenticated("missing authentication"))
			return
		}
		if _, ok := permitted[claims.Role]; !ok {
			abortWithAPIError(c, apierror.Forbidden("role does not permit this operation"))
			return
		}
		c.Next()
	}
}

// RequireOwnerOrRole enforces the "CUSTOMER-of-account" clause of spec.md
// §6's role matrix: staffRoles pass unconditionally, anyone else must hold
// the CUSTOMER role and a subject claim matching the account number named
// by the given path parameter. A CUSTOMER token's subject is the account
// number it was issued for — Accounts carries no separate owner-user link,
// so ownership is the token's subject claim itself.
func RequireOwnerOrRole(accountParam string, staffRoles ...string) gin.HandlerFunc {
	permitted := make(map[string]struct{}, len(staffRoles))
	for _, role := range staffRoles {
		permitted[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := ClaimsFromGin(c)
		if !ok {
			abortWithAPIError(c, apierror.Unauthenticated("missing authentication"))
			return
		}
		if _, ok := permitted[claims.Role]; ok {
			c.Next()
			return
		}
		if claims.Role == "CUSTOMER" && claims.Subject == c.Param(accountParam) {
			c.Next()
			return
		}
		abortWithAPIError(c, apierror.Forbidden("role does not permit this operation"))
	}
}

// ClaimsFromGin reads the claims Authenticate stored on the gin context.
func ClaimsFromGin(c *gin.Context) (authtoken.Claims, bool) {
	v, ok := c.Get("claims")
	if !ok {
		return authtoken.Claims{}, false
	}
	claims, ok := v.(authtoken.Claims)
	return claims, ok
}

func abortWithAPIError(c *gin.Context, apiErr apierror.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// RespondError maps a domain/storage error into the right JSON envelope; it
// is the single place handlers go through to turn an error into an HTTP
// response, so apierror's taxonomy is the only vocabulary the wire sees.
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := err.(apierror.APIError); ok {
		c.JSON(apiErr.Status, apiErr)
		return
	}
	c.JSON(http.StatusInternalServerError, apierror.StorageFailure("unexpected error"))
}
