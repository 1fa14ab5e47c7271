// Package httpapi exposes Auth's public login/logout surface and the
// internal revocation feed Accounts/Transactions poll.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"digitalbank/internal/authsvc/domain"
	"digitalbank/internal/authsvc/service"
	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/httpmid"
)

type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		httpmid.RespondError(c, apierror.Validation("username and password are required"))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"subject":    result.Subject,
		"role":       result.Role,
		"expires_at": result.ExpiresAt,
	})
}

type logoutRequest struct {
	JTI string `json:"jti"`
}

// Logout revokes the caller's own token, read from the bearer token
// Authenticate already verified, unless an explicit jti is supplied for
// staff-initiated forced logout.
func (h *Handlers) Logout(c *gin.Context) {
	claims, ok := httpmid.ClaimsFromGin(c)
	if !ok {
		httpmid.RespondError(c, apierror.Unauthenticated("missing authentication"))
		return
	}

	jti := claims.JTI
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.JTI != "" && req.JTI != claims.JTI {
		if claims.Role != "ADMIN" && claims.Role != "TELLER" {
			httpmid.RespondError(c, apierror.Forbidden("only staff may revoke another caller's token"))
			return
		}
		jti = req.JTI
	}

	if err := h.svc.Logout(c.Request.Context(), jti); err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": jti})
}

func (h *Handlers) Revocations(c *gin.Context) {
	since := time.Unix(0, 0).UTC()
	if s := c.Query("since"); s != "" {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			since = time.Unix(sec, 0).UTC()
		}
	}

	jtis, err := h.svc.Revocations(c.Request.Context(), since)
	if err != nil {
		httpmid.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": jtis, "as_of": time.Now().UTC().Unix()})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpmid.RespondError(c, apierror.Unauthenticated("invalid username or password"))
	case errors.Is(err, domain.ErrTokenNotFound):
		httpmid.RespondError(c, apierror.NotFound("token not found"))
	case errors.Is(err, domain.ErrAlreadyRevoked):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeConflict, "token already revoked"))
	default:
		httpmid.RespondError(c, err)
	}
}
