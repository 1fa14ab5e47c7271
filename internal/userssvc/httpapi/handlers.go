// Package httpapi exposes Users' public identity CRUD surface and the
// internal verify-credentials/role-lookup surface Auth depends on.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"digitalbank/internal/platform/apierror"
	"digitalbank/internal/platform/httpmid"
	"digitalbank/internal/userssvc/domain"
	"digitalbank/internal/userssvc/service"
)

type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handlers) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}

	id, err := h.svc.Create(c.Request.Context(), req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) Get(c *gin.Context) {
	id := c.Param("id")
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id": u.ID, "username": u.Username, "role": u.Role, "disabled": u.Disabled, "created_at": u.CreatedAt,
	})
}

type updateRoleRequest struct {
	Role *string `json:"role"`
}

func (h *Handlers) Update(c *gin.Context) {
	id := c.Param("id")
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	if req.Role == nil {
		httpmid.RespondError(c, apierror.Validation("role is required"))
		return
	}
	if err := h.svc.UpdateRole(c.Request.Context(), id, domain.Role(*req.Role)); err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "role": *req.Role})
}

func (h *Handlers) Disable(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.SetDisabled(c.Request.Context(), id, true); err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "disabled": true})
}

func (h *Handlers) Enable(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.SetDisabled(c.Request.Context(), id, false); err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "disabled": false})
}

type verifyCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) InternalVerifyCredentials(c *gin.Context) {
	var req verifyCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmid.RespondError(c, apierror.Validation("malformed request body"))
		return
	}
	valid, userID, role, disabled, err := h.svc.VerifyCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httpmid.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid, "user_id": userID, "role": role, "disabled": disabled})
}

func (h *Handlers) InternalGetRole(c *gin.Context) {
	id := c.Param("id")
	role, err := h.svc.GetRole(c.Request.Context(), id)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpmid.RespondError(c, apierror.NotFound("user not found"))
	case errors.Is(err, domain.ErrDuplicate):
		httpmid.RespondError(c, apierror.Conflict(apierror.CodeDuplicate, "username already registered"))
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrWeakPassword), errors.Is(err, domain.ErrInvalidUsername):
		httpmid.RespondError(c, apierror.Validation(err.Error()))
	default:
		httpmid.RespondError(c, err)
	}
}
