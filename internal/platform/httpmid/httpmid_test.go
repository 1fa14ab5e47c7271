package httpmid_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"digitalbank/internal/platform/authtoken"
	"digitalbank/internal/platform/httpmid"
)

func withClaims(claims authtoken.Claims, hasClaims bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasClaims {
			c.Set("claims", claims)
		}
		c.Next()
	}
}

func runOwnerOrRole(claims authtoken.Claims, hasClaims bool, accountParam, paramValue string, staffRoles ...string) int {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withClaims(claims, hasClaims))
	router.GET("/accounts/:"+accountParam, httpmid.RequireOwnerOrRole(accountParam, staffRoles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/accounts/"+paramValue, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp.Code
}

func TestRequireOwnerOrRole_AllowsStaffRegardlessOfSubject(t *testing.T) {
	code := runOwnerOrRole(authtoken.Claims{Subject: "9999", Role: "ADMIN"}, true, "account_number", "1000", "ADMIN", "TELLER")
	assert.Equal(t, http.StatusOK, code)
}

func TestRequireOwnerOrRole_AllowsMatchingCustomer(t *testing.T) {
	code := runOwnerOrRole(authtoken.Claims{Subject: "1000", Role: "CUSTOMER"}, true, "account_number", "1000", "ADMIN", "TELLER")
	assert.Equal(t, http.StatusOK, code)
}

func TestRequireOwnerOrRole_RejectsMismatchedCustomer(t *testing.T) {
	code := runOwnerOrRole(authtoken.Claims{Subject: "1001", Role: "CUSTOMER"}, true, "account_number", "1000", "ADMIN", "TELLER")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRequireOwnerOrRole_RejectsMissingAuthentication(t *testing.T) {
	code := runOwnerOrRole(authtoken.Claims{}, false, "account_number", "1000", "ADMIN", "TELLER")
	assert.Equal(t, http.StatusUnauthorized, code)
}
