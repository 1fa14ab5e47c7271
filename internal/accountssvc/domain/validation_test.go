package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"digitalbank/internal/accountssvc/domain"
	"digitalbank/internal/platform/config"
)

func TestValidateDateOfBirth(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, domain.ValidateDateOfBirth(now.AddDate(-18, 0, 0), now))
	assert.NoError(t, domain.ValidateDateOfBirth(now.AddDate(-30, 0, 0), now))
	assert.ErrorIs(t, domain.ValidateDateOfBirth(now.AddDate(-17, 0, -1), now), domain.ErrAgeRestriction)
}

func TestValidateHolderName(t *testing.T) {
	assert.NoError(t, domain.ValidateHolderName("Jane Doe"))
	assert.ErrorIs(t, domain.ValidateHolderName("   "), domain.ErrInvalidName)

	tooLong := make([]byte, 256)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	assert.ErrorIs(t, domain.ValidateHolderName(string(tooLong)), domain.ErrInvalidName)
}

func TestValidatePin(t *testing.T) {
	policy := config.DefaultPinPolicy()

	assert.NoError(t, domain.ValidatePin("4821", policy))
	assert.ErrorIs(t, domain.ValidatePin("123", policy), domain.ErrInvalidPin, "too short")
	assert.ErrorIs(t, domain.ValidatePin("1111", policy), domain.ErrInvalidPin, "uniform")
	assert.ErrorIs(t, domain.ValidatePin("1234", policy), domain.ErrInvalidPin, "ascending sequential")
	assert.ErrorIs(t, domain.ValidatePin("4321", policy), domain.ErrInvalidPin, "descending sequential")
	assert.ErrorIs(t, domain.ValidatePin("12a4", policy), domain.ErrInvalidPin, "non-digit")
}

func TestValidatePhone(t *testing.T) {
	policy := config.DefaultPinPolicy()
	assert.NoError(t, domain.ValidatePhone("9876543210", policy))
	assert.ErrorIs(t, domain.ValidatePhone("123", policy), domain.ErrInvalidPhone)
	assert.ErrorIs(t, domain.ValidatePhone("98765abcde", policy), domain.ErrInvalidPhone)
}

func TestValidateWebsite(t *testing.T) {
	assert.NoError(t, domain.ValidateWebsite(nil))

	empty := ""
	assert.NoError(t, domain.ValidateWebsite(&empty))

	good := "https://example.com"
	assert.NoError(t, domain.ValidateWebsite(&good))

	bad := "not-a-url"
	assert.ErrorIs(t, domain.ValidateWebsite(&bad), domain.ErrInvalidWebsite)
}

func TestPrivilegeValid(t *testing.T) {
	assert.True(t, domain.PrivilegeSilver.Valid())
	assert.True(t, domain.PrivilegeGold.Valid())
	assert.True(t, domain.PrivilegePremium.Valid())
	assert.False(t, domain.Privilege("PLATINUM").Valid())
}

func TestGenderValid(t *testing.T) {
	assert.True(t, domain.Gender("Male").Valid())
	assert.True(t, domain.Gender("Female").Valid())
	assert.True(t, domain.Gender("Others").Valid())
	assert.False(t, domain.Gender("Unknown").Valid())
}
