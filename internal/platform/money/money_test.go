package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitalbank/internal/platform/money"
)

func TestParse_RejectsBadScale(t *testing.T) {
	cases := []string{"10000", "100", "0.1", "1.005", "abc", ""}
	for _, c := range cases {
		_, err := money.Parse(c)
		assert.Errorf(t, err, "expected %q to be rejected", c)
	}
}

func TestParse_AcceptsExactlyTwoFractionDigits(t *testing.T) {
	m, err := money.Parse("5.00")
	require.NoError(t, err)
	assert.Equal(t, "5.00", m.String())
}

func TestAddSub(t *testing.T) {
	a := money.MustParse("100.50")
	b := money.MustParse("0.50")
	assert.Equal(t, "101.00", a.Add(b).String())
	assert.Equal(t, "100.00", a.Sub(b).String())
}

func TestWouldOverflow(t *testing.T) {
	near := money.New(1<<63 - 1)
	assert.True(t, near.WouldOverflow(money.New(1)))
	assert.False(t, money.Zero.WouldOverflow(money.New(100)))
}

func TestCents(t *testing.T) {
	m := money.MustParse("42.37")
	assert.Equal(t, int64(4237), m.Cents())
}

func TestValueAndScan(t *testing.T) {
	m := money.MustParse("12.34")
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "12.34", v)

	var scanned money.Money
	require.NoError(t, scanned.Scan("12.34"))
	assert.True(t, m.Equal(scanned))

	var fromBytes money.Money
	require.NoError(t, fromBytes.Scan([]byte("12.34")))
	assert.True(t, m.Equal(fromBytes))

	var fromNil money.Money
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())
}
