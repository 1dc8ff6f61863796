package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidbridge/aidbridge/internal/money"
)

var usdc = money.Asset{Code: "USDC", Issuer: "GBBD47IF6LWK7P7MDEVSCWR7DPUWV3NY3DTQEVFL4NAT4AQH3ZLLFLA5"}

func TestParse(t *testing.T) {
	type testCase struct {
		name      string
		input     string
		wantUnits int64
		wantErr   error
	}

	tests := []testCase{
		{name: "WholeUnits", input: "50", wantUnits: 500_000_000},
		{name: "FullPrecision", input: "50.0000000", wantUnits: 500_000_000},
		{name: "SmallestUnit", input: "0.0000001", wantUnits: 1},
		{name: "Zero", input: "0", wantUnits: 0},
		{name: "TrimmedWhitespace", input: " 12.5 ", wantUnits: 125_000_000},
		{name: "TooManyDigits", input: "1.00000001", wantErr: money.ErrPrecisionLoss},
		{name: "TrailingZerosPastPrecision", input: "1.00000000", wantErr: money.ErrPrecisionLoss},
		{name: "Negative", input: "-1", wantErr: money.ErrInvalidAmount},
		{name: "NotANumber", input: "fifty", wantErr: money.ErrInvalidAmount},
		{name: "Empty", input: "", wantErr: money.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input, usdc)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnits, got.Units)
			assert.Equal(t, usdc, got.Asset)
		})
	}
}

func TestDisplay_RoundTrip(t *testing.T) {
	canonical := []string{
		"0.0000000",
		"0.0000001",
		"1.0000000",
		"50.0000000",
		"123.4567890",
		"922337203685.4775807",
	}

	for _, s := range canonical {
		amt, err := money.Parse(s, usdc)
		require.NoError(t, err, s)
		assert.Equal(t, s, amt.Display())
	}
}

func TestDisplay_Canonicalizes(t *testing.T) {
	amt, err := money.Parse("50", usdc)
	require.NoError(t, err)
	assert.Equal(t, "50.0000000", amt.Display())
}

func TestAdd(t *testing.T) {
	a, err := money.Parse("10.25", usdc)
	require.NoError(t, err)

	b, err := money.Parse("0.0000001", usdc)
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.2500001", sum.Display())

	_, err = a.Add(money.Amount{Units: 1, Asset: money.Native()})
	assert.ErrorIs(t, err, money.ErrAssetMismatch)
}

func TestSub(t *testing.T) {
	a, err := money.Parse("10", usdc)
	require.NoError(t, err)

	b, err := money.Parse("4.5", usdc)
	require.NoError(t, err)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "5.5000000", diff.Display())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, money.ErrUnderflow)

	_, err = a.Sub(money.Amount{Units: 1, Asset: money.Native()})
	assert.ErrorIs(t, err, money.ErrAssetMismatch)
}

func TestAsset(t *testing.T) {
	assert.True(t, money.Native().IsNative())
	assert.False(t, usdc.IsNative())
	assert.Equal(t, "XLM", money.Native().String())
	assert.Equal(t, "USDC:"+usdc.Issuer, usdc.String())

	assert.True(t, money.Zero(usdc).IsZero())
}
