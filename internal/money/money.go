// Package money implements exact fixed-point arithmetic for ledger assets.
// Amounts are integer counts of stroops (1e-7 of a unit); floating point is
// never used for monetary values.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed exponent of every ledger asset: one unit is 1e7 stroops.
const Decimals = 7

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrPrecisionLoss = errors.New("amount has more than 7 fractional digits")
	ErrAssetMismatch = errors.New("asset mismatch")
	ErrUnderflow     = errors.New("amount underflow")
)

// Asset identifies a ledger asset by code and issuing account.
// The native asset has an empty issuer.
type Asset struct {
	Code   string
	Issuer string
}

// Native returns the ledger's native asset.
func Native() Asset {
	return Asset{Code: "XLM"}
}

func (a Asset) IsNative() bool {
	return a.Issuer == ""
}

func (a Asset) String() string {
	if a.IsNative() {
		return a.Code
	}

	return a.Code + ":" + a.Issuer
}

// Amount is a quantity of a single asset in stroops.
type Amount struct {
	Units int64
	Asset Asset
}

// Zero returns a zero Amount of the given asset.
func Zero(asset Asset) Amount {
	return Amount{Asset: asset}
}

// Parse converts a display string like "50.0000000" into an Amount.
// Strings with more than 7 fractional digits are rejected with
// ErrPrecisionLoss rather than rounded; negative amounts are rejected.
func Parse(s string, asset Asset) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	if d.Exponent() < -Decimals {
		return Amount{}, fmt.Errorf("%w: %q", ErrPrecisionLoss, s)
	}

	shifted := d.Shift(Decimals)
	if !shifted.BigInt().IsInt64() {
		return Amount{}, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}

	return Amount{Units: shifted.IntPart(), Asset: asset}, nil
}

// Display renders the amount as a fixed 7-decimal string, the canonical form
// used on the ledger. Display(Parse(s)) == s for any canonical s.
func (a Amount) Display() string {
	return decimal.NewFromInt(a.Units).Shift(-Decimals).StringFixed(Decimals)
}

func (a Amount) IsZero() bool {
	return a.Units == 0
}

func (a Amount) Equal(b Amount) bool {
	return a.Asset == b.Asset && a.Units == b.Units
}

// Add returns a+b. Both amounts must share the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Asset != b.Asset {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.Asset, b.Asset)
	}

	return Amount{Units: a.Units + b.Units, Asset: a.Asset}, nil
}

// Sub returns a-b, failing with ErrUnderflow if the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Asset != b.Asset {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.Asset, b.Asset)
	}

	if a.Units < b.Units {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, a.Display(), b.Display())
	}

	return Amount{Units: a.Units - b.Units, Asset: a.Asset}, nil
}
