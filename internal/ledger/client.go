// Package ledger is a read-only client for a Horizon-compatible ledger API.
// It answers the questions the reconciler needs answered: does an account
// exist, what does it hold, and did a claimed transfer actually happen.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/aidbridge/aidbridge/internal/money"
)

var (
	// ErrNotFound means the queried resource does not exist on the ledger.
	ErrNotFound = errors.New("ledger: not found")

	// ErrInvalidRequest means the query itself was malformed (e.g. a bad
	// account address). Never retried.
	ErrInvalidRequest = errors.New("ledger: invalid request")

	// ErrUnavailable means the ledger could not be reached after the retry
	// budget was exhausted. Transient; callers may retry later.
	ErrUnavailable = errors.New("ledger: unavailable")
)

// Balance is one asset position held by an account.
type Balance struct {
	Asset  money.Asset
	Amount money.Amount
}

// TransferRecord is a ledger-confirmed payment, looked up by transaction hash.
type TransferRecord struct {
	Reference   string
	Source      string
	Destination string
	Amount      money.Amount
	Successful  bool
	Ledger      int32
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	MaxTries  uint
	RetryBase time.Duration
	RetryCap  time.Duration
}

type Client struct {
	baseURL  string
	http     *http.Client
	maxTries uint
	base     time.Duration
	cap      time.Duration
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}

	if cfg.RetryBase == 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}

	if cfg.RetryCap == 0 {
		cfg.RetryCap = 2 * time.Second
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		maxTries: cfg.MaxTries,
		base:     cfg.RetryBase,
		cap:      cfg.RetryCap,
	}
}

// AccountExists reports whether the account is present on the ledger.
// Returns ErrUnavailable if the ledger cannot be queried.
func (c *Client) AccountExists(ctx context.Context, address string) (bool, error) {
	var acc accountResponse

	err := c.get(ctx, "/accounts/"+url.PathEscape(address), &acc)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Balances returns every asset position held by the account.
func (c *Client) Balances(ctx context.Context, address string) ([]Balance, error) {
	var acc accountResponse

	if err := c.get(ctx, "/accounts/"+url.PathEscape(address), &acc); err != nil {
		return nil, err
	}

	balances := make([]Balance, 0, len(acc.Balances))

	for _, b := range acc.Balances {
		asset := money.Native()
		if b.AssetType != "native" {
			asset = money.Asset{Code: b.AssetCode, Issuer: b.AssetIssuer}
		}

		amt, err := money.Parse(b.Balance, asset)
		if err != nil {
			return nil, fmt.Errorf("parsing balance for %s: %w", asset, err)
		}

		balances = append(balances, Balance{Asset: asset, Amount: amt})
	}

	return balances, nil
}

// HasTrustline reports whether the account can receive the given asset.
// The native asset needs no trustline.
func (c *Client) HasTrustline(ctx context.Context, address string, asset money.Asset) (bool, error) {
	if asset.IsNative() {
		return true, nil
	}

	balances, err := c.Balances(ctx, address)
	if err != nil {
		return false, err
	}

	for _, b := range balances {
		if b.Asset == asset {
			return true, nil
		}
	}

	return false, nil
}

// LookupTransfer fetches the payment made by the transaction with the given
// hash. Returns ErrNotFound if the transaction does not exist or contains no
// payment operation.
func (c *Client) LookupTransfer(ctx context.Context, reference string) (*TransferRecord, error) {
	var tx transactionResponse

	if err := c.get(ctx, "/transactions/"+url.PathEscape(reference), &tx); err != nil {
		return nil, err
	}

	var page paymentsPage

	if err := c.get(ctx, "/transactions/"+url.PathEscape(reference)+"/payments", &page); err != nil {
		return nil, err
	}

	for _, p := range page.Embedded.Records {
		if p.Type != "payment" {
			continue
		}

		asset := money.Native()
		if p.AssetType != "native" {
			asset = money.Asset{Code: p.AssetCode, Issuer: p.AssetIssuer}
		}

		amt, err := money.Parse(p.Amount, asset)
		if err != nil {
			return nil, fmt.Errorf("parsing transfer amount: %w", err)
		}

		return &TransferRecord{
			Reference:   tx.Hash,
			Source:      p.From,
			Destination: p.To,
			Amount:      amt,
			Successful:  tx.Successful,
			Ledger:      tx.Ledger,
		}, nil
	}

	return nil, fmt.Errorf("%w: transaction %s has no payment operation", ErrNotFound, reference)
}

// LatestLedger returns the sequence number of the most recent closed ledger,
// used to compute confirmation depth.
func (c *Client) LatestLedger(ctx context.Context) (int32, error) {
	var root rootResponse

	if err := c.get(ctx, "/", &root); err != nil {
		return 0, err
	}

	return root.HistoryLatestLedger, nil
}

// get performs a GET with bounded exponential backoff. 4xx responses are
// permanent; transport errors and 5xx responses are retried until the try
// budget runs out, then surface as ErrUnavailable.
func (c *Client) get(ctx context.Context, path string, out any) error {
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
			}

			return struct{}{}, nil
		case resp.StatusCode == http.StatusNotFound:
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, path))
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %s returned %d", ErrInvalidRequest, path, resp.StatusCode))
		default:
			return struct{}{}, fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, resp.StatusCode)
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.base
	expo.MaxInterval = c.cap

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
	)

	return err
}

type accountResponse struct {
	ID       string            `json:"id"`
	Sequence string            `json:"sequence"`
	Balances []balanceResponse `json:"balances"`
}

type balanceResponse struct {
	Balance     string `json:"balance"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
}

type transactionResponse struct {
	Hash       string `json:"hash"`
	Successful bool   `json:"successful"`
	Ledger     int32  `json:"ledger"`
}

type paymentsPage struct {
	Embedded struct {
		Records []paymentResponse `json:"records"`
	} `json:"_embedded"`
}

type paymentResponse struct {
	Type        string `json:"type"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
}

type rootResponse struct {
	HistoryLatestLedger int32 `json:"history_latest_ledger"`
}
