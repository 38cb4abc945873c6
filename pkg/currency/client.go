// Package currency quotes token prices used to convert storage costs between
// chains.
package currency

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidBase = errors.New("invalid base currency")
	ErrNoRate      = errors.New("no rate for quote currency")
)

// Coin identifiers understood by price sources.
const (
	Solana  = "solana"
	Arweave = "arweave"

	USD = "usd"
)

type ExchangeData struct {
	Base      string
	Rates     map[string]float64
	Timestamp time.Time
}

// Rate returns the price of one unit of the base in quote.
func (d *ExchangeData) Rate(quote string) (float64, error) {
	rate, ok := d.Rates[quote]
	if !ok || rate <= 0 {
		return 0, errors.Wrapf(ErrNoRate, "%s/%s", d.Base, quote)
	}
	return rate, nil
}

type Client interface {
	// GetCurrentRates gets the current set of exchange rates against a base
	// coin.
	GetCurrentRates(ctx context.Context, base string) (*ExchangeData, error)
}

// CrossRate returns how many units of quote one unit of base is worth, using
// USD as the common denominator.
func CrossRate(ctx context.Context, client Client, base, quote string) (float64, error) {
	baseData, err := client.GetCurrentRates(ctx, base)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get %s rates", base)
	}
	quoteData, err := client.GetCurrentRates(ctx, quote)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get %s rates", quote)
	}

	baseUsd, err := baseData.Rate(USD)
	if err != nil {
		return 0, err
	}
	quoteUsd, err := quoteData.Rate(USD)
	if err != nil {
		return 0, err
	}
	return baseUsd / quoteUsd, nil
}
