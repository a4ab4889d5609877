package domain

import "fmt"

// All monetary amounts are integer minor units (cents). Fee rates are basis
// points so the arithmetic stays integral end to end.
const (
	// PlatformFeeBasisPoints is the marketplace cut applied to every
	// campaign payment: 500 bp = 5%.
	PlatformFeeBasisPoints int64 = 500

	basisPointDivisor int64 = 10_000
)

var supportedCurrencies = map[string]struct{}{
	"usd": {},
	"eur": {},
	"gbp": {},
	"cad": {},
	"aud": {},
}

// SupportedCurrency reports whether the lowercase ISO 4217 code is one the
// payment processor integration accepts.
func SupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}

// SplitAmount divides a payment amount into the platform fee and the
// influencer payout. The fee rounds half up; fee + payout always equals
// amount.
func SplitAmount(amount int64) (platformFee, influencerPayout int64, err error) {
	if amount <= 0 {
		return 0, 0, fmt.Errorf("%w: amount must be positive, got %d", ErrValidation, amount)
	}

	platformFee = (amount*PlatformFeeBasisPoints + basisPointDivisor/2) / basisPointDivisor
	influencerPayout = amount - platformFee
	return platformFee, influencerPayout, nil
}
