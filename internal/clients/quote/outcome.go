package quote

import "time"

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	// Name is the company or asset name, empty when the provider does not serve it.
	Name  string
	Price float64
	// Change is the absolute change since the previous close, nil when unknown.
	Change *float64
	// ChangePercent is the percent change since the previous close, nil when unknown.
	ChangePercent *float64
	Currency      string
}

// Outcome is the result of a quote lookup. It is one of Found, NotFound or RateLimited.
type Outcome interface {
	outcome()
}

// Found is returned when the provider has a price for the symbol.
type Found struct {
	Quote Quote
}

// NotFound is returned when the provider has no price for the symbol.
type NotFound struct {
	Symbol string
}

// RateLimited is returned when the provider refused the lookup because its quota is exhausted.
type RateLimited struct {
	// Message is the provider's explanation, if any.
	Message string
	// RetryAfter is how long until lookups are attempted again, zero when unknown.
	RetryAfter time.Duration
}

func (Found) outcome()       {}
func (NotFound) outcome()    {}
func (RateLimited) outcome() {}
