package ledger

import "fmt"

// Currency is an ISO 4217 code supported by the ledger. Amounts in different
// currencies are tracked independently and never converted.
type Currency string

const (
	HUF Currency = "HUF"
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
)

// Currencies returns every supported currency code.
func Currencies() []Currency {
	return []Currency{HUF, EUR, USD, GBP}
}

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case HUF, EUR, USD, GBP:
		return Currency(s), nil
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}
