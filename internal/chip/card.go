// Package chip implements the tracking-chip shop: shipping address, card
// checks and mock orders. No payment is ever captured; a valid card simply
// confirms the order.
package chip

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Card brands.
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandAmex       = "amex"
	BrandUnknown    = "unknown"
)

// NormalizeNumber strips spaces and dashes. Any other non-digit leaves the
// number invalid.
func NormalizeNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
}

// Luhn reports whether number passes the mod-10 checksum. Separators are
// ignored; 12 to 19 digits are accepted.
func Luhn(number string) bool {
	digits := NormalizeNumber(number)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		r := rune(digits[i])
		if !unicode.IsDigit(r) {
			return false
		}
		d := int(r - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Brand guesses the card network from its prefix.
func Brand(number string) string {
	n := NormalizeNumber(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMastercard
	case len(n) >= 4:
		if p, err := strconv.Atoi(n[:4]); err == nil && p >= 2221 && p <= 2720 {
			return BrandMastercard
		}
	}
	return BrandUnknown
}

// Last4 returns the last four digits.
func Last4(number string) string {
	n := NormalizeNumber(number)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

// ValidExpiry reports whether an "MM/YY" expiry is well formed and not yet
// past. A card is valid through the last day of its expiry month.
func ValidExpiry(expiry string, now time.Time) bool {
	month, year, ok := strings.Cut(strings.TrimSpace(expiry), "/")
	if !ok || len(month) != 2 || len(year) != 2 {
		return false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return false
	}

	// First instant of the month after expiry.
	end := time.Date(2000+y, time.Month(m)+1, 1, 0, 0, 0, 0, time.UTC)
	return now.UTC().Before(end)
}
