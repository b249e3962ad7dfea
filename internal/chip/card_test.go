package chip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may2026 = time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)

func TestLuhn(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4532015112830366", true},
		{"4532 0151 1283 0366", true},
		{"4532-0151-1283-0366", true},
		{"5555555555554444", true},
		{"378282246310005", true},
		{"1234567890123456", false},
		{"4532015112830367", false},
		{"4532O15112830366", false},
		{"42", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, Luhn(tt.number))
		})
	}
}

func TestBrandAndLast4(t *testing.T) {
	assert.Equal(t, BrandVisa, Brand("4532015112830366"))
	assert.Equal(t, BrandMastercard, Brand("5555 5555 5555 4444"))
	assert.Equal(t, BrandMastercard, Brand("2221000000000009"))
	assert.Equal(t, BrandAmex, Brand("378282246310005"))
	assert.Equal(t, BrandUnknown, Brand("6011111111111117"))

	assert.Equal(t, "0366", Last4("4532 0151 1283 0366"))
	assert.Equal(t, "12", Last4("12"))
}

func TestValidExpiry(t *testing.T) {
	tests := []struct {
		expiry string
		want   bool
	}{
		{"05/26", true},  // current month still valid
		{"12/26", true},
		{"01/30", true},
		{"04/26", false}, // last month
		{"13/26", false},
		{"00/27", false},
		{"5/26", false},
		{"05-26", false},
		{"ab/cd", false},
	}

	for _, tt := range tests {
		t.Run(tt.expiry, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidExpiry(tt.expiry, may2026))
		})
	}
}

func TestValidator_OrderRequest(t *testing.T) {
	v := NewValidator(func() time.Time { return may2026 })

	good := OrderRequest{Card: CardForm{Holder: "Ana Ruiz", Number: "4532015112830366", Expiry: "08/27", CVV: "123"}}
	require.NoError(t, v.Struct(good))

	bad := OrderRequest{Card: CardForm{Holder: "Ana Ruiz", Number: "1234567890123456", Expiry: "01/20", CVV: "12a"}}
	err := v.Struct(bad)
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "is not a valid card number", fields["number"])
	assert.Equal(t, "must be MM/YY and not in the past", fields["expiry"])
	assert.Equal(t, "must contain only digits", fields["cvv"])
	assert.NotContains(t, fields, "holder")
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	assert.Nil(t, FieldErrors(context.Canceled))
}

func TestSetAddress_RejectsBlankBeforeWriting(t *testing.T) {
	// A nil pool would panic if the store tried to write.
	s := &Store{validate: NewValidator(time.Now)}

	err := s.SetAddress(context.Background(), "user-1", AddressForm{Address: "   "})

	require.Error(t, err)
	assert.Equal(t, "is required", FieldErrors(err)["address"])
}

func TestPlaceOrder_RejectsBadCardBeforeWriting(t *testing.T) {
	s := &Store{validate: NewValidator(func() time.Time { return may2026 })}

	_, err := s.PlaceOrder(context.Background(), "user-1", OrderRequest{
		Card: CardForm{Holder: "Ana", Number: "1234567890123456", Expiry: "08/27", CVV: "123"},
	})

	require.Error(t, err)
	assert.Contains(t, FieldErrors(err), "number")
}
