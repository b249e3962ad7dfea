package chip

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CardForm is the payment card entered at checkout. It is checked and then
// discarded; only brand and last four digits are stored.
type CardForm struct {
	Holder string `json:"holder" validate:"required,max=80"`
	Number string `json:"number" validate:"required,luhn"`
	Expiry string `json:"expiry" validate:"required,card_expiry"`
	CVV    string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// OrderRequest places a chip order, optionally for a specific pet.
type OrderRequest struct {
	PetID *uuid.UUID `json:"pet_id,omitempty"`
	Card  CardForm   `json:"card"`
}

// AddressForm updates the shipping address.
type AddressForm struct {
	Address string `json:"address" validate:"required,max=300"`
}

// NewValidator returns a validator with the card tags registered. now drives
// the expiry check.
func NewValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return Luhn(fl.Field().String())
	})
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return ValidExpiry(fl.Field().String(), now())
	})
	return v
}

// FieldErrors flattens a validation failure into field -> message. Returns
// nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "luhn":
		return "is not a valid card number"
	case "card_expiry":
		return "must be MM/YY and not in the past"
	case "numeric":
		return "must contain only digits"
	case "min", "max":
		return fmt.Sprintf("fails %s=%s", fe.Tag(), fe.Param())
	default:
		return "is invalid"
	}
}
