package checkout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Form holds the checkout page's input fields. Validation is client-side
// only: it gates the confirmation step, it does not authorize a payment.
type Form struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	CardNumber string `json:"card_number"`
	CardExpiry string `json:"card_expiry"` // MM/YY
	CardCVC    string `json:"card_cvc"`
}

// FieldError points at one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
	cvcRe    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// Validate returns one error per invalid field, empty when the form is
// acceptable.
func (f Form) Validate(now time.Time) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(f.FullName) == "" {
		errs = append(errs, FieldError{"full_name", "name is required"})
	}
	if !emailRe.MatchString(f.Email) {
		errs = append(errs, FieldError{"email", "a valid email address is required"})
	}
	if strings.TrimSpace(f.Address) == "" {
		errs = append(errs, FieldError{"address", "address is required"})
	}
	if strings.TrimSpace(f.City) == "" {
		errs = append(errs, FieldError{"city", "city is required"})
	}
	if strings.TrimSpace(f.PostalCode) == "" {
		errs = append(errs, FieldError{"postal_code", "postal code is required"})
	}
	if !luhnValid(strings.ReplaceAll(f.CardNumber, " ", "")) {
		errs = append(errs, FieldError{"card_number", "card number is invalid"})
	}
	if err := validateExpiry(f.CardExpiry, now); err != nil {
		errs = append(errs, FieldError{"card_expiry", err.Error()})
	}
	if !cvcRe.MatchString(f.CardCVC) {
		errs = append(errs, FieldError{"card_cvc", "security code must be 3 or 4 digits"})
	}

	return errs
}

func validateExpiry(expiry string, now time.Time) error {
	m := expiryRe.FindStringSubmatch(expiry)
	if m == nil {
		return fmt.Errorf("expiry must be MM/YY")
	}

	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000

	// The card is valid through the last day of its expiry month.
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return fmt.Errorf("card is expired")
	}
	return nil
}

func luhnValid(number string) bool {
	if len(number) < 12 || len(number) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
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
