package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ShippingDetails struct {
	FullName string `json:"fullName" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	Zip      string `json:"zip" validate:"required,number"`
}

type PaymentDetails struct {
	CardNumber string `json:"cardNumber" validate:"required,credit_card"`
	Expiry     string `json:"expiry" validate:"required,datetime=01/06"`
	CVV        string `json:"cvv" validate:"required,number,min=3,max=4"`
}

type Form struct {
	Shipping ShippingDetails `json:"shipping"`
	Payment  PaymentDetails  `json:"payment"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so error keys match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a form field ("payment.cvv") to the message to show
// next to it.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "checkout: invalid form: " + strings.Join(parts, "; ")
}

var fieldLabels = map[string]string{
	"FullName":   "Full name",
	"Address":    "Street address",
	"City":       "City/State",
	"Zip":        "Zip code",
	"CardNumber": "Card number",
	"Expiry":     "Expiry",
	"CVV":        "CVV",
}

// Validate checks the form and that the card has not expired at now.
func (f Form) Validate(now time.Time) error {
	errs := FieldErrors{}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("checkout: validate: %w", err)
		}
		for _, fe := range verrs {
			errs[fieldKey(fe.Namespace())] = fieldMessage(fe)
		}
	}

	if _, bad := errs["payment.expiry"]; !bad && f.Payment.Expiry != "" {
		if expired(f.Payment.Expiry, now) {
			errs["payment.expiry"] = "Card has expired."
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fieldKey turns "Form.payment.cardNumber" into "payment.cardNumber".
func fieldKey(ns string) string {
	_, rest, _ := strings.Cut(ns, ".")
	return rest
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.StructField()]
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "credit_card":
		return "Please enter a valid card number."
	case "datetime":
		return "Expiry must be MM/YY."
	case "number":
		return label + " must contain only digits."
	case "min", "max":
		return label + " must be 3 or 4 digits."
	default:
		return label + " is invalid."
	}
}

// expired reports whether an MM/YY expiry is before the month of now.
// Cards are valid through the end of their expiry month.
func expired(expiry string, now time.Time) bool {
	t, err := time.Parse("01/06", expiry)
	if err != nil {
		return true
	}
	endOfMonth := t.AddDate(0, 1, 0)
	return !now.Before(endOfMonth)
}
