package credentials

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 6

// Messages shown next to the signup form.
const (
	MsgFieldsRequired   = "All fields are required."
	MsgInvalidEmail     = "Please enter a valid email address."
	MsgPasswordTooShort = "Password must be at least 6 characters long."
	MsgPasswordMismatch = "Passwords do not match."
)

var (
	ErrFieldsRequired   = errors.New("credentials: all fields are required")
	ErrInvalidEmail     = errors.New("credentials: invalid email address")
	ErrPasswordTooShort = errors.New("credentials: password too short")
	ErrPasswordMismatch = errors.New("credentials: passwords do not match")
)

// Message returns the form message for a Validate error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrFieldsRequired):
		return MsgFieldsRequired
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrColonInEmail):
		return MsgInvalidEmail
	case errors.Is(err, ErrPasswordTooShort):
		return MsgPasswordTooShort
	case errors.Is(err, ErrPasswordMismatch):
		return MsgPasswordMismatch
	default:
		return MsgFieldsRequired
	}
}

type SignupForm struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email,excludes=:"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the form the same way the signup screen does and returns
// one user-facing error, most basic problem first.
func (f SignupForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	has := func(tag string) bool {
		for _, fe := range verrs {
			if fe.Tag() == tag {
				return true
			}
		}
		return false
	}

	switch {
	case has("required"):
		return ErrFieldsRequired
	case has("email"), has("excludes"):
		return ErrInvalidEmail
	case has("min"):
		return ErrPasswordTooShort
	case has("eqfield"):
		return ErrPasswordMismatch
	default:
		return verrs
	}
}
