package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/commerce"
	"storefront/internal/fetch"
	"storefront/internal/output"
	"storefront/internal/session"

	"github.com/spf13/cobra"
)

// toCLIError turns any command error into what the user sees.
func toCLIError(err error) *output.CLIError {
	var (
		cliErr    *output.CLIError
		usage     *usageError
		authErr   *session.AuthError
		fieldErrs checkout.FieldErrors
		exhausted *fetch.ExhaustedError
		statusErr *commerce.StatusError
	)

	switch {
	case errors.As(err, &cliErr):
		return cliErr

	case errors.As(err, &usage):
		return &output.CLIError{Summary: usage.msg, Suggestion: "Run with --help for usage", ExitCode: output.ExitUsageError}

	case errors.As(err, &authErr):
		e := &output.CLIError{Summary: authErr.Error(), ExitCode: output.ExitAuthError}
		switch authErr.Kind {
		case session.KindUnreachable:
			e.ExitCode = output.ExitBackend
			e.Suggestion = "Check backend.base_url in your config"
		case session.KindMalformed:
			e.ExitCode = output.ExitBackend
		case session.KindInvalidCredentials:
			e.Suggestion = "Check your email and password, or create an account with 'storefront signup'"
		}
		if authErr.Err != nil {
			e.Detail = authErr.Err.Error()
		}
		return e

	case errors.Is(err, cart.ErrUnauthenticated), errors.Is(err, checkout.ErrNotLoggedIn):
		return &output.CLIError{Summary: "You are not logged in", Suggestion: "Run 'storefront login' first", ExitCode: output.ExitAuthError}

	case errors.As(err, &fieldErrs):
		return &output.CLIError{Summary: "Please fix the order details", Detail: fieldErrs.Error(), ExitCode: output.ExitUsageError}

	case errors.Is(err, cart.ErrInvalidQuantity):
		return &output.CLIError{Summary: "Quantity must be at least 1", ExitCode: output.ExitUsageError}

	case errors.Is(err, checkout.ErrEmptyCart):
		return &output.CLIError{Summary: "Your bag is empty", Suggestion: "Add something with 'storefront cart add <product-id>'", ExitCode: output.ExitGeneral}

	case errors.Is(err, catalog.ErrNotFound):
		return &output.CLIError{Summary: "Product not found", Detail: err.Error(), Suggestion: "List products with 'storefront products'", ExitCode: output.ExitGeneral}

	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return &output.CLIError{Summary: "Your login is no longer valid", Detail: err.Error(), Suggestion: "Run 'storefront login' again", ExitCode: output.ExitAuthError}

	case errors.As(err, &exhausted):
		return &output.CLIError{
			Summary:    "The backend did not respond",
			Detail:     err.Error(),
			Suggestion: "Is your server running? Try again in a moment",
			ExitCode:   output.ExitBackend,
		}

	case errors.Is(err, commerce.ErrUnreachable), errors.Is(err, commerce.ErrMalformed), errors.As(err, &statusErr):
		return &output.CLIError{Summary: "The backend request failed", Detail: err.Error(), ExitCode: output.ExitBackend}

	case errors.Is(err, context.Canceled):
		return &output.CLIError{Summary: "Interrupted", ExitCode: output.ExitGeneral}

	default:
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitGeneral}
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
