package main

import (
	"storefront/internal/app"
	"storefront/internal/cart"
	"storefront/internal/checkout"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(c *cli) *cobra.Command {
	var (
		form       checkout.Form
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review your order and place it",
		Long: `Without payment flags, shows the order summary. With shipping and payment
details, places the order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, backend := c.session(cmd.Context())
			if err := c.requireLogin(m); err != nil {
				return err
			}
			svc := checkout.NewService(m, cart.New(backend, m, app.NewRetrier(c.cfg)), app.Rates(c.cfg))

			if form.Payment.CardNumber == "" {
				items, summary, err := svc.Preview(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"items": items, "summary": summary})
				}
				c.printer.Header("Order Summary")
				c.printer.Print("Subtotal     %s", money(summary.Subtotal))
				c.printer.Print("Shipping     %s", money(summary.Shipping))
				c.printer.Print("Taxes (%s%%)  %s", app.Rates(c.cfg).TaxRate.Shift(2).String(), money(summary.Tax))
				c.printer.Print("%s        %s", c.printer.Bold("Total"), money(summary.Total))
				c.printer.Print("")
				c.printer.Print("%s", c.printer.Dim("Add --card, --expiry and --cvv with shipping details to place the order."))
				return nil
			}

			conf, err := svc.PlaceOrder(cmd.Context(), form)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, conf)
			}
			c.printer.Success("Order Placed!")
			c.printer.Print("Thank you for shopping with us. A confirmation has been sent to %s.", conf.Email)
			c.printer.Print("Order %s  total %s", conf.OrderID, money(conf.Summary.Total))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Shipping.FullName, "name", "", "full name")
	f.StringVar(&form.Shipping.Address, "address", "", "street address")
	f.StringVar(&form.Shipping.City, "city", "", "city/state")
	f.StringVar(&form.Shipping.Zip, "zip", "", "zip code")
	f.StringVar(&form.Payment.CardNumber, "card", "", "card number")
	f.StringVar(&form.Payment.Expiry, "expiry", "", "card expiry (MM/YY)")
	f.StringVar(&form.Payment.CVV, "cvv", "", "card CVV")
	f.BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
