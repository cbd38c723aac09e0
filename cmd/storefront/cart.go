package main

import (
	"strconv"

	"storefront/internal/app"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/commerce"
	"storefront/internal/output"

	"github.com/spf13/cobra"
)

func newCartCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "cart",
		Aliases: []string{"bag"},
		Short:   "Show your shopping bag",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bag, err := c.cart(cmd)
			if err != nil {
				return err
			}
			items, err := bag.Load(cmd.Context())
			if err != nil {
				return err
			}
			summary := checkout.Summarize(items, app.Rates(c.cfg))

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"items": items, "summary": summary})
			}
			if len(items) == 0 {
				c.printer.Info("Your bag is empty")
				c.printer.Print("Looks like you haven't added anything to your cart yet. Try 'storefront products'.")
				return nil
			}

			c.printer.Header("Your Shopping Bag")
			table := output.NewTable(c.printer.Out(), []string{"Item", "Name", "Size", "Qty", "Price"})
			for _, it := range items {
				table.AddRow(it.ID.String(), it.Name, it.Size, strconv.Itoa(it.Quantity), money(it.Price))
			}
			table.Render()

			c.printer.Print("")
			c.printer.Print("Subtotal (%d items)  %s", summary.TotalItems, money(summary.Subtotal))
			c.printer.Print("Shipping (Standard)  %s", money(summary.Shipping))
			c.printer.Print("%s  %s", c.printer.Bold("Estimated Total"), money(summary.Subtotal.Add(summary.Shipping)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.AddCommand(newCartAddCmd(c), newCartRemoveCmd(c))
	return cmd
}

func newCartAddCmd(c *cli) *cobra.Command {
	var (
		size     string
		quantity int
	)

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to your bag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bag, err := c.cart(cmd)
			if err != nil {
				return err
			}
			if err := bag.Add(cmd.Context(), commerce.ID(args[0]), size, quantity); err != nil {
				return err
			}
			c.printer.Success("Added product %s to your bag", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&size, "size", "s", "", "size (XS, S, M, L, XL)")
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "quantity")
	return cmd
}

func newCartRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from your bag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bag, err := c.cart(cmd)
			if err != nil {
				return err
			}
			if err := bag.Remove(cmd.Context(), commerce.ID(args[0])); err != nil {
				return err
			}
			c.printer.Success("Removed item %s", args[0])
			return nil
		},
	}
}

func (c *cli) cart(cmd *cobra.Command) (*cart.Cart, error) {
	m, backend := c.session(cmd.Context())
	if err := c.requireLogin(m); err != nil {
		return nil, err
	}
	return cart.New(backend, m, app.NewRetrier(c.cfg)), nil
}
