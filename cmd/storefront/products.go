package main

import (
	"strconv"

	"storefront/internal/app"
	"storefront/internal/catalog"
	"storefront/internal/commerce"
	"storefront/internal/output"

	"github.com/spf13/cobra"
)

func newProductsCmd(c *cli) *cobra.Command {
	var (
		category   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "products [id]",
		Aliases: []string{"shop"},
		Short:   "Browse the catalog",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, backend := c.session(cmd.Context())
			cat := catalog.New(backend, m, app.NewRetrier(c.cfg))

			if len(args) == 1 {
				p, err := cat.Find(cmd.Context(), commerce.ID(args[0]))
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, p)
				}
				c.printer.Header(p.Name)
				c.printer.Print("%s  %s", money(p.Price), c.printer.Dim(p.Category))
				if p.Description != "" {
					c.printer.Print("%s", p.Description)
				}
				return nil
			}

			products, err := cat.List(cmd.Context())
			if err != nil {
				return err
			}

			groups := catalog.Categories(products)
			if category != "" {
				filtered := groups[:0]
				for _, g := range groups {
					if g.Name == category {
						filtered = append(filtered, g)
					}
				}
				groups = filtered
			}

			if jsonOutput {
				return writeJSON(cmd, groups)
			}
			if len(groups) == 0 {
				c.printer.Info("No products found")
				return nil
			}

			for _, g := range groups {
				c.printer.Header(g.Name)
				table := output.NewTable(c.printer.Out(), []string{"ID", "Name", "Price", "Rating"})
				for _, p := range g.Products {
					rating := ""
					if p.Rating > 0 {
						rating = strconv.FormatFloat(p.Rating, 'f', 1, 64)
					}
					table.AddRow(p.ID.String(), p.Name, money(p.Price), rating)
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only show one category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
