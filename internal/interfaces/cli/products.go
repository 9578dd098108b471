package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kilometers.ai/shop/internal/core/state"
)

func newProductsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse the catalogue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all products",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			svc.Storefront.GetProducts(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), renderProducts(state.Products(svc.State.State())))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <product-id>",
		Short: "Show a product with its rating summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := svc.Storefront.GetProduct(ctx, args[0]); err != nil {
				return err
			}
			if err := svc.Storefront.GetProductReviews(ctx, args[0]); err != nil {
				return err
			}

			st := svc.State.State()
			product, ok := state.ProductByID(st, args[0])
			if !ok {
				return fmt.Errorf("product %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProduct(product, st))
			return nil
		},
	})

	return cmd
}
