package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kilometers.ai/shop/internal/core/domain"
)

var errCartNotUpdated = errors.New("cart was not updated")

func newCartCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage your cart",
	}

	// every cart endpoint answers with the whole cart, so a call that did
	// not set the cart was refused
	show := func(cmd *cobra.Command, svc *Services, call func() error) error {
		seen, err := watchApplied(svc.State, call)
		if err != nil {
			return err
		}
		if !seen[domain.ActionSetCart] {
			return errCartNotUpdated
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCart(svc.State.State()))
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			return show(cmd, svc, func() error {
				svc.Storefront.GetCart(cmd.Context())
				return nil
			})
		},
	})

	var addQty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			line := domain.CartLine{ProductID: args[0], Quantity: addQty}
			return show(cmd, svc, func() error {
				return svc.Storefront.AddToCart(cmd.Context(), line)
			})
		},
	}
	add.Flags().IntVarP(&addQty, "quantity", "q", 1, "Quantity to add")
	cmd.AddCommand(add)

	var updateQty int
	update := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Change the quantity of a product in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			line := domain.CartLine{ProductID: args[0], Quantity: updateQty}
			return show(cmd, svc, func() error {
				return svc.Storefront.UpdateQuantity(cmd.Context(), line)
			})
		},
	}
	update.Flags().IntVarP(&updateQty, "quantity", "q", 1, "New quantity")
	update.MarkFlagRequired("quantity")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			return show(cmd, svc, func() error {
				return svc.Storefront.RemoveFromCart(cmd.Context(), args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			return show(cmd, svc, func() error {
				svc.Storefront.ClearCart(cmd.Context())
				return nil
			})
		},
	})

	return cmd
}
