package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MorseWayne/storefront/internal/app"
)

func cartCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the local cart",
	}

	var variant string
	var qty int

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.Cart())
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product (or variant) to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				st, err := a.Shop.AddToCart(ctx, args[0], variant, qty)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}
	add.Flags().StringVar(&variant, "variant", "", "Variant ID")
	add.Flags().IntVarP(&qty, "qty", "q", 1, "Quantity")

	update := &cobra.Command{
		Use:   "update <productId> <quantity>",
		Short: "Set a line quantity (0 removes the line)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.UpdateCartQuantity(args[0], variant, n))
			})
		},
	}
	update.Flags().StringVar(&variant, "variant", "", "Variant ID")

	remove := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.RemoveFromCart(args[0], variant))
			})
		},
	}
	remove.Flags().StringVar(&variant, "variant", "", "Variant ID")

	clearCart := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.ClearCart())
			})
		},
	}

	cmd.AddCommand(show, add, update, remove, clearCart)
	return cmd
}

func wishlistCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show or change the local wishlist",
	}

	var variant string

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.Wishlist())
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <productId>",
		Short: "Add the product if absent, remove it otherwise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				added, st, err := a.Shop.ToggleWishlist(ctx, args[0], variant)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"added": added, "wishlist": st})
			})
		},
	}
	toggle.Flags().StringVar(&variant, "variant", "", "Variant ID")

	remove := &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Shop.RemoveFromWishlist(args[0], variant))
			})
		},
	}
	remove.Flags().StringVar(&variant, "variant", "", "Variant ID")

	move := &cobra.Command{
		Use:   "move <productId>",
		Short: "Move a wishlist item into the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				st, err := a.Shop.MoveToCart(ctx, args[0], variant)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}
	move.Flags().StringVar(&variant, "variant", "", "Variant ID")

	cmd.AddCommand(show, toggle, remove, move)
	return cmd
}
