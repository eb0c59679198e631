package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MorseWayne/storefront/internal/app"
	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/service"
)

func productsCmd(opts *rootOptions) *cobra.Command {
	var q domain.ProductQuery
	var search string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List or search products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if search != "" {
					env, err := a.Gateway.SearchProducts(ctx, search, q)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), env.Data)
				}
				env, err := a.Gateway.ListProducts(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data)
			})
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "Page size")
	cmd.Flags().StringVar(&q.Category, "category", "", "Category filter")
	cmd.Flags().StringVar(&q.SortBy, "sort", "", "Sort field (price, createdAt, name)")
	cmd.Flags().StringVar(&search, "search", "", "Search term")

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.GetProduct(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data)
			})
		},
	}, &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.ListCategories(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data.Items)
			})
		},
	})
	return cmd
}

func ordersCmd(opts *rootOptions) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.ListOrders(ctx, page, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Page size")

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data)
			})
		},
	}, &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.CancelOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data)
			})
		},
	})
	return cmd
}

func checkoutCmd(opts *rootOptions) *cobra.Command {
	var req service.CheckoutRequest

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				order, err := a.Shop.Checkout(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), order)
			})
		},
	}
	cmd.Flags().StringVar(&req.AddressID, "address", "", "Delivery address ID")
	cmd.Flags().StringVar(&req.PaymentMethod, "payment", "cod", "Payment method (cod, online)")
	cmd.Flags().StringVar(&req.CouponCode, "coupon", "", "Coupon code")
	return cmd
}
