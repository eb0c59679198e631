package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MorseWayne/storefront/internal/app"
	"github.com/MorseWayne/storefront/internal/domain"
)

func authCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the store",
	}

	var name string

	otp := &cobra.Command{
		Use:   "otp <phone>",
		Short: "Request a one-time password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.SendOTP(ctx, domain.SendOTPRequest{Phone: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), env.Message)
				return nil
			})
		},
	}

	verify := &cobra.Command{
		Use:   "verify <phone> <otp>",
		Short: "Verify the one-time password and store the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Gateway.VerifyOTP(ctx, domain.VerifyOTPRequest{Phone: args[0], OTP: args[1], Name: name})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), env.Data.User)
			})
		},
	}
	verify.Flags().StringVar(&name, "name", "", "Display name for new accounts")

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Gateway.IsAuthenticated() {
					return errors.New("not signed in")
				}
				user, err := a.Gateway.CurrentUser()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), user)
			})
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Gateway.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}

	cmd.AddCommand(otp, verify, whoami, logout)
	return cmd
}
