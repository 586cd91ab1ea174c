package main

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/spf13/cobra"
)

func newLoginCmd(current func() *app) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "login <phone-or-email>",
		Short: "Sign in with an identifier and secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := current().session.Login(cmd.Context(), args[0], secret)
			if err != nil {
				return err
			}
			printIdentity(cmd, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&secret, "secret", "s", "", "account secret")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func newRegisterCmd(current func() *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register <phone> <full-name>",
		Short: "Create an account and send a registration code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := current().session.Register(cmd.Context(), args[0], args[1], email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nVerify with: sessionctl otp verify %s <code> --purpose registration\n", reg.Message, reg.PhoneNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "optional email address")
	return cmd
}

func newOTPCmd(current func() *app) *cobra.Command {
	var purpose string

	otpCmd := &cobra.Command{
		Use:   "otp",
		Short: "Sign in with a one-time code",
	}
	otpCmd.PersistentFlags().StringVar(&purpose, "purpose", string(authmodel.OTPLogin), "login or registration")

	otpCmd.AddCommand(&cobra.Command{
		Use:   "request <phone>",
		Short: "Send a one-time code to a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().session.RequestOTP(cmd.Context(), args[0], authmodel.OTPPurpose(purpose)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Code sent.")
			return nil
		},
	}, &cobra.Command{
		Use:   "verify <phone> <code>",
		Short: "Verify a one-time code and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := current().session.VerifyOTP(cmd.Context(), args[0], args[1], authmodel.OTPPurpose(purpose))
			if err != nil {
				return err
			}
			printIdentity(cmd, id)
			return nil
		},
	})
	return otpCmd
}

func newLogoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			current().session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		},
	}
}

func newStatusCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a := current()
			fmt.Fprintf(cmd.OutOrStdout(), "State:    %s\n", a.session.State())
			fmt.Fprintf(cmd.OutOrStdout(), "Store:    %s\n", a.store.Path())
			if expiry := a.session.AccessExpiry(); !expiry.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Expires:  %s (%s)\n", expiry.Local().Format(time.RFC3339), time.Until(expiry).Round(time.Second))
			}
			if id := a.session.Identity(); id != nil {
				printIdentity(cmd, id)
			}
		},
	}
}

func newRefreshCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := a.session.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed, access token valid until %s\n", a.session.AccessExpiry().Local().Format(time.RFC3339))
			return nil
		},
	}
}

func printIdentity(cmd *cobra.Command, id *identity.Identity) {
	fmt.Fprintf(cmd.OutOrStdout(), "Member:   %s (%s)\n", id.FullName, id.PhoneNumber)
	fmt.Fprintf(cmd.OutOrStdout(), "ID:       %s\n", id.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "KYC:      %s\n", id.KYCStatus)
	if lastLogin := utils.Value(id.LastLogin); !lastLogin.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "Login:    %s\n", lastLogin.Local().Format(time.RFC3339))
	}
	if id.WalletBalance != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wallet:   %s\n", id.WalletBalance)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}
