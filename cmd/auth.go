package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumahq/roster/credentials"
)

func newAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage directory service credentials",
	}

	authCmd.AddCommand(newAuthLoginCommand())
	authCmd.AddCommand(newAuthStatusCommand())
	authCmd.AddCommand(newAuthLogoutCommand())
	return authCmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		token     string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a directory service token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return errors.New("--token is required")
			}

			store, err := credentials.NewStore()
			if err != nil {
				return err
			}

			creds := &credentials.Credentials{
				Token:        token,
				DirectoryURL: cfg.DirectoryURL,
			}
			if expiresIn > 0 {
				creds.ExpiresAt = time.Now().Add(expiresIn)
			}

			if err := store.Save(creds); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored token %s (expires: %s)\n",
				credentials.MaskToken(token), credentials.FormatExpiry(creds.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "directory service bearer token")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "token lifetime (e.g. 24h); omit for no expiry")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return err
			}

			creds, err := store.Load()
			if errors.Is(err, credentials.ErrNoCredentials) {
				fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token:     %s\n", credentials.MaskToken(creds.Token))
			fmt.Fprintf(cmd.OutOrStdout(), "Directory: %s\n", creds.DirectoryURL)
			fmt.Fprintf(cmd.OutOrStdout(), "Expires:   %s\n", credentials.FormatExpiry(creds.ExpiresAt))
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := credentials.NewStore()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed")
			return nil
		},
	}
}
