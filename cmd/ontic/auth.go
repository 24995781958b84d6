// Auth commands: register, login, logout, whoami, refresh, verify-2fa.
// All auth operations run on the default route's backend.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage identities and sessions",
}

func init() {
	registerCmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := current.provider.Register(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printEntity(u)
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and print the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := current.provider.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printEntity(sess)
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout <token>",
		Short: "Revoke a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.provider.Logout(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami <token>",
		Short: "Resolve a session token to its user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := current.provider.ValidateToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(u)
		},
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh <refresh-token>",
		Short: "Exchange a refresh token for a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := current.provider.RefreshSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(sess)
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify-2fa <pending-token> <code>",
		Short: "Complete a two-factor login",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := current.provider.VerifyTwoFactor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printEntity(sess)
		},
	}

	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, refreshCmd, verifyCmd)
}
