package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/auth"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// authService returns the identity store with the default account seeded.
func (c *cli) authService(ctx context.Context) (*auth.Service, error) {
	if err := c.app.auth.Init(ctx); err != nil {
		return nil, err
	}
	return c.app.auth, nil
}

// currentUser returns the logged-in user or types.ErrNotAuthenticated.
func (c *cli) currentUser(ctx context.Context) (types.PublicUser, error) {
	svc, err := c.authService(ctx)
	if err != nil {
		return types.PublicUser{}, err
	}
	sess, ok, err := svc.Session(ctx)
	if err != nil {
		return types.PublicUser{}, err
	}
	if !ok {
		return types.PublicUser{}, types.ErrNotAuthenticated
	}
	return sess.User, nil
}

func newAuthCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Local account: login, register, logout",
		Long: `Accounts are stored on this machine only. A default account is available:
  email:    ` + auth.DefaultEmail + `
  password: ` + auth.DefaultPassword,
	}

	var email, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.authService(ctx)
			if err != nil {
				return err
			}
			sess, err := svc.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return c.emit(cmd, sess.User, func(w io.Writer) {
				fmt.Fprintf(w, "Logged in as %s\n", sess.User.Username)
			})
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	var creds types.Credentials
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.authService(ctx)
			if err != nil {
				return err
			}
			sess, err := svc.Register(ctx, creds)
			if err != nil {
				return err
			}
			return c.emit(cmd, sess.User, func(w io.Writer) {
				fmt.Fprintf(w, "Welcome, %s! You are now logged in.\n", sess.User.Username)
			})
		},
	}
	registerCmd.Flags().StringVar(&creds.Username, "username", "", "username")
	registerCmd.Flags().StringVar(&creds.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&creds.Password, "password", "", "password")
	registerCmd.Flags().StringVar(&creds.ConfirmPassword, "confirm-password", "", "password again")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return c.emit(cmd, map[string]bool{"loggedIn": false}, func(w io.Writer) {
				fmt.Fprintln(w, "Logged out")
			})
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, u, func(w io.Writer) {
				fmt.Fprintf(w, "%s <%s>, member since %s\n", u.Username, u.Email, u.CreatedAt.Format(types.DateLayout))
			})
		},
	}

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List local accounts",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := c.authService(ctx)
			if err != nil {
				return err
			}
			users, err := svc.Users(ctx)
			if err != nil {
				return err
			}
			return c.emit(cmd, users, func(w io.Writer) {
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{u.Username, u.Email, relative(u.CreatedAt, c.now())})
				}
				printTable(w, []string{"USERNAME", "EMAIL", "JOINED"}, rows)
			})
		},
	}

	cmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, usersCmd)
	return cmd
}
