package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/workbench-session/internal/callback"
	"github.com/jrsteele09/workbench-session/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser",
	Long:  `Opens the identity provider in the browser and waits for the redirect on a loopback callback server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var result *session.CallbackResult
		server := callback.NewServer(a.cfg.GetAppName(), a.cfg.GetCallbackPort(), func(ctx context.Context, u *url.URL) error {
			res, err := a.manager.HandleCallback(ctx, u)
			if err != nil {
				return err
			}
			if res == nil {
				return errors.New("not an authorization response")
			}
			result = res
			return nil
		})
		if _, err := server.Start(ctx); err != nil {
			return err
		}
		defer server.Stop()

		if err := a.manager.StartLogin(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for the browser to finish signing in...")

		if err := server.Wait(ctx); err != nil {
			return errors.Wrap(err, "login")
		}

		if result.User != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s> (%s)\n", result.User.DisplayName(), result.User.Email, result.User.Role)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().Duration("timeout", callback.DefaultTimeout, "How long to wait for the browser")
	rootCmd.AddCommand(loginCmd)
}
