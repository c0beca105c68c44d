package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/workbench-session/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.manager.CurrentUser()
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errors.New("not signed in, run 'workbench login'")
		}
		if err != nil {
			return err
		}

		remaining, err := a.manager.ExpiresIn()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:   %s\n", u.DisplayName())
		fmt.Fprintf(out, "Email:  %s\n", u.Email)
		fmt.Fprintf(out, "Role:   %s\n", u.Role)
		if c, err := a.manager.Claims(); err == nil && len(c.Groups) > 0 {
			fmt.Fprintf(out, "Groups: %s\n", strings.Join(c.Groups, ", "))
		}
		fmt.Fprintf(out, "Token:  %s\n", formatRemaining(remaining))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// formatRemaining renders a token lifetime for humans.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	return "expires in " + d.Round(time.Second).String()
}
