package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the session cookie for a new bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.manager.Refresh(cmd.Context()); err != nil {
			return err
		}
		remaining, err := a.manager.ExpiresIn()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, %s\n", formatRemaining(remaining))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
