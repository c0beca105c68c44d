package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call METHOD PATH",
	Short: "Call the workbench API with the current session",
	Long: `Sends an authenticated request to the workbench API. An expired token is
refreshed once and the request replayed.`,
	Example: `  workbench call GET /api/me
  workbench call POST /api/projects --data '{"name":"tiles"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		method := strings.ToUpper(args[0])
		target := a.cfg.GetAPIBaseURL() + "/" + strings.TrimPrefix(args[1], "/")

		var body io.Reader
		if data != "" {
			body = strings.NewReader(data)
		}
		req, err := http.NewRequestWithContext(cmd.Context(), method, target, body)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		if data != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		client := a.manager.HTTPClient(&http.Client{Timeout: a.cfg.GetHTTPTimeout()})
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s -> %s\n", method, target, resp.Status)
		}
		if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
			return errors.Wrap(err, "read response")
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return errors.Errorf("%s %s: %s", method, target, resp.Status)
		}
		return nil
	},
}

func init() {
	callCmd.Flags().StringP("data", "d", "", "JSON request body")
	callCmd.Flags().BoolP("verbose", "v", false, "Print the response status")
	rootCmd.AddCommand(callCmd)
}
