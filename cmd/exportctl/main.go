// exportctl drives the export lifecycle API from the command line.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	actorID   string
	actorOrg  string
	actorRole string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "exportctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "exportctl",
		Short:        "Coffee export lifecycle CLI",
		Long:         `exportctl creates exports, applies lifecycle actions and inspects state and audit history through the HTTP API.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", envOr("EXPORTFLOW_SERVER", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&actorID, "actor-id", envOr("EXPORTFLOW_ACTOR_ID", ""), "Acting user id")
	cmd.PersistentFlags().StringVar(&actorOrg, "actor-org", envOr("EXPORTFLOW_ACTOR_ORG", ""), "Acting organization MSP id")
	cmd.PersistentFlags().StringVar(&actorRole, "actor-role", envOr("EXPORTFLOW_ACTOR_ROLE", ""), "Acting user role")
	cmd.AddCommand(
		newCreateCmd(),
		newGetCmd(),
		newListCmd(),
		newApplyCmd(),
		newActionsCmd(),
		newAuditCmd(),
	)
	return cmd
}

func newCreateCmd() *cobra.Command {
	var coffeeType, destination string
	var quantity, estimatedValue float64
	cmd := &cobra.Command{
		Use:   "create <export-id>",
		Short: "Create a new export in DRAFT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := fmt.Sprintf(`{"export_id":%q,"coffee_type":%q,"quantity":%g,"destination":%q,"estimated_value":%g}`,
				args[0], coffeeType, quantity, destination, estimatedValue)
			return call(cmd.Context(), http.MethodPost, "/v1/exports", strings.NewReader(body))
		},
	}
	cmd.Flags().StringVar(&coffeeType, "coffee-type", "", "Coffee type (e.g. Arabica)")
	cmd.Flags().Float64Var(&quantity, "quantity", 0, "Quantity in kg")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination country")
	cmd.Flags().Float64Var(&estimatedValue, "value", 0, "Estimated value in USD")
	_ = cmd.MarkFlagRequired("coffee-type")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("destination")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <export-id>",
		Short: "Show the export's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), http.MethodGet, "/v1/exports/"+url.PathEscape(args[0]), nil)
		},
	}
}

func newListCmd() *cobra.Command {
	var status, org string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exports by status or organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if org != "" {
				q.Set("org", org)
			}
			if len(q) == 0 {
				return fmt.Errorf("one of --status or --org is required")
			}
			return call(cmd.Context(), http.MethodGet, "/v1/exports?"+q.Encode(), nil)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&org, "org", "", "Filter by originating organization")
	return cmd
}

func newApplyCmd() *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "apply <export-id> <action>",
		Short: "Apply a lifecycle action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body io.Reader
			if payload != "" {
				body = strings.NewReader(payload)
			}
			path := "/v1/exports/" + url.PathEscape(args[0]) + "/actions/" + url.PathEscape(args[1])
			return call(cmd.Context(), http.MethodPost, path, body)
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "Action payload as JSON")
	return cmd
}

func newActionsCmd() *cobra.Command {
	var org string
	cmd := &cobra.Command{
		Use:   "actions <export-id>",
		Short: "List actions available from the export's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/exports/" + url.PathEscape(args[0]) + "/actions"
			if org != "" {
				path += "?org=" + url.QueryEscape(org)
			}
			return call(cmd.Context(), http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "Organization to list actions for")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var action string
	var failedOnly bool
	cmd := &cobra.Command{
		Use:   "audit <export-id>",
		Short: "Show the export's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if action != "" {
				q.Set("action", action)
			}
			if failedOnly {
				q.Set("success", "false")
			}
			path := "/v1/exports/" + url.PathEscape(args[0]) + "/audit"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return call(cmd.Context(), http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only failed attempts")
	return cmd
}

func call(ctx context.Context, method, path string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(serverURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-Id", actorID)
	}
	if actorOrg != "" {
		req.Header.Set("X-Actor-Org", actorOrg)
	}
	if actorRole != "" {
		req.Header.Set("X-Actor-Role", actorRole)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, resp.Body); err != nil {
		return err
	}
	fmt.Println(out.String())
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
