package client

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/myriad/internal/cmd/client/transports"
)

// NewHistoryCommand constructs the `history` command group and subcommands.
func NewHistoryCommand(baseURL BaseURLFunc) *cobra.Command {
	historyCmd := &cobra.Command{Use: "history", Short: "Widget history operations"}
	historyCmd.PersistentFlags().String("transport", "http", "Transport: http|grpc")

	historyCmd.AddCommand(
		newHistoryLogsCommand(baseURL),
		newHistoryLogCommand(baseURL),
		newHistoryUsageCommand(baseURL),
		newHistoryClearCommand(baseURL),
		newHistoryLimitCommand(baseURL),
		newHistoryWidgetsCommand(baseURL),
	)
	return historyCmd
}

func transportFor(cmd *cobra.Command, baseURL BaseURLFunc) (transports.HistoryTransport, error) {
	name, _ := cmd.Flags().GetString("transport")
	return getTransport(name, baseURL)
}

func widgetFlag(cmd *cobra.Command) (string, error) {
	w, _ := cmd.Flags().GetString("widget")
	if w == "" {
		return "", errors.New("--widget is required")
	}
	return w, nil
}

// newHistoryLogsCommand constructs the `history logs` subcommand.
func newHistoryLogsCommand(baseURL BaseURLFunc) *cobra.Command {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print a widget's records oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			widget, err := widgetFlag(cmd)
			if err != nil {
				return err
			}
			t, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			h, err := t.Logs(cmd.Context(), widget)
			if err != nil {
				return err
			}
			if raw, _ := cmd.Flags().GetBool("json"); raw {
				return printJSON(cmd.OutOrStdout(), h)
			}
			for _, r := range h.Records {
				ts := time.UnixMilli(r.TS).UTC().Format(time.RFC3339Nano)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ts, r.Payload)
			}
			return nil
		},
	}
	logsCmd.Flags().String("widget", "", "Widget id")
	logsCmd.Flags().Bool("json", false, "Print the full history as JSON")
	return logsCmd
}

// newHistoryLogCommand constructs the `history log` subcommand.
func newHistoryLogCommand(baseURL BaseURLFunc) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Append a payload to a widget history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			widget, err := widgetFlag(cmd)
			if err != nil {
				return err
			}
			data, _ := cmd.Flags().GetString("data")
			t, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			s, err := t.Log(cmd.Context(), widget, data)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "records: %d usage: %s KB\n", s.Records, s.UsageKB)
			return nil
		},
	}
	logCmd.Flags().String("widget", "", "Widget id")
	logCmd.Flags().String("data", "", "Payload text")
	return logCmd
}

// newHistoryUsageCommand constructs the `history usage` subcommand.
func newHistoryUsageCommand(baseURL BaseURLFunc) *cobra.Command {
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Print the stored size of a widget history in KB",
		RunE: func(cmd *cobra.Command, _ []string) error {
			widget, err := widgetFlag(cmd)
			if err != nil {
				return err
			}
			t, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			u, err := t.Usage(cmd.Context(), widget)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), u.UsageKB)
			return nil
		},
	}
	usageCmd.Flags().String("widget", "", "Widget id")
	return usageCmd
}

// newHistoryClearCommand constructs the `history clear` subcommand.
func newHistoryClearCommand(baseURL BaseURLFunc) *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty a widget history and remove it from storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			widget, err := widgetFlag(cmd)
			if err != nil {
				return err
			}
			t, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			if err := t.Clear(cmd.Context(), widget); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	clearCmd.Flags().String("widget", "", "Widget id")
	return clearCmd
}

// newHistoryLimitCommand constructs the `history limit` subcommand.
func newHistoryLimitCommand(baseURL BaseURLFunc) *cobra.Command {
	limitCmd := &cobra.Command{
		Use:   "limit <kb>",
		Short: "Set a widget history's budget in KB, evicting oldest records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			widget, err := widgetFlag(cmd)
			if err != nil {
				return err
			}
			kb, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[0], err)
			}
			t, err := transportFor(cmd, baseURL)
			if err != nil {
				return err
			}
			s, err := t.SetLimit(cmd.Context(), widget, kb)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "records: %d usage: %s KB\n", s.Records, s.UsageKB)
			return nil
		},
	}
	limitCmd.Flags().String("widget", "", "Widget id")
	return limitCmd
}

// newHistoryWidgetsCommand constructs the `history widgets` subcommand.
func newHistoryWidgetsCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "widgets",
		Short: "List widget ids with a history (HTTP only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := transports.NewHttpTransport(baseURL).Widgets(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
