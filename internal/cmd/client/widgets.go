package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/myriad/internal/cmd/client/transports"
)

// NewWidgetsCommand constructs the `widgets` command group. Widget
// management is only exposed over HTTP.
func NewWidgetsCommand(baseURL BaseURLFunc) *cobra.Command {
	widgetsCmd := &cobra.Command{Use: "widgets", Short: "Dashboard widget operations"}
	widgetsCmd.AddCommand(
		newWidgetsListCommand(baseURL),
		newWidgetsStateCommand(baseURL),
		newWidgetsCreateCommand(baseURL),
		newWidgetsConfigureCommand(baseURL),
		newWidgetsDeleteCommand(baseURL),
		newWidgetsInteractCommand(baseURL),
		newWidgetsExportCommand(baseURL),
	)
	return widgetsCmd
}

func idFlag(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("id")
	if id == "" {
		return "", errors.New("--id is required")
	}
	return id, nil
}

func newWidgetsListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widgets and their state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Widgets []json.RawMessage `json:"widgets"`
			}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodGet, "/v1/widgets", nil, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out.Widgets)
		},
	}
}

func newWidgetsStateCommand(baseURL BaseURLFunc) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Print one widget's state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := idFlag(cmd)
			if err != nil {
				return err
			}
			var st json.RawMessage
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodGet, "/v1/widgets/state?id="+url.QueryEscape(id), nil, &st); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	stateCmd.Flags().String("id", "", "Widget id")
	return stateCmd
}

// optionsFlag parses --options as a JSON object.
func optionsFlag(cmd *cobra.Command) (json.RawMessage, error) {
	raw, _ := cmd.Flags().GetString("options")
	if raw == "" {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("--options must be a JSON object")
	}
	return json.RawMessage(raw), nil
}

func newWidgetsCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a widget to the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			id, _ := cmd.Flags().GetString("id")
			opts, err := optionsFlag(cmd)
			if err != nil {
				return err
			}
			var st json.RawMessage
			body := map[string]any{"kind": kind, "id": id, "options": opts}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodPost, "/v1/widgets/create", body, &st); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	createCmd.Flags().String("kind", "text", "Widget kind")
	createCmd.Flags().String("id", "", "Widget id (generated when empty)")
	createCmd.Flags().String("options", "", `Options JSON, e.g. {"topic":"a/b","loggingEnabled":true}`)
	return createCmd
}

func newWidgetsConfigureCommand(baseURL BaseURLFunc) *cobra.Command {
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Merge options into a widget's configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := idFlag(cmd)
			if err != nil {
				return err
			}
			opts, err := optionsFlag(cmd)
			if err != nil {
				return err
			}
			var st json.RawMessage
			body := map[string]any{"id": id, "options": opts}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodPost, "/v1/widgets/configure", body, &st); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	configureCmd.Flags().String("id", "", "Widget id")
	configureCmd.Flags().String("options", "", "Options JSON to merge")
	return configureCmd
}

func newWidgetsDeleteCommand(baseURL BaseURLFunc) *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a widget (its history stays stored)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := idFlag(cmd)
			if err != nil {
				return err
			}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodPost, "/v1/widgets/delete", map[string]string{"id": id}, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	deleteCmd.Flags().String("id", "", "Widget id")
	return deleteCmd
}

func newWidgetsInteractCommand(baseURL BaseURLFunc) *cobra.Command {
	interactCmd := &cobra.Command{
		Use:   "interact",
		Short: "Perform an action (toggle, set, press, increment, decrement)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := idFlag(cmd)
			if err != nil {
				return err
			}
			action, _ := cmd.Flags().GetString("action")
			value, _ := cmd.Flags().GetString("value")
			var out struct {
				Published string `json:"published"`
			}
			body := map[string]any{"id": id, "action": map[string]string{"type": action, "value": value}}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodPost, "/v1/widgets/interact", body, &out); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "published:", out.Published)
			return nil
		},
	}
	interactCmd.Flags().String("id", "", "Widget id")
	interactCmd.Flags().String("action", "toggle", "Action type")
	interactCmd.Flags().String("value", "", "Action value (for set)")
	return interactCmd
}

func newWidgetsExportCommand(baseURL BaseURLFunc) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a table widget's rows as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := idFlag(cmd)
			if err != nil {
				return err
			}
			return transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodGet, "/v1/widgets/export.csv?id="+url.QueryEscape(id), nil, cmd.OutOrStdout())
		},
	}
	exportCmd.Flags().String("id", "", "Widget id")
	return exportCmd
}

// NewDispatchCommand constructs the `dispatch` command, delivering a message
// to every widget subscribed to its topic.
func NewDispatchCommand(baseURL BaseURLFunc) *cobra.Command {
	dispatchCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver a message on a topic to the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			topic, _ := cmd.Flags().GetString("topic")
			if topic == "" {
				return errors.New("--topic is required")
			}
			data, _ := cmd.Flags().GetString("data")
			var out struct {
				Delivered int `json:"delivered"`
			}
			body := map[string]string{"topic": topic, "payload": data}
			if err := transports.NewHttpTransport(baseURL).Do(cmd.Context(), http.MethodPost, "/v1/messages/dispatch", body, &out); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "delivered:", out.Delivered)
			return nil
		},
	}
	dispatchCmd.Flags().String("topic", "", "Topic")
	dispatchCmd.Flags().String("data", "", "Payload text")
	return dispatchCmd
}
