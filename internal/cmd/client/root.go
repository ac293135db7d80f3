package client

import (
	"os"

	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// BaseURLFromEnv returns MYRIAD_HTTP or http://127.0.0.1:8080.
func BaseURLFromEnv() string {
	if u := os.Getenv("MYRIAD_HTTP"); u != "" {
		return u
	}
	return "http://127.0.0.1:8080"
}

// NewRoot constructs a root Cobra command for the Myriad client.
// It registers the history, widget and dispatch commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "myriad",
		Short: "Myriad client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers the client command groups on parent.
func AddCommands(parent *cobra.Command, baseURL BaseURLFunc) {
	parent.AddCommand(NewHistoryCommand(baseURL))
	parent.AddCommand(NewWidgetsCommand(baseURL))
	parent.AddCommand(NewDispatchCommand(baseURL))
}
