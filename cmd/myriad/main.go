package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	clientcmd "github.com/rzbill/myriad/internal/cmd/client"
	serverrun "github.com/rzbill/myriad/internal/cmd/server"
	cfgpkg "github.com/rzbill/myriad/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "myriad",
		Short: "Myriad dashboard runtime CLI",
		Long:  "Myriad serves dashboard widgets with persistent, size-bounded histories. This CLI runs the server and talks to it.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the Myriad server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			if err := serverrun.Run(context.Background(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	addServerFlags(serverStartCmd)
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// config print
	configCmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	configPrintCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the effective server configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	addServerFlags(configPrintCmd)
	configCmd.AddCommand(configPrintCmd)
	rootCmd.AddCommand(configCmd)

	clientcmd.AddCommands(rootCmd, clientcmd.BaseURLFromEnv)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", os.Getenv("MYRIAD_CONFIG"), "Config file (YAML or JSON)")
	cmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	cmd.Flags().String("backend", "", "Storage backend: pebble|sqlite|memory")
	cmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	cmd.Flags().String("http", "", "HTTP listen address")
	cmd.Flags().String("grpc", "", "gRPC listen address (--grpc \"\" disables gRPC)")
	cmd.Flags().String("dashboard", "", "Dashboard file loaded at start and saved on shutdown")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", "", "Log format: text|json")
}

// resolve builds the config from file, environment and flags, in that order.
func resolve(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := serverrun.ResolveConfig(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	overrides := map[string]*string{
		"data-dir":   &cfg.Storage.DataDir,
		"backend":    &cfg.Storage.Backend,
		"fsync":      &cfg.Storage.Fsync,
		"http":       &cfg.HTTP.Addr,
		"grpc":       &cfg.GRPC.Addr,
		"dashboard":  &cfg.Dashboard.File,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	}
	for name, dst := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		// An explicit empty --grpc disables the gRPC listener.
		if v, _ := cmd.Flags().GetString(name); v != "" || name == "grpc" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}
