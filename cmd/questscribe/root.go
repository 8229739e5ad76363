package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/questscribe/internal/cli"
	"github.com/aretw0/questscribe/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "questscribe",
	Short: "QuestScribe tracks entity state along a document",
	Long: `QuestScribe records attribute changes as markers placed at positions in a
document and reconstructs any entity's state at any point of the text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context so servers shut down gracefully.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file or directory holding questscribe.yaml")
	rootCmd.PersistentFlags().String("doc", "", "Name of the document to operate on")
	rootCmd.PersistentFlags().String("store", "", "Store kind: file, memory, redis, sqlite or loam")
	rootCmd.PersistentFlags().String("store-path", "", "Directory or file used by the file, sqlite and loam stores")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error or off")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	overrides := map[string]*string{
		"doc":        &cfg.Document,
		"store":      &cfg.Store.Kind,
		"store-path": &cfg.Store.Path,
		"log-level":  &cfg.Log.Level,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, nil
}

// openWorkspace loads the configured document for a one-shot command.
func openWorkspace(cmd *cobra.Command, opts cli.Options) (*cli.Workspace, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts.Config = cfg
	return cli.Open(cmd.Context(), opts)
}

// withWorkspace runs fn against the configured document and closes the backend.
// When commit is set the document is saved after fn succeeds.
func withWorkspace(cmd *cobra.Command, commit bool, fn func(ctx context.Context, ws *cli.Workspace) error) (err error) {
	ws, err := openWorkspace(cmd, cli.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()
	if err := fn(ctx, ws); err != nil {
		return err
	}
	if commit {
		return ws.Commit(ctx)
	}
	return nil
}
