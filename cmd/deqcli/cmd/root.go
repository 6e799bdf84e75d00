package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GoCodeAlone/deq"
	"github.com/spf13/cobra"
)

// OsExit allows tests to intercept process exit
var OsExit = os.Exit

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion returns the version banner
func PrintVersion() string {
	return fmt.Sprintf("DEQ CLI v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	queue      string
	verbose    bool
}

func (o *globalOptions) logger(w io.Writer) deq.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return deq.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewRootCommand creates the root command for the deqcli application
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "deqcli",
		Short: "DEQ CLI - Replay command scripts and inspect persisted properties",
		Long: `DEQ CLI drives a digital event queue from the command line.
It replays command scripts against a queue backed by the configured
property store and inspects or edits the persisted properties.`,
		Version:      Version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.SetVersionTemplate(PrintVersion() + "\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (yaml, toml or json); DEQ_ environment variables override it")
	cmd.PersistentFlags().StringVarP(&opts.queue, "queue", "q", "main", "Queue name")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log queue diagnostics to stderr")

	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewPropsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}
