package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/GoCodeAlone/deq/persist"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewPropsCommand creates the props command
func NewPropsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "props",
		Short: "Inspect and edit persisted properties",
		Long:  `Read, write and clear the properties persisted for a queue in the configured store.`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(newPropsGetCommand(opts))
	cmd.AddCommand(newPropsShowCommand(opts))
	cmd.AddCommand(newPropsSetCommand(opts))
	cmd.AddCommand(newPropsClearCommand(opts))

	return cmd
}

// withStore opens the property store for one subcommand run
func withStore(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, store *persist.PropertyStore) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, engine, err := openStore(ctx, opts, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(ctx) }()
	return fn(ctx, store)
}

func newPropsGetCommand(opts *globalOptions) *cobra.Command {
	var event string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the properties an event would receive",
		Long: `Get prints the merged properties an event with the given name would receive.
Deferred properties are consumed, exactly as a real event would consume them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *persist.PropertyStore) error {
				props, err := store.GetProperties(ctx, event)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), props)
			})
		},
	}

	cmd.Flags().StringVarP(&event, "event", "e", "", "Event name")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func newPropsShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every tier without consuming deferred properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *persist.PropertyStore) error {
				snapshot, err := store.Snapshot(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), snapshot)
			})
		},
	}
}

func newPropsSetCommand(opts *globalOptions) *cobra.Command {
	var (
		match    string
		duration string
		renew    bool
	)

	cmd := &cobra.Command{
		Use:   "set key=value...",
		Short: "Persist properties for events matching a pattern",
		Long: `Set stores each key=value pair for events matching --match.
Values are parsed as YAML scalars, so 42 is a number and true a boolean.
--duration accepts PAGELOAD, SESSION, DEFER or a number of seconds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseAssignments(args)
			if err != nil {
				return err
			}
			d, err := persist.ParseDuration(duration)
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, store *persist.PropertyStore) error {
				return store.AddProperties(ctx, persist.Properties{
					Data:       data,
					MatchEvent: match,
					Duration:   d,
					Renew:      renew,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&match, "match", "m", "", "Event name pattern")
	cmd.Flags().StringVarP(&duration, "duration", "d", persist.DurationSession, "PAGELOAD, SESSION, DEFER or seconds")
	cmd.Flags().BoolVarP(&renew, "renew", "r", false, "Slide the expiry forward on every access")
	_ = cmd.MarkFlagRequired("match")

	return cmd
}

func newPropsClearCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted property of the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *persist.PropertyStore) error {
				return store.Clear(ctx)
			})
		},
	}
}

func parseAssignments(args []string) (map[string]any, error) {
	data := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, arg)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		data[key] = value
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
