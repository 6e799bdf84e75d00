package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GoCodeAlone/deq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewReplayCommand creates the replay command
func NewReplayCommand(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Replay a YAML or JSON command script into a queue",
		Long: `Replay reads a list of commands (YAML or JSON, "-" or no file for stdin)
and submits them in order to the queue. Every event matching --listen and
every "deq error" event is written to stdout as one JSON line.

Example script:

  - command: PERSIST DATA
    matchEvent: "checkout.*"
    duration: 3600
    data: {cart: "c-42"}
  - command: ADD EVENT
    name: checkout start`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			cmds, err := decodeScript(in)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())
			registry, engine, err := deq.OpenRegistry(ctx, cfg, deq.WithRegistryLogger(logger))
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close(ctx) }()

			printer := &eventPrinter{out: cmd.OutOrStdout()}
			q, err := registry.GetOrCreate(ctx, opts.queue,
				deq.NewAddListener("deqcli printer", listen, printer.print, false),
				deq.NewAddListener("deqcli errors", deq.ErrorEventName, printer.print, false),
			)
			if err != nil {
				return err
			}

			q.SubmitBulk(ctx, &cmds)
			logger.Debug("Replay finished", "queue", opts.queue, "stats", q.Stats())
			return printer.err
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ".*", "Pattern of the events to print")

	return cmd
}

// decodeScript reads a YAML (or JSON) list of commands
func decodeScript(r io.Reader) ([]deq.Command, error) {
	var raw []map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	cmds := make([]deq.Command, 0, len(raw))
	for i, entry := range raw {
		if entry == nil {
			return nil, fmt.Errorf("%w: entry %d is empty", ErrInvalidScript, i)
		}
		cmds = append(cmds, deq.Command(entry))
	}
	return cmds, nil
}

// printedEvent is the JSON line written for every printed event
type printedEvent struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

type eventPrinter struct {
	out    io.Writer
	lastID string
	err    error
}

func (p *eventPrinter) print(_ context.Context, ev deq.Event) error {
	// An event matching both listeners is printed once.
	if ev.ID == p.lastID {
		return nil
	}
	p.lastID = ev.ID

	data := ev.Data
	if err := ev.Err(); err != nil {
		data = make(map[string]any, len(ev.Data))
		for k, v := range ev.Data {
			data[k] = v
		}
		data[deq.ErrorFieldError] = err.Error()
	}

	line, err := json.Marshal(printedEvent{ID: ev.ID, Name: ev.Name, Data: data})
	if err != nil {
		line = []byte(fmt.Sprintf(`{"id":%q,"name":%q,"encodeError":%q}`, ev.ID, ev.Name, err.Error()))
	}
	if _, err := fmt.Fprintln(p.out, string(line)); err != nil && p.err == nil {
		p.err = err
	}
	return nil
}
