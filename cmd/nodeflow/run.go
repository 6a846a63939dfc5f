package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/graphfile"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/observability"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/runlog"
)

type runOptions struct {
	output string
	runID  string
	trace  bool
	record bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <graph-file>",
		Short: "Execute a graph file and print node outputs as they complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runGraph(ctx, root, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format: text or ndjson")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run id (default: random UUID)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print OpenTelemetry spans to stderr")
	cmd.Flags().BoolVar(&opts.record, "record", false, "record outputs in the configured run store")
	return cmd
}

func runGraph(ctx context.Context, root *rootOptions, opts *runOptions, path string, out, errOut io.Writer) error {
	var printer nodeflow.Observer
	switch opts.output {
	case "text":
		printer = &textPrinter{w: out}
	case "ndjson":
		printer = &ndjsonPrinter{enc: json.NewEncoder(out)}
	default:
		return fmt.Errorf("invalid output format %q", opts.output)
	}

	doc, err := graphfile.Load(path)
	if err != nil {
		return err
	}

	var engineOpts []nodeflow.EngineOption
	if opts.trace {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(errOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		engineOpts = append(engineOpts, nodeflow.WithSpanManager(observability.NewSpanManagerFromProvider(tp)))
	}
	engine := root.engine(engineOpts...)

	runOpts := []nodeflow.RunOption{nodeflow.WithObserver(printer)}
	if opts.runID != "" {
		runOpts = append(runOpts, nodeflow.WithRunID(opts.runID))
	}

	if opts.record {
		store, err := root.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		rec := runlog.NewRecorder(store, root.logger)
		runOpts = append(runOpts, nodeflow.WithObserver(rec))
		defer func() {
			if err := rec.Err(); err != nil {
				root.logger.Warn("run log incomplete", "error", err)
			}
		}()
	}

	res, err := engine.ExecuteFlow(ctx, doc.Plan(), runOpts...)
	if res != nil {
		fmt.Fprintf(errOut, "run %s: %d node(s) in %d wave(s), %d pruned, %s\n",
			res.RunID, len(res.Outputs), res.Waves, len(res.Pruned), res.Duration.Round(time.Millisecond))
	}
	return err
}

// textPrinter prints "node-id: output" lines.
type textPrinter struct {
	w io.Writer
}

func (p *textPrinter) OnNodeOutput(_, nodeID string, output any) {
	fmt.Fprintf(p.w, "%s: %s\n", nodeID, nodeflow.Stringify(output))
}

func (p *textPrinter) OnNodePruned(_, nodeID string) {
	fmt.Fprintf(p.w, "%s: (skipped)\n", nodeID)
}

// ndjsonPrinter writes one JSON object per event.
type ndjsonPrinter struct {
	enc *json.Encoder
}

type ndjsonEvent struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id"`
	NodeID string `json:"node_id"`
	Output any    `json:"output,omitempty"`
}

func (p *ndjsonPrinter) OnNodeOutput(runID, nodeID string, output any) {
	if err := p.enc.Encode(ndjsonEvent{Type: "node", RunID: runID, NodeID: nodeID, Output: output}); err != nil {
		_ = p.enc.Encode(ndjsonEvent{Type: "node", RunID: runID, NodeID: nodeID, Output: nodeflow.Stringify(output)})
	}
}

func (p *ndjsonPrinter) OnNodePruned(runID, nodeID string) {
	_ = p.enc.Encode(ndjsonEvent{Type: "pruned", RunID: runID, NodeID: nodeID})
}
