package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/document"
	"github.com/vk/flowgrid/internal/profile"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/run"
	"github.com/vk/flowgrid/nodes"
)

var runFlags struct {
	profilePath string
	workers     int
	keepAlive   time.Duration
	outputs     []string
	startID     string
	stopID      string
	logLevel    string
	logFormat   string
}

var runCmd = &cobra.Command{
	Use:   "run FLOW_FILE",
	Short: "Execute a flow document and stream build events",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.profilePath, "profile", "", "path to a YAML engine profile")
	runCmd.Flags().IntVar(&runFlags.workers, "workers", 0, "concurrent builds per layer (overrides profile)")
	runCmd.Flags().DurationVar(&runFlags.keepAlive, "keep-alive", 0, "idle keep-alive interval (overrides profile)")
	runCmd.Flags().StringSliceVar(&runFlags.outputs, "output", nil, "vertex ids to collect results for (repeatable)")
	runCmd.Flags().StringVar(&runFlags.startID, "start", "", "bound the run to vertices reachable from this id")
	runCmd.Flags().StringVar(&runFlags.stopID, "stop", "", "bound the run to vertices that can reach this id")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "debug, info, warn or error (overrides profile)")
	runCmd.Flags().StringVar(&runFlags.logFormat, "log-format", "", "text or json (overrides profile)")
}

func runRun(cmd *cobra.Command, args []string) error {
	prof, err := profile.Load(runFlags.profilePath)
	if err != nil {
		return err
	}
	if runFlags.workers > 0 {
		prof.Workers = runFlags.workers
	}
	if runFlags.keepAlive > 0 {
		prof.KeepAlive = runFlags.keepAlive
	}
	if runFlags.logLevel != "" {
		prof.LogLevel = runFlags.logLevel
	}
	if runFlags.logFormat != "" {
		prof.LogFormat = runFlags.logFormat
	}

	logger := ctxlog.New(prof.LogLevel, prof.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	reg := registry.New()
	nodes.RegisterBuiltin(reg)
	if err := reg.Validate(ctx); err != nil {
		return err
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	g, err := document.Parse(ctx, src, args[0], reg)
	if err != nil {
		return err
	}

	handle, err := run.New(reg).Start(ctx, g, run.Options{
		Outputs:     runFlags.outputs,
		StartID:     runFlags.startID,
		StopID:      runFlags.stopID,
		Workers:     prof.Workers,
		KeepAlive:   prof.KeepAlive,
		EventBuffer: prof.EventBuffer,
	})
	if err != nil {
		return err
	}

	// Ctrl-C maps to graceful run cancellation; committed results survive.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		logger.Warn("Interrupt received, cancelling run.")
		handle.Cancel()
	}()

	for ev := range handle.Events() {
		switch ev.Type {
		case run.EventVertexBuilt:
			status := "ok"
			if !ev.Valid {
				status = "failed: " + ev.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%8s] %-20s %s\n", ev.Elapsed.Round(time.Millisecond), ev.VertexID, status)
		case run.EventStreamChunk:
			fmt.Fprint(cmd.OutOrStdout(), ev.Chunk)
		case run.EventStreamClosed:
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	results, err := handle.Wait()
	if err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", res.VertexID, res.Repr)
		} else {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", res.VertexID, res.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d output vertex(es) failed", failed)
	}
	return nil
}
