package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/document"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/vk/flowgrid/nodes"
)

var checkCmd = &cobra.Command{
	Use:   "check FLOW_FILE",
	Short: "Parse and validate a flow document without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := ctxlog.WithLogger(cmd.Context(), ctxlog.New("warn", "text", os.Stderr))

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

	sched, err := scheduler.New(g, "", "")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d vertices, %d edges\n", args[0], len(g.Vertices()), len(g.Edges()))
	for i, layer := range sched.Layers() {
		fmt.Fprintf(cmd.OutOrStdout(), "  layer %d: %s\n", i, strings.Join(layer, ", "))
	}
	return nil
}
