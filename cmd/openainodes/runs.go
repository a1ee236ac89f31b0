package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/metalagman/openainodes/internal/run"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and prune recorded node invocations",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsShowCmd())
	cmd.AddCommand(runsPruneCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var nodeName string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded invocations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()

			invs, err := ws.history.List(cmd.Context(), run.Filter{Node: nodeName, Limit: limit})
			if err != nil {
				return err
			}
			if len(invs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no invocations")
				return nil
			}
			return printInvocations(cmd.OutOrStdout(), invs)
		},
	}
	cmd.Flags().StringVar(&nodeName, "node", "", "only list invocations of this node")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of invocations (0 for all)")
	return cmd
}

func printInvocations(w io.Writer, invs []run.Invocation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNODE\tSTATUS\tERROR KIND\tSTARTED\tDURATION")
	for _, inv := range invs {
		duration := ""
		if inv.EndedAt != nil {
			duration = inv.EndedAt.Sub(inv.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.Node, inv.Status, inv.ErrorKind, inv.StartedAt.Local().Format(time.DateTime), duration)
	}
	return tw.Flush()
}

func runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <invocation-id>",
		Short: "Show one invocation with its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()

			inv, err := ws.history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			events, err := ws.history.Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				run.Invocation
				Events []run.Event `json:"events"`
			}{inv, events})
		},
	}
}

func runsPruneCmd() *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune old invocations from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()

			policy := run.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays}
			if !policy.Enabled() {
				policy = ws.retention()
			}
			if !policy.Enabled() {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in %s)", defaultConfigPath)
			}

			res, err := run.Prune(cmd.Context(), ws.db, policy, dryRun)
			if err != nil {
				return err
			}
			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			log.Info().Msgf("%s %d invocations (kept %d)", mode, res.Deleted, res.Kept)
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N invocations")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep invocations newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}
