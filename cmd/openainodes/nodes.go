package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/nodes"
	"github.com/spf13/cobra"
)

func nodesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nodes [name]",
		Short: "List the available nodes or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Descriptors are static, so listing needs no config or database.
			reg, err := nodes.NewRegistry(nodes.Deps{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if asJSON {
					return writeJSON(out, map[string]any{
						"name":        nodes.PackName,
						"version":     nodes.PackVersion,
						"description": nodes.PackDescription,
						"tags":        nodes.PackTags,
						"nodes":       reg.Descriptors(),
					})
				}
				return printNodeList(out, reg.Descriptors())
			}

			n, ok := reg.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", node.ErrUnknownNode, args[0])
			}
			desc := n.Descriptor()
			if asJSON {
				return writeJSON(out, map[string]any{"descriptor": desc, "schema": desc.Schema()})
			}
			return printNode(out, desc)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printNodeList(w io.Writer, descs []node.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s\n\n", nodes.PackName, nodes.PackVersion)
	fmt.Fprintln(tw, "NAME\tTITLE\tCATEGORY")
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", d.Name, d.Icon, d.Title, d.Category)
	}
	return tw.Flush()
}

func printNode(w io.Writer, d node.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s (%s)\n%s\n\nINPUT\tTYPE\tREQUIRED\tDEFAULT\tCHOICES\n", d.Icon, d.Title, d.Name, d.Description)
	for _, p := range d.Inputs {
		def := ""
		if p.Default != nil {
			def = fmt.Sprint(p.Default)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", p.Name, p.Type, p.Required, def, strings.Join(p.Choices, ","))
	}
	fmt.Fprintln(tw, "\nOUTPUT\tTYPE\t\t\t")
	for _, o := range d.Outputs {
		fmt.Fprintf(tw, "%s\t%s\t\t\t\n", o.Name, o.Type)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
