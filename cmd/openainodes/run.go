package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errNodeFailed makes the process exit non-zero after a failure outcome was printed.
var errNodeFailed = errors.New("node failed")

func runCmd() *cobra.Command {
	var pairs []string
	var inputsFile string
	cmd := &cobra.Command{
		Use:          "run <node>",
		Short:        "Run a node once and print its outcome as JSON",
		Long:         "Run a node once. Inputs come from --inputs-file (YAML or JSON) and --input key=value pairs; pairs win.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			inv, err := ws.invoker(nil)
			if err != nil {
				return err
			}
			n, ok := inv.Registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", node.ErrUnknownNode, args[0])
			}

			in, err := readInputsFile(inputsFile)
			if err != nil {
				return err
			}
			if err := parseInputPairs(n.Descriptor(), pairs, in); err != nil {
				return err
			}

			res, err := inv.Invoke(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), res.Map()); err != nil {
				return err
			}
			if !res.Outcome.Success {
				return errNodeFailed
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&pairs, "input", "i", nil, "node input as key=value (repeatable)")
	cmd.Flags().StringVarP(&inputsFile, "inputs-file", "f", "", "YAML or JSON file with node inputs")
	return cmd
}

// readInputsFile loads a YAML mapping of inputs. JSON is valid YAML.
func readInputsFile(path string) (node.Inputs, error) {
	in := node.Inputs{}
	if path == "" {
		return in, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse inputs file: %w", err)
	}
	if in == nil {
		in = node.Inputs{}
	}
	return in, nil
}

// parseInputPairs coerces key=value pairs to the declared input types.
func parseInputPairs(desc node.Descriptor, pairs []string, into node.Inputs) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --input %q: want key=value", pair)
		}
		v, err := desc.Coerce(key, value)
		if err != nil {
			return err
		}
		into[key] = v
	}
	return nil
}
