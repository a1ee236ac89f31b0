package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/metalagman/openainodes/internal/llmconfig"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func llmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Manage stored LLM configurations",
	}
	cmd.AddCommand(llmAddCmd())
	cmd.AddCommand(llmListCmd())
	cmd.AddCommand(llmShowCmd())
	cmd.AddCommand(llmRemoveCmd())
	return cmd
}

type llmFlags struct {
	model     string
	provider  string
	baseURL   string
	apiKey    string
	apiKeyEnv string
	timeout   time.Duration
}

// record builds the stored configuration. Empty flags are left out of parameters.
func (f llmFlags) record(id string) (llmconfig.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return llmconfig.Record{}, fmt.Errorf("llm config id is required")
	}
	model := strings.TrimSpace(f.model)
	if model == "" {
		return llmconfig.Record{}, fmt.Errorf("--model is required")
	}
	provider := strings.TrimSpace(f.provider)
	if provider != "" && provider != llmconfig.DefaultProvider {
		return llmconfig.Record{}, fmt.Errorf("unsupported provider %q", provider)
	}

	params := map[string]any{}
	for key, value := range map[string]string{
		"base_url":    f.baseURL,
		"api_key":     f.apiKey,
		"api_key_env": f.apiKeyEnv,
	} {
		if v := strings.TrimSpace(value); v != "" {
			params[key] = v
		}
	}
	if f.timeout > 0 {
		params["timeout"] = f.timeout.String()
	}
	if len(params) == 0 {
		params = nil
	}
	return llmconfig.Record{ID: id, Model: model, Provider: provider, Parameters: params}, nil
}

func llmAddCmd() *cobra.Command {
	var f llmFlags
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or replace a stored LLM configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := f.record(args[0])
			if err != nil {
				return err
			}
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := ws.store.PutLLMConfig(cmd.Context(), rec); err != nil {
				return err
			}
			log.Info().Msgf("llm config %s saved", rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.model, "model", "", "model name sent to the API (llm_name)")
	cmd.Flags().StringVar(&f.provider, "provider", llmconfig.DefaultProvider, "provider")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "API base URL")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&f.apiKeyEnv, "api-key-env", "", "environment variable holding the API key")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-request timeout (0 means none)")
	return cmd
}

func llmListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List LLM configurations from the config file and the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()

			stored, err := ws.store.ListLLMConfigs(cmd.Context())
			if err != nil {
				return err
			}
			fromFile := make([]llmconfig.Record, 0, len(ws.cfg.LLMs))
			for _, rec := range ws.cfg.Resolver() {
				fromFile = append(fromFile, rec)
			}
			sort.Slice(fromFile, func(i, j int) bool { return fromFile[i].ID < fromFile[j].ID })

			if len(stored) == 0 && len(fromFile) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no llm configurations")
				return nil
			}
			return printLLMConfigs(cmd.OutOrStdout(), fromFile, stored)
		},
	}
}

func printLLMConfigs(w io.Writer, fromFile, stored []llmconfig.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODEL\tPROVIDER\tBASE URL\tSOURCE")
	row := func(rec llmconfig.Record, source string) {
		baseURL, _ := rec.Parameters["base_url"].(string)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.Model, rec.Provider, baseURL, source)
	}
	for _, rec := range fromFile {
		row(rec, "config")
	}
	for _, rec := range stored {
		row(rec, "database")
	}
	return tw.Flush()
}

func llmShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the LLM configuration a node would resolve for id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			rec, err := ws.resolver().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), redact(rec))
		},
	}
}

// redact masks the API key of rec.
func redact(rec llmconfig.Record) llmconfig.Record {
	if _, ok := rec.Parameters["api_key"]; !ok {
		return rec
	}
	params := make(map[string]any, len(rec.Parameters))
	for k, v := range rec.Parameters {
		params[k] = v
	}
	params["api_key"] = "********"
	rec.Parameters = params
	return rec
}

func llmRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a stored LLM configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			if err := ws.store.DeleteLLMConfig(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Msgf("llm config %s removed", args[0])
			return nil
		},
	}
}
