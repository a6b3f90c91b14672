package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/tools"
)

// functionDefinitions converts the registry into the advertised tool list.
func functionDefinitions(reg *tools.Registry) []provider.FunctionDefinition {
	defs := reg.Definitions()
	out := make([]provider.FunctionDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, provider.FunctionDefinition{Name: d.Name, Description: d.Description, Parameters: d.InputSchema})
	}
	return out
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the function definitions advertised to the assistant",
		// No API access needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.registry = tools.DefaultRegistry()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(functionDefinitions(a.registry))
		},
	}
}

func newSyncToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-tools",
		Short: "Replace the assistant's function tools with the local registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := functionDefinitions(a.registry)
			if err := a.client.SyncFunctions(cmd.Context(), a.cfg.AssistantID, defs); err != nil {
				return err
			}
			a.logger.Info().Str("assistant_id", a.cfg.AssistantID).Int("functions", len(defs)).Msg("tools synced")
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d functions to %s\n", len(defs), a.cfg.AssistantID)
			return nil
		},
	}
}
