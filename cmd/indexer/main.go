package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	_ "github.com/goran-ethernal/ProposalIndexor/internal/indexer" // registers the contract indexers
	pkgconfig "github.com/goran-ethernal/ProposalIndexor/pkg/config"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║           ProposalIndexor v%s          ║
║   Funding & Proposal-Voting Event Index   ║
╚═══════════════════════════════════════════╝
`
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "ProposalIndexor - Funding and ProposalVoting event indexer",
	Long: `ProposalIndexor follows Funding and ProposalVoting contracts, decodes their
events into entity records and keeps the records consistent across chain
reorganizations.`,
	Version:      version,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start indexing",
	RunE:  runIndexer,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available indexer types",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available indexer types:")
		for _, t := range indexer.ListRegistered() {
			fmt.Fprintf(out, "  - %s\n", t)
		}
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List entity kinds and their fields",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, c := range events.Contracts {
			fmt.Fprintf(out, "%s:\n", c)
			for _, k := range events.KindsOf(c) {
				fmt.Fprintf(out, "  %-24s %s\n", k, strings.Join(entity.FieldNames(k), ", "))
			}
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jsonschema.Reflect(&pkgconfig.Config{}))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ProposalIndexor v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(runCmd, listCmd, kindsCmd, schemaCmd, versionCmd)
}
