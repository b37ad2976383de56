package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	asUser    string
	asGroups  string
)

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "CLI for the ESG standards registry server",
	Long: `registryctl ingests framework standard packages into the registry and
inspects frameworks, versions, ingestion jobs, and project readiness.

Mutating commands (ingest) require an identity in the registry admin group;
set it with --as-user and --as-group or the REGISTRY_USER / REGISTRY_GROUPS
environment variables.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Registry server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&asUser, "as-user", "", "User identity sent as X-Remote-User")
	rootCmd.PersistentFlags().StringVar(&asGroups, "as-group", "", "Comma-separated groups sent as X-Remote-Group")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(frameworksCmd)
	rootCmd.AddCommand(readinessCmd)
	rootCmd.AddCommand(healthCmd)
}

// resolvedUser returns the effective identity.
// Priority: --as-user flag > REGISTRY_USER env var.
func resolvedUser() string {
	if asUser != "" {
		return asUser
	}
	return os.Getenv("REGISTRY_USER")
}

func resolvedGroups() string {
	if asGroups != "" {
		return asGroups
	}
	return os.Getenv("REGISTRY_GROUPS")
}
