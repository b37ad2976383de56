package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "Inspect ingested frameworks and their versions",
}

func init() {
	frameworksCmd.AddCommand(frameworksListCmd)
	frameworksCmd.AddCommand(frameworksVersionsCmd)
	frameworksCmd.AddCommand(frameworksGetCmd)
}

var frameworksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ingested frameworks",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Frameworks []struct {
				Code        string `json:"code"`
				Name        string `json:"name"`
				Description string `json:"description"`
				UpdatedAt   string `json:"updatedAt"`
			} `json:"frameworks"`
		}
		if err := client.getJSON(apiBase+"/frameworks", &result); err != nil {
			return fmt.Errorf("failed to list frameworks: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Code", "Name", "Description", "Updated At"}
		rows := make([][]string, 0, len(result.Frameworks))
		for _, f := range result.Frameworks {
			rows = append(rows, []string{f.Code, f.Name, truncate(f.Description, 48), f.UpdatedAt})
		}
		printTable(headers, rows)
		return nil
	},
}

var frameworksVersionsCmd = &cobra.Command{
	Use:   "versions <code>",
	Short: "List versions of a framework",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Versions []struct {
				VersionTag string `json:"versionTag"`
				Status     string `json:"status"`
				Checksum   string `json:"checksum"`
				SourceURL  string `json:"sourceUrl"`
				CreatedAt  string `json:"createdAt"`
			} `json:"versions"`
		}
		path := fmt.Sprintf("%s/frameworks/%s/versions", apiBase, args[0])
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Version", "Status", "Checksum", "Source", "Created At"}
		rows := make([][]string, 0, len(result.Versions))
		for _, v := range result.Versions {
			rows = append(rows, []string{
				v.VersionTag, v.Status, truncate(v.Checksum, 16), truncate(v.SourceURL, 40), v.CreatedAt,
			})
		}
		printTable(headers, rows)
		return nil
	},
}

var frameworksGetCmd = &cobra.Command{
	Use:   "get <code> <version>",
	Short: "Show one framework version with its content counts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var result struct {
			Version struct {
				VersionTag string `json:"versionTag"`
				Status     string `json:"status"`
				Checksum   string `json:"checksum"`
				Notes      string `json:"notes"`
			} `json:"version"`
			Counts struct {
				Disclosures     int `json:"disclosures"`
				Datapoints      int `json:"datapoints"`
				ValidationRules int `json:"validationRules"`
			} `json:"counts"`
		}
		path := fmt.Sprintf("%s/frameworks/%s/versions/%s", apiBase, args[0], args[1])
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Field", "Value"}
		rows := [][]string{
			{"Version", result.Version.VersionTag},
			{"Status", result.Version.Status},
			{"Checksum", result.Version.Checksum},
			{"Disclosures", strconv.Itoa(result.Counts.Disclosures)},
			{"Datapoints", strconv.Itoa(result.Counts.Datapoints)},
			{"Validation rules", strconv.Itoa(result.Counts.ValidationRules)},
		}
		if result.Version.Notes != "" {
			rows = append(rows, []string{"Notes", truncate(result.Version.Notes, 60)})
		}
		printTable(headers, rows)
		return nil
	},
}
