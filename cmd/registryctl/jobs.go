package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent ingestion jobs",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to show")
}

func runJobs(cmd *cobra.Command, args []string) error {
	client := newClient()

	var result struct {
		Jobs []struct {
			ID              string `json:"id"`
			FrameworkCode   string `json:"frameworkCode"`
			VersionTag      string `json:"versionTag"`
			RequestedBy     string `json:"requestedBy"`
			Status          string `json:"status"`
			DisclosureCount int    `json:"disclosureCount"`
			DatapointCount  int    `json:"datapointCount"`
			RuleCount       int    `json:"ruleCount"`
			CreatedAt       string `json:"createdAt"`
		} `json:"jobs"`
		TotalSize int `json:"totalSize"`
	}
	path := fmt.Sprintf("%s/ingestions?limit=%d", apiBase, jobsLimit)
	if err := client.getJSON(path, &result); err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(result)
	}

	headers := []string{"Framework", "Version", "Requested By", "Status", "Disclosures", "Datapoints", "Rules", "Created At"}
	rows := make([][]string, 0, len(result.Jobs))
	for _, j := range result.Jobs {
		rows = append(rows, []string{
			j.FrameworkCode,
			j.VersionTag,
			j.RequestedBy,
			j.Status,
			strconv.Itoa(j.DisclosureCount),
			strconv.Itoa(j.DatapointCount),
			strconv.Itoa(j.RuleCount),
			j.CreatedAt,
		})
	}
	printTable(headers, rows)
	fmt.Printf("Total: %d\n", result.TotalSize)
	return nil
}
