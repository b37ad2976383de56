package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var readinessCmd = &cobra.Command{
	Use:   "readiness <projectId>",
	Short: "Show a project's readiness report across all standards",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadiness,
}

func runReadiness(cmd *cobra.Command, args []string) error {
	client := newClient()

	var report struct {
		ProjectID    string `json:"projectId"`
		OverallScore int    `json:"overallScore"`
		Standards    []struct {
			Standard            string   `json:"standard"`
			Supported           bool     `json:"supported"`
			CoverageScore       int      `json:"coverageScore"`
			Status              string   `json:"status"`
			MissingRequirements []string `json:"missingRequirements"`
		} `json:"standards"`
		NextSteps []struct {
			Standard            string   `json:"standard"`
			Status              string   `json:"status"`
			MissingRequirements []string `json:"missingRequirements"`
		} `json:"nextSteps"`
	}
	path := fmt.Sprintf("%s/projects/%s/readiness", apiBase, args[0])
	if err := client.getJSON(path, &report); err != nil {
		return fmt.Errorf("failed to get readiness: %w", err)
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(report)
	}

	headers := []string{"Standard", "Score", "Status", "Missing"}
	rows := make([][]string, 0, len(report.Standards))
	for _, s := range report.Standards {
		rows = append(rows, []string{
			s.Standard,
			strconv.Itoa(s.CoverageScore),
			s.Status,
			truncate(strings.Join(s.MissingRequirements, "; "), 72),
		})
	}
	printTable(headers, rows)
	fmt.Printf("Overall: %d\n", report.OverallScore)
	return nil
}
