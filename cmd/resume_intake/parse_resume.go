package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-intake/internal/extraction"
)

var parseResumeCmd = &cobra.Command{
	Use:   "parse-resume",
	Short: "Extract a structured profile from one résumé",
	Long:  "Extract a structured profile from a résumé document and print it as JSON. Nothing is stored.",
	RunE:  runParseResume,
}

var parseFile string

func init() {
	parseResumeCmd.Flags().StringVarP(&parseFile, "file", "f", "", "Path to a PDF, Word or text résumé (required)")
	_ = parseResumeCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(parseResumeCmd)
}

func runParseResume(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(parseFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	a, err := newApp(ctx, appOptions{extractor: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if a.extractor == nil {
		return fmt.Errorf("API key is required (set INTAKE_LLM_API_KEY or GEMINI_API_KEY)")
	}

	profile, err := a.extractor.Extract(ctx, data, extraction.DetectMIMEType("", parseFile, data))
	if err != nil {
		return fmt.Errorf("failed to extract profile: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(profile)
}
