package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/evaluator"
	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/judge"
	"github.com/notelens-ai/notelens/internal/logging"
)

var evaluateFlags struct {
	configPath        string
	providerName      string
	frameworkRef      string
	meetingType       string
	maskPII           bool
	verbose           bool
	jsonOut           bool
	customInstruction string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <note-file>",
	Short: "Evaluate a compliance note against a framework",
	Long: `Reads an adviser note from a file (or stdin with "-") and judges it
against the selected framework, printing the gap report.

Unlike the API, the CLI accepts a framework file path as well as an id:

  notelens evaluate note.txt --framework fca_suitability_v1
  notelens evaluate note.txt --framework ./my_framework.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.configPath, "config", "notelens.yaml", "Path to config file")
	f.StringVar(&evaluateFlags.providerName, "provider", "", "Provider name from config (default: default_provider)")
	f.StringVar(&evaluateFlags.frameworkRef, "framework", "fca_suitability_v1", "Framework id or YAML file path")
	f.StringVar(&evaluateFlags.meetingType, "meeting-type", "", "Meeting type for framework overrides")
	f.BoolVar(&evaluateFlags.maskPII, "mask-pii", false, "Mask PII before any judge call")
	f.BoolVar(&evaluateFlags.verbose, "verbose", false, "Include judge notes per element")
	f.BoolVar(&evaluateFlags.jsonOut, "json", false, "Print the full report as JSON")
	f.StringVar(&evaluateFlags.customInstruction, "instruction", "", "Extra instruction passed to the judge")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	note, err := readNote(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(evaluateFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	name := evaluateFlags.providerName
	if name == "" {
		name = cfg.DefaultProvider
	}
	pc, ok := cfg.Providers[name]
	if !ok {
		return fmt.Errorf("provider %q not found in config", name)
	}

	masker, err := buildMasker(cfg.Masking)
	if err != nil {
		return err
	}

	j := judge.NewLLM(buildProvider(pc), cfg.Judge.Model, cfg.Judge.MaxTokens)
	ev := evaluator.New(j, evaluator.Options{
		Masker:        masker,
		Concurrency:   cfg.Judge.Concurrency,
		ModelLabel:    cfg.Judge.Model,
		ProviderLabel: name,
	})

	policy := cfg.Policy.PassPolicy()
	report, err := ev.Evaluate(cmd.Context(), evaluator.Request{
		Note:              note,
		Framework:         evaluateFlags.frameworkRef,
		MeetingType:       evaluateFlags.meetingType,
		MaskPII:           evaluateFlags.maskPII,
		Verbose:           evaluateFlags.verbose,
		CustomInstruction: evaluateFlags.customInstruction,
		Policy:            &policy,
	})
	if err != nil {
		return err
	}

	if evaluateFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	if !report.Passed {
		os.Exit(2)
	}
	return nil
}

func readNote(path string) (string, error) {
	if path == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	return string(data), nil
}

func printReport(r *gap.Report) {
	fmt.Printf("Framework: %s (v%s)\n", r.FrameworkID, r.FrameworkVersion)
	if r.MeetingType != "" {
		fmt.Printf("Meeting type: %s\n", r.MeetingType)
	}
	fmt.Printf("Rating: %s  Score: %.2f  Passed: %v\n\n", r.OverallRating, r.OverallScore, r.Passed)

	for _, item := range r.Items {
		marker := "+"
		switch item.Status {
		case gap.StatusPartial:
			marker = "~"
		case gap.StatusMissing:
			marker = "-"
		}
		req := ""
		if item.Required {
			req = " (required)"
		}
		fmt.Printf("  [%s] %-28s %-8s %.2f  %s%s\n", marker, item.Name, item.Status, item.Score, strings.ToUpper(string(item.Severity)), req)
		if item.Evidence != "" && item.Status != gap.StatusMissing {
			fmt.Printf("      evidence: %s\n", item.Evidence)
		}
		for _, s := range item.Suggestions {
			fmt.Printf("      fix: %s\n", s)
		}
	}

	if r.Summary != "" {
		fmt.Printf("\n%s\n", r.Summary)
	}
}
