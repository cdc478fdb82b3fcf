package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/framework"
	"github.com/notelens-ai/notelens/internal/gap"
	"github.com/notelens-ai/notelens/internal/pii"
)

const defaultNote = "Met Jane Doe (jane.doe@example.com, +44 7700 900123) for the annual review. " +
	"Discussed attitude to risk, capacity for loss and the ongoing charges on the ISA. " +
	"NI AB 12 34 56 C on file; payments from sort code 12-34-56."

func main() {
	cfgPath := flag.String("config", "", "path to config yaml (optional; builtin patterns when empty)")
	n := flag.Int("n", 1000, "number of iterations")
	note := flag.String("note", defaultNote, "note text to mask")
	flag.Parse()

	masking := config.MaskingConfig{SeqLen: 256}
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		masking = cfg.Masking
	}

	patterns := pii.BuiltinPatterns()
	if masking.PatternsFile != "" {
		loaded, err := pii.LoadPatterns(masking.PatternsFile)
		if err != nil {
			log.Fatalf("load patterns: %v", err)
		}
		patterns = loaded
	}

	var model *pii.NERModel
	if masking.ModelBundle != "" {
		loaded, err := pii.LoadNERModel(masking.ModelBundle, masking.SeqLen)
		if err != nil {
			log.Fatalf("load ner model: %v", err)
		}
		model = loaded
	}

	masker := pii.NewMasker(patterns, model)

	// Warmup
	for i := 0; i < 5; i++ {
		if _, _, err := masker.Mask(*note); err != nil {
			log.Fatalf("warmup mask failed: %v", err)
		}
	}

	if *n <= 0 {
		*n = 1
	}

	// fixed item set so aggregation and classification run on every iteration
	items := []gap.Item{
		{ElementID: "risk_profile", Status: gap.StatusPresent, Severity: framework.SeverityCritical, Required: true, Score: 0.9},
		{ElementID: "costs_charges", Status: gap.StatusPartial, Severity: framework.SeverityHigh, Required: true, Score: 0.5},
		{ElementID: "rationale", Status: gap.StatusPresent, Severity: framework.SeverityMedium, Required: true, Score: 0.8},
		{ElementID: "confirmation", Status: gap.StatusMissing, Severity: framework.SeverityLow, Required: false, Score: 0.0},
	}
	policy := gap.DefaultPassPolicy()

	durations := make([]time.Duration, 0, *n)
	for i := 0; i < *n; i++ {
		start := time.Now()
		if _, _, err := masker.Mask(*note); err != nil {
			log.Fatalf("mask failed: %v", err)
		}
		overall, err := gap.OverallScore(items, policy)
		if err != nil {
			log.Fatalf("aggregate failed: %v", err)
		}
		gap.Classify(items, overall, policy)
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.3f p50_ms=%.3f p95_ms=%.3f patterns=%s ner=%v note_bytes=%d\n",
		len(durations),
		avg,
		p50,
		p95,
		patterns.Version(),
		model != nil,
		len(*note),
	)
}
