package main

import (
	"fmt"
	"os"
	"time"

	"github.com/notelens-ai/notelens/internal/audit"
	"github.com/notelens-ai/notelens/internal/config"
	"github.com/notelens-ai/notelens/internal/evaluator"
	"github.com/notelens-ai/notelens/internal/judge"
	"github.com/notelens-ai/notelens/internal/pii"
	"github.com/notelens-ai/notelens/internal/provider"
	"github.com/notelens-ai/notelens/internal/telemetry"
)

func buildProvider(pc config.ProviderConfig) provider.Provider {
	key := pc.APIKey
	if pc.APIKeyEnv != "" {
		if env := os.Getenv(pc.APIKeyEnv); env != "" {
			key = env
		}
	}
	return provider.NewOpenAI(pc.BaseURL, key, time.Duration(pc.TimeoutSeconds)*time.Second, pc.MaxResponseBytes)
}

func buildMasker(mc config.MaskingConfig) (*pii.Masker, error) {
	patterns := pii.BuiltinPatterns()
	if mc.PatternsFile != "" {
		loaded, err := pii.LoadPatterns(mc.PatternsFile)
		if err != nil {
			return nil, fmt.Errorf("load pii patterns: %w", err)
		}
		patterns = loaded
	}

	var model *pii.NERModel
	if mc.ModelBundle != "" {
		loaded, err := pii.LoadNERModel(mc.ModelBundle, mc.SeqLen)
		if err != nil {
			return nil, fmt.Errorf("load ner model: %w", err)
		}
		model = loaded
	}

	return pii.NewMasker(patterns, model), nil
}

func buildEvaluators(cfg *config.Config, masker *pii.Masker, tel *telemetry.Provider) map[string]*evaluator.Evaluator {
	evaluators := make(map[string]*evaluator.Evaluator, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		prov := buildProvider(pc)
		j := judge.NewLLM(prov, cfg.Judge.Model, cfg.Judge.MaxTokens)
		evaluators[name] = evaluator.New(j, evaluator.Options{
			Masker:        masker,
			Concurrency:   cfg.Judge.Concurrency,
			ModelLabel:    cfg.Judge.Model,
			ProviderLabel: name,
			Telemetry:     tel,
		})
	}
	return evaluators
}

func buildAuditEmitter(ac config.AuditConfig) (*audit.Emitter, error) {
	var sinks []audit.Sink
	for _, sc := range ac.Sinks {
		switch sc.Type {
		case "file_jsonl":
			sink, err := audit.NewFileSink(sc.Path)
			if err != nil {
				return nil, fmt.Errorf("audit file sink: %w", err)
			}
			sinks = append(sinks, sink)
		case "webhook":
			sink, err := audit.NewWebhookSink(sc.URL, sc.Headers, 10*time.Second)
			if err != nil {
				return nil, fmt.Errorf("audit webhook sink: %w", err)
			}
			sinks = append(sinks, sink)
		default:
			return nil, fmt.Errorf("audit sink: unknown type %q", sc.Type)
		}
	}
	return audit.NewEmitter(audit.EmitterConfig{QueueSize: ac.QueueSize, Workers: ac.Workers}, sinks), nil
}
