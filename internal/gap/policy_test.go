package gap

import (
	"testing"

	"github.com/notelens-ai/notelens/internal/framework"
)

func classify(t *testing.T, items []Item, p PassPolicy) (Rating, bool, float64) {
	t.Helper()
	overall, err := OverallScore(items, p)
	if err != nil {
		t.Fatalf("overall score: %v", err)
	}
	rating, passed := Classify(items, overall, p)
	return rating, passed, overall
}

func TestScenarioAllCriticalPresent(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusPresent, 1.0, framework.SeverityCritical, true),
	}
	rating, passed, overall := classify(t, items, p)
	if rating != RatingCompliant || !passed {
		t.Fatalf("rating=%s passed=%v, want Compliant/true", rating, passed)
	}
	if overall != 1.0 {
		t.Fatalf("overall = %v, want 1.0", overall)
	}
}

func TestScenarioCriticalMissingBlocks(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusMissing, 0.0, framework.SeverityCritical, true),
	}
	rating, passed, _ := classify(t, items, p)
	if rating != RatingNonCompliant || passed {
		t.Fatalf("rating=%s passed=%v, want Non-Compliant/false", rating, passed)
	}
	if stats := ComputeStats(items); stats.CriticalGaps != 1 {
		t.Fatalf("critical_gaps = %d, want 1", stats.CriticalGaps)
	}
}

func TestScenarioHighPartialBelowAggregateThreshold(t *testing.T) {
	// A required high element partial at 0.4 is not a hard block (only high
	// missing blocks), but the aggregate landing below 0.6 rates Requires
	// Attention.
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPartial, 0.4, framework.SeverityHigh, true),
		item("b", StatusPartial, 0.7, framework.SeverityMedium, true),
	}
	rating, passed, overall := classify(t, items, p)
	if overall >= p.RequiredPassThreshold {
		t.Fatalf("test fixture broken: overall %v not below threshold", overall)
	}
	if rating != RatingRequiresAttention || passed {
		t.Fatalf("rating=%s passed=%v, want Requires Attention/false", rating, passed)
	}
}

func TestScenarioOptionalLowMissingIsMinorGaps(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusPresent, 1.0, framework.SeverityHigh, true),
		item("c", StatusMissing, 0.0, framework.SeverityLow, false),
	}
	rating, passed, _ := classify(t, items, p)
	if rating != RatingMinorGaps || !passed {
		t.Fatalf("rating=%s passed=%v, want Minor Gaps/true", rating, passed)
	}
}

func TestCriticalMissingOverridesHighScores(t *testing.T) {
	// Precedence: a required critical missing element yields Non-Compliant no
	// matter how high every other score is.
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusMissing, 0.0, framework.SeverityCritical, true),
	}
	for i := 0; i < 20; i++ {
		items = append(items, item("x", StatusPresent, 1.0, framework.SeverityLow, false))
	}
	rating, passed, overall := classify(t, items, p)
	if overall < p.RequiredPassThreshold {
		t.Fatalf("test fixture broken: overall %v below threshold", overall)
	}
	if rating != RatingNonCompliant || passed {
		t.Fatalf("rating=%s passed=%v, want Non-Compliant/false", rating, passed)
	}
}

func TestCriticalPartialThresholdStrict(t *testing.T) {
	p := DefaultPassPolicy()

	below := []Item{item("a", StatusPartial, 0.3, framework.SeverityCritical, true)}
	if rating, _ := Classify(below, 1.0, p); rating != RatingNonCompliant {
		t.Fatalf("partial 0.3 should block, got %s", rating)
	}

	// exactly at the threshold does not block
	at := []Item{item("a", StatusPartial, 0.5, framework.SeverityCritical, true)}
	if rating, _ := Classify(at, 1.0, p); rating == RatingNonCompliant {
		t.Fatal("partial at exactly 0.5 must not block")
	}
}

func TestOptionalElementsNeverBlock(t *testing.T) {
	p := DefaultPassPolicy()
	items := []Item{
		item("a", StatusPresent, 1.0, framework.SeverityCritical, true),
		item("b", StatusMissing, 0.0, framework.SeverityCritical, false),
		item("c", StatusMissing, 0.0, framework.SeverityHigh, false),
	}
	rating, _, _ := classify(t, items, p)
	if rating == RatingNonCompliant {
		t.Fatalf("optional gaps must not hard-block: rating=%s", rating)
	}
}

func TestBlockerToggles(t *testing.T) {
	cases := []struct {
		name   string
		items  []Item
		adjust func(*PassPolicy)
	}{
		{
			name:   "critical missing toggle off",
			items:  []Item{item("a", StatusMissing, 0.0, framework.SeverityCritical, true)},
			adjust: func(p *PassPolicy) { p.BlockOnCriticalMissing = false },
		},
		{
			name:   "critical partial toggle off",
			items:  []Item{item("a", StatusPartial, 0.1, framework.SeverityCritical, true)},
			adjust: func(p *PassPolicy) { p.BlockOnCriticalPartial = false },
		},
		{
			name:   "high missing toggle off",
			items:  []Item{item("a", StatusMissing, 0.0, framework.SeverityHigh, true)},
			adjust: func(p *PassPolicy) { p.BlockOnHighMissing = false },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPassPolicy()
			if rating, _ := Classify(tc.items, 1.0, p); rating != RatingNonCompliant {
				t.Fatalf("expected block with default policy, got %s", rating)
			}
			tc.adjust(&p)
			if rating, _ := Classify(tc.items, 1.0, p); rating == RatingNonCompliant {
				t.Fatal("blocker still fires with toggle off")
			}
		})
	}
}

func TestPassedConsistentWithRating(t *testing.T) {
	p := DefaultPassPolicy()
	fixtures := [][]Item{
		{item("a", StatusPresent, 1.0, framework.SeverityCritical, true)},
		{item("a", StatusMissing, 0.0, framework.SeverityCritical, true)},
		{item("a", StatusMissing, 0.0, framework.SeverityLow, false), item("b", StatusPresent, 1.0, framework.SeverityHigh, true)},
		{item("a", StatusPartial, 0.4, framework.SeverityMedium, true)},
	}
	for i, items := range fixtures {
		rating, passed, _ := classify(t, items, p)
		wantPassed := rating == RatingCompliant || rating == RatingMinorGaps
		if passed != wantPassed {
			t.Fatalf("fixture %d: passed=%v inconsistent with rating %s", i, passed, rating)
		}
	}
}

func TestSuggestionsDeterministicAndShaped(t *testing.T) {
	el := framework.EffectiveElement{Element: framework.Element{
		ID:          "capacity_for_loss",
		Description: "The note must record capacity for loss. More detail follows.",
		Required:    true,
		Severity:    framework.SeverityCritical,
		Guidance:    "Look for explicit loss tolerance statements.",
	}}

	if got := Suggestions(el, StatusPresent); got != nil {
		t.Fatalf("present element must have no suggestions, got %v", got)
	}

	missing := Suggestions(el, StatusMissing)
	if len(missing) == 0 || len(missing) > 3 {
		t.Fatalf("missing suggestions count = %d", len(missing))
	}
	partial := Suggestions(el, StatusPartial)
	if len(partial) == 0 || len(partial) > 3 {
		t.Fatalf("partial suggestions count = %d", len(partial))
	}

	again := Suggestions(el, StatusMissing)
	if len(again) != len(missing) || again[0] != missing[0] {
		t.Fatal("suggestions are not deterministic")
	}
}
