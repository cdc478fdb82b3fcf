package telemetry

import (
	"testing"
)

func TestSafeAttributesFiltersSensitiveKeys(t *testing.T) {
	kvs := map[string]interface{}{
		"note_text":     "should drop",
		"evidence":      "drop",
		"api_key":       "sk-123",
		"token":         "abc",
		"client_email":  "jane@example.com",
		"long_string":   string(make([]byte, 600)),
		"framework_id":  "fca_suitability_v1",
		"rating":        "Compliant",
		"element_count": 9,
		"passed":        true,
		"authorization": "secret",
	}

	attrs := SafeAttributes(kvs)
	kept := map[string]bool{}
	for _, a := range attrs {
		key := string(a.Key)
		kept[key] = true
		switch key {
		case "note_text", "evidence", "api_key", "token", "client_email", "authorization":
			t.Fatalf("unexpected unsafe attribute %s", key)
		case "long_string":
			t.Fatal("expected long string to be skipped")
		}
	}
	for _, want := range []string{"framework_id", "rating", "element_count", "passed"} {
		if !kept[want] {
			t.Fatalf("safe attribute %s dropped", want)
		}
	}
}

func TestSafeAttributesEmpty(t *testing.T) {
	if got := SafeAttributes(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
