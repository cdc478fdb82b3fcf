package pii

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinPatternsDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		kind string
	}{
		{"email", "Contact jane.doe@example.co.uk for details.", "email"},
		{"phone", "Called the client on +44 20 7946 0958 to confirm.", "phone"},
		{"ni number", "NI number AB 12 34 56 C held on file.", "ni_number"},
		{"iban", "Transfer to GB29NWBK60161331926819 agreed.", "iban"},
		{"sort code", "Nominated account 12-34-56.", "sort_code"},
		{"account number", "Account 31926819 verified.", "account_number"},
		{"postcode", "Meeting held at the client's home, SW1A 1AA.", "postcode"},
	}

	set := BuiltinPatterns()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spans := set.Detect(tc.text)
			if len(spans) == 0 {
				t.Fatalf("no spans detected in %q", tc.text)
			}
			found := false
			for _, s := range spans {
				if s.Kind == tc.kind {
					found = true
				}
			}
			if !found {
				t.Fatalf("kind %q not detected, got %+v", tc.kind, spans)
			}
		})
	}
}

func TestMaskerMasksAndPreservesLength(t *testing.T) {
	m := NewMasker(nil, nil)
	in := "Email jane.doe@example.co.uk, sort code 12-34-56."
	out, masked, err := m.Mask(in)
	if err != nil {
		t.Fatalf("mask: %v", err)
	}
	if !masked {
		t.Fatal("expected masked=true")
	}
	if len(out) != len(in) {
		t.Fatalf("masking changed length: %d != %d", len(out), len(in))
	}
	if strings.Contains(out, "jane.doe") || strings.Contains(out, "12-34-56") {
		t.Fatalf("pii survived masking: %q", out)
	}
	if !strings.Contains(out, "Email ") || !strings.Contains(out, "sort code ") {
		t.Fatalf("non-pii text damaged: %q", out)
	}
}

func TestMaskerCleanTextUntouched(t *testing.T) {
	m := NewMasker(nil, nil)
	in := "Discussed attitude to risk and capacity for loss."
	out, masked, err := m.Mask(in)
	if err != nil {
		t.Fatalf("mask: %v", err)
	}
	if masked || out != in {
		t.Fatalf("clean text altered: masked=%v out=%q", masked, out)
	}
}

type failingDetector struct{}

func (failingDetector) Detect(string) ([]Span, error) {
	return nil, errors.New("session gone")
}

func TestMaskerFailsClosedOnModelError(t *testing.T) {
	m := &Masker{patterns: BuiltinPatterns(), model: failingDetector{}}
	out, masked, err := m.Mask("note with jane.doe@example.co.uk inside")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Op != "model" {
		t.Fatalf("expected model *pii.Error, got %v", err)
	}
	if out != "" || masked {
		t.Fatalf("text leaked on failure: out=%q masked=%v", out, masked)
	}
}

func TestMergeSpans(t *testing.T) {
	got := mergeSpans([]Span{
		{Start: 10, End: 20, Kind: "email"},
		{Start: 0, End: 5, Kind: "phone"},
		{Start: 15, End: 25, Kind: "iban"},
		{Start: 25, End: 30, Kind: "postcode"},
	})
	want := []Span{
		{Start: 0, End: 5, Kind: "phone"},
		{Start: 10, End: 30, Kind: "email"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged spans mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `
id: custom
version: 0.2.0
patterns:
  - name: case_ref
    regex: 'CASE-\d{6}'
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadPatterns(path)
	if err != nil {
		t.Fatalf("load patterns: %v", err)
	}
	if set.Version() != "custom/0.2.0" {
		t.Fatalf("version = %q", set.Version())
	}
	spans := set.Detect("see CASE-123456 for history")
	if len(spans) != 1 || spans[0].Kind != "case_ref" {
		t.Fatalf("spans = %+v", spans)
	}
}

func TestLoadPatternsRejectsBrokenBundle(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
		wantSub string
	}{
		{"invalid regex", "patterns:\n  - name: bad\n    regex: '['\n", "compile pattern"},
		{"empty", "patterns: []\n", "no patterns"},
		{"missing name", "patterns:\n  - regex: 'x'\n", "missing name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadPatterns(path)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *Error
			if !errors.As(err, &pe) || pe.Op != "patterns" {
				t.Fatalf("expected patterns *pii.Error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q missing %q", err, tc.wantSub)
			}
		})
	}
}

func TestTokenizerOffsets(t *testing.T) {
	dir := t.TempDir()
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nthe\nclient\n##s\nmet\n"
	path := filepath.Join(dir, "vocab.txt")
	if err := os.WriteFile(path, []byte(vocab), 0o644); err != nil {
		t.Fatal(err)
	}
	tok, err := loadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}

	text := "the clients met"
	ids, attn, offsets := tok.encodeWithOffsets(text, 8)
	if len(ids) != 8 || len(attn) != 8 || len(offsets) != 8 {
		t.Fatalf("lengths = %d/%d/%d", len(ids), len(attn), len(offsets))
	}

	// [CLS] the client ##s met [SEP] [PAD] [PAD]
	wantIDs := []int64{2, 4, 5, 6, 7, 3, 0, 0}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if text[offsets[1].Start:offsets[1].End] != "the" {
		t.Fatalf("offset 1 = %+v", offsets[1])
	}
	if text[offsets[2].Start:offsets[2].End] != "client" {
		t.Fatalf("offset 2 = %+v", offsets[2])
	}
	if text[offsets[3].Start:offsets[3].End] != "s" {
		t.Fatalf("offset 3 = %+v", offsets[3])
	}
	if offsets[0].Start != -1 || offsets[5].Start != -1 || offsets[7].Start != -1 {
		t.Fatalf("special/padding offsets not sentinel: %+v", offsets)
	}
	if attn[5] != 1 || attn[6] != 0 {
		t.Fatalf("attention mask wrong: %v", attn)
	}
}

func TestDecodeBIO(t *testing.T) {
	labels := []string{"O", "B-PER", "I-PER"}
	// five tokens: [CLS] john smith rang [SEP]
	attn := []int64{1, 1, 1, 1, 1}
	offsets := []tokenOffset{{-1, -1}, {0, 4}, {5, 10}, {11, 15}, {-1, -1}}
	logits := []float32{
		9, 0, 0, // [CLS], skipped via offset sentinel
		0, 9, 0, // B-PER
		0, 0, 9, // I-PER
		9, 0, 0, // O
		9, 0, 0,
	}

	got := decodeBIO(logits, labels, attn, offsets)
	want := []Span{{Start: 0, End: 10, Kind: "per"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyBundle(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ner.onnx"), []byte("model-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	// sha256("model-bytes")
	manifest := `{"version":"1.0.0","files":[{"path":"ner.onnx","sha256":"357e5d6fafa34d27360fec24b4326d3534905e33c6acdee60198fb078b7b79e5","size":11}]}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := VerifyBundle(dir); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// tamper
	if err := os.WriteFile(filepath.Join(dir, "ner.onnx"), []byte("evil-bytess"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := VerifyBundle(dir)
	if err == nil || !strings.Contains(err.Error(), "sha256 mismatch") {
		t.Fatalf("expected sha256 mismatch, got %v", err)
	}
}

func TestResolveBundlePathRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	if _, err := resolveBundlePath(dir, filepath.Join("..", "outside")); err == nil {
		t.Fatal("expected escape rejection")
	}
}
