package pii

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const defaultSeqLen = 256

// NERModel wraps a token-classification ONNX session that detects names and
// other free-form identifiers the regex detectors cannot. Labels follow BIO
// tagging ("O", "B-PER", "I-PER", ...).
type NERModel struct {
	session   *ort.AdvancedSession
	tokenizer *wordPieceTokenizer
	labels    []string
	seqLen    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	logits        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadNERModel verifies and loads a model bundle. The bundle directory must
// contain ner.onnx, label_map.json, tokenizer/vocab.txt, and a manifest.
func LoadNERModel(bundleDir string, seqLen int) (*NERModel, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if seqLen <= 0 {
		seqLen = defaultSeqLen
	}

	if err := VerifyBundle(bundleDir); err != nil {
		return nil, &Error{Op: "bundle", Err: err}
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "ner.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	labels, err := loadLabelMap(filepath.Join(bundleDir, "label_map.json"))
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	tokenizer, err := loadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(len(labels))))
	if err != nil {
		return nil, fmt.Errorf("allocate logits tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{logits},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &NERModel{
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		logits:        logits,
	}, nil
}

// Detect runs token classification and returns entity spans in byte offsets
// of the original text. The session is single-threaded behind a mutex; the
// pre-allocated tensors are reused across calls.
func (m *NERModel) Detect(text string) ([]Span, error) {
	if m == nil || m.session == nil || m.tokenizer == nil {
		return nil, errors.New("ner model not initialized")
	}
	if text == "" {
		return nil, nil
	}

	ids, attn, offsets := m.tokenizer.encodeWithOffsets(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), ids)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return decodeBIO(m.logits.GetData(), m.labels, attn, offsets), nil
}

// decodeBIO picks the argmax label per token and folds consecutive B-/I-
// tokens of the same entity type into one span.
func decodeBIO(logits []float32, labels []string, attn []int64, offsets []tokenOffset) []Span {
	numLabels := len(labels)
	if numLabels == 0 {
		return nil
	}

	var spans []Span
	var cur *Span
	flush := func() {
		if cur != nil {
			spans = append(spans, *cur)
			cur = nil
		}
	}

	for i := range attn {
		if attn[i] == 0 || offsets[i].Start < 0 {
			flush()
			continue
		}
		base := i * numLabels
		if base+numLabels > len(logits) {
			break
		}
		best := 0
		for j := 1; j < numLabels; j++ {
			if logits[base+j] > logits[base+best] {
				best = j
			}
		}
		label := labels[best]
		switch {
		case strings.HasPrefix(label, "B-"):
			flush()
			cur = &Span{Start: offsets[i].Start, End: offsets[i].End, Kind: strings.ToLower(label[2:])}
		case strings.HasPrefix(label, "I-") && cur != nil && cur.Kind == strings.ToLower(label[2:]):
			cur.End = offsets[i].End
		case strings.HasPrefix(label, "I-"):
			// dangling continuation; treat as a new entity
			flush()
			cur = &Span{Start: offsets[i].Start, End: offsets[i].End, Kind: strings.ToLower(label[2:])}
		default:
			flush()
		}
	}
	flush()
	return spans
}

func loadLabelMap(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make([]string, len(m))
	for k, v := range m {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, convErr)
		}
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// resolveSharedLibraryPath locates a platform-specific onnxruntime shared
// library. ONNXRUNTIME_SHARED_LIBRARY_PATH wins when set.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
