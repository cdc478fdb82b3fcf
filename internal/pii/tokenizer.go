package pii

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// wordPieceTokenizer is a minimal BERT-compatible tokenizer that tracks
// byte offsets, so model predictions can be mapped back onto the note.
type wordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return &wordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

type tokenOffset struct {
	Start int
	End   int
}

type wordSpan struct {
	Text  string
	Start int
	End   int
}

// encodeWithOffsets converts text into token IDs, an attention mask, and a
// byte offset per token, all of length seqLen. Special and padding tokens
// carry the offset {-1, -1}.
func (t *wordPieceTokenizer) encodeWithOffsets(text string, seqLen int) ([]int64, []int64, []tokenOffset) {
	if seqLen <= 0 {
		return nil, nil, nil
	}

	words := splitWordsWithOffsets(text)
	tokens := []int64{t.clsID}
	offsets := []tokenOffset{{Start: -1, End: -1}}

	for _, w := range words {
		token := w.Text
		if t.lowerCase {
			token = strings.ToLower(token)
		}
		for _, p := range t.wordPiece(token) {
			tokens = append(tokens, p.id)
			offsets = append(offsets, tokenOffset{
				Start: w.Start + p.start,
				End:   w.Start + p.end,
			})
			if len(tokens) >= seqLen-1 {
				break
			}
		}
		if len(tokens) >= seqLen-1 {
			break
		}
	}

	tokens = append(tokens, t.sepID)
	offsets = append(offsets, tokenOffset{Start: -1, End: -1})

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens) && i < seqLen; i++ {
		attn[i] = 1
	}

	for len(tokens) < seqLen {
		tokens = append(tokens, t.padID)
		offsets = append(offsets, tokenOffset{Start: -1, End: -1})
	}

	return tokens, attn, offsets
}

type piece struct {
	id    int64
	start int
	end   int
}

func (t *wordPieceTokenizer) wordPiece(token string) []piece {
	if id, ok := t.vocab[token]; ok {
		return []piece{{id: id, start: 0, end: len(token)}}
	}

	var pieces []piece
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, piece{id: id, start: start, end: end})
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []piece{{id: t.unkID, start: 0, end: len(token)}}
		}
	}
	if len(pieces) == 0 {
		return []piece{{id: t.unkID, start: 0, end: len(token)}}
	}
	return pieces
}

func splitWordsWithOffsets(text string) []wordSpan {
	if text == "" {
		return nil
	}
	var spans []wordSpan
	start := -1
	for idx, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, wordSpan{Text: text[start:idx], Start: start, End: idx})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = idx
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{Text: text[start:], Start: start, End: len(text)})
	}
	return spans
}
