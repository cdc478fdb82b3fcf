// Package mockjudge runs a lightweight OpenAI-compatible server that answers
// judgment prompts with well-formed STATUS/SCORE/EVIDENCE responses. It exists
// so the evaluation pipeline can be exercised end to end without a real LLM.
package mockjudge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort    = 18080
	defaultDelayMS = 50
)

// StartMockJudge launches the mock server. If addr is empty, it listens on
// 127.0.0.1:MOCK_JUDGE_PORT (default 18080). It returns a shutdown function
// and the base URL (e.g., http://127.0.0.1:18080).
func StartMockJudge(addr string) (func(context.Context) error, string, error) {
	if strings.TrimSpace(addr) == "" {
		port := strings.TrimSpace(os.Getenv("MOCK_JUDGE_PORT"))
		if port == "" {
			port = fmt.Sprintf("%d", defaultPort)
		}
		addr = "127.0.0.1:" + port
	}

	delay := defaultDelayMS
	if val := strings.TrimSpace(os.Getenv("MOCK_DELAY_MS")); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			delay = parsed
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("mock judge request method=%s path=%s", r.Method, r.URL.Path)

		p := r.URL.Path
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}

		if r.Method == http.MethodPost && (p == "/v1/chat/completions" || p == "/chat/completions") {
			writeChatCompletion(w, r, delay)
			return
		}

		if r.Method == http.MethodGet && (p == "/v1/models" || p == "/models") {
			writeModels(w)
			return
		}

		writeNotFoundJSON(w)
	})

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("mock judge server error: %v", err)
		}
	}()

	shutdown := func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}

	baseURL := "http://" + ln.Addr().String()
	log.Printf("mock judge listening on %s (delay_ms=%d)", baseURL, delay)
	return shutdown, baseURL, nil
}

type chatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// judgmentFor picks an answer from the prompt text. The magic markers let
// test fixtures script specific outcomes per note without any wiring here.
func judgmentFor(prompt string) string {
	if strings.Contains(prompt, "factual summary") {
		return "The note covers the assessed elements with clear evidence. No material gaps were identified in this mock evaluation."
	}
	switch {
	case strings.Contains(prompt, "[mock:missing]"):
		return "STATUS: missing\nSCORE: 0.0\nEVIDENCE: none found\nNOTES: the note does not address this requirement"
	case strings.Contains(prompt, "[mock:partial]"):
		return "STATUS: partial\nSCORE: 0.5\nEVIDENCE: briefly mentioned without detail\nNOTES: expand on this point"
	default:
		return "STATUS: present\nSCORE: 0.9\nEVIDENCE: clearly documented in the note\nNOTES: none"
	}
}

func writeChatCompletion(w http.ResponseWriter, r *http.Request, delayMS int) {
	if delayMS > 0 {
		time.Sleep(time.Duration(delayMS) * time.Millisecond)
	}

	var content string
	if body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)); err == nil {
		var req chatRequest
		if json.Unmarshal(body, &req) == nil {
			var prompt strings.Builder
			for _, m := range req.Messages {
				prompt.WriteString(m.Content)
				prompt.WriteString("\n")
			}
			content = judgmentFor(prompt.String())
		}
	}
	if content == "" {
		content = judgmentFor("")
	}

	resp := map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "mock-judge",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]string{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     5,
			"completion_tokens": 5,
			"total_tokens":      10,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeModels(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data": []map[string]any{
			{
				"id":       "mock-judge",
				"object":   "model",
				"owned_by": "mock",
			},
		},
	})
}

func writeNotFoundJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": "Not found",
			"type":    "invalid_request_error",
		},
	})
}
