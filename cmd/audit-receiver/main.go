package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", ":8099", "listen address for audit receiver")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/audit", handleAudit)
	mux.HandleFunc("/", handleAudit)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("audit receiver listening on %s (POST JSON to /audit)...", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("receiver error: %v", err)
	}
}

func handleAudit(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	// echo a compact summary when the payload parses, raw bytes otherwise
	var ev struct {
		Version      string  `json:"version"`
		EvaluationID string  `json:"evaluation_id"`
		Framework    string  `json:"framework"`
		Rating       string  `json:"rating"`
		Passed       bool    `json:"passed"`
		Score        float64 `json:"score"`
		Workspace    string  `json:"workspace"`
	}
	if err := json.Unmarshal(body, &ev); err == nil && ev.EvaluationID != "" {
		log.Printf("audit event: id=%s framework=%s rating=%q passed=%v score=%.2f workspace=%s",
			ev.EvaluationID, ev.Framework, ev.Rating, ev.Passed, ev.Score, ev.Workspace)
	} else {
		log.Printf("received audit payload: path=%s content-type=%s len=%d\n%s", r.URL.Path, r.Header.Get("Content-Type"), len(body), string(body))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}
