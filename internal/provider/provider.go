package provider

import (
	"context"
)

// Request is a normalized single-turn completion request.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Usage holds token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a normalized completion response.
type Response struct {
	Text  string
	Usage Usage
}

// Provider is the interface for upstream text-generation providers.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
