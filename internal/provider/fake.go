package provider

import (
	"context"
	"sync"
)

// FakeProvider is an in-process provider for tests. Responses are drained
// from the queue in order; when the queue is empty, ResponseText is returned.
type FakeProvider struct {
	ResponseText string
	Error        error

	mu    sync.Mutex
	queue []string
	calls []*Request
}

func NewFake(response string) *FakeProvider {
	return &FakeProvider{ResponseText: response}
}

// Enqueue appends responses to be returned by subsequent Complete calls.
func (f *FakeProvider) Enqueue(responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, responses...)
}

// Calls returns a copy of the requests seen so far.
func (f *FakeProvider) Calls() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, req)
	text := f.ResponseText
	if len(f.queue) > 0 {
		text = f.queue[0]
		f.queue = f.queue[1:]
	}
	err := f.Error
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:     2,
			CompletionTokens: 3,
			TotalTokens:      5,
		},
	}, nil
}
