package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Generator for tests and offline runs. Respond picks the
// answer for each request; the requests seen are kept in order.
type Fake struct {
	Respond func(Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

func (f *Fake) Complete(ctx context.Context, r Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Respond == nil {
		return "", ErrEmptyCompletion
	}
	return f.Respond(r)
}

// Requests returns a copy of the requests received so far.
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
