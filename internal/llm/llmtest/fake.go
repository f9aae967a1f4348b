// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/recruiter-insight/internal/llm"
)

// Reply is one scripted outcome: Text is returned unless Err is set.
type Reply struct {
	Text string
	Err  error
}

// Client replays scripted replies in order and records every request.
// Once the script is exhausted the last reply repeats.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	calls   []llm.Request
	// Route, when set, picks the reply from the request instead of the script.
	Route func(req llm.Request) Reply
}

// New returns a client replying with the given texts in order.
func New(texts ...string) *Client {
	c := &Client{}
	for _, t := range texts {
		c.replies = append(c.replies, Reply{Text: t})
	}
	return c
}

// NewWithReplies returns a client replaying replies in order.
func NewWithReplies(replies ...Reply) *Client {
	return &Client{replies: replies}
}

// ByOperation routes replies by Request.Operation. Unknown operations fail.
func ByOperation(byOp map[string]Reply) *Client {
	return &Client{Route: func(req llm.Request) Reply {
		if r, ok := byOp[req.Operation]; ok {
			return r
		}
		return Reply{Err: fmt.Errorf("unexpected operation %q", req.Operation)}
	}}
}

// Call implements llm.Client
func (c *Client) Call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	idx := len(c.calls)
	c.calls = append(c.calls, req)
	route := c.Route
	var reply Reply
	switch {
	case route != nil:
	case len(c.replies) == 0:
		reply = Reply{Err: fmt.Errorf("no scripted reply")}
	case idx < len(c.replies):
		reply = c.replies[idx]
	default:
		reply = c.replies[len(c.replies)-1]
	}
	c.mu.Unlock()

	if route != nil {
		reply = route(req)
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &llm.Response{Text: reply.Text, Model: "fake"}, nil
}

// Close implements llm.Client
func (c *Client) Close() error { return nil }

// Calls returns a copy of the recorded requests.
func (c *Client) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns the number of recorded requests.
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// PromptContains reports whether any recorded prompt contains s.
func (c *Client) PromptContains(s string) bool {
	for _, req := range c.Calls() {
		if strings.Contains(req.Prompt, s) {
			return true
		}
	}
	return false
}
