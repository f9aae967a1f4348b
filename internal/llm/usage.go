package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UsageLogFileName is the default JSONL token-usage file name.
const UsageLogFileName = "token_usage.log"

// UnassignedRunID groups usage records written outside any run.
const UnassignedRunID = "unassigned"

// UsageRecord is one line of the token-usage log. Token fields are nil when
// the provider reported no usage.
type UsageRecord struct {
	Model            string `json:"model"`
	PromptLen        int    `json:"prompt_len"`
	PromptTokens     *int   `json:"prompt_tokens"`
	CompletionTokens *int   `json:"completion_tokens"`
	TotalTokens      *int   `json:"total_tokens"`
	Flex             bool   `json:"flex,omitempty"`
	RunID            string `json:"run_id,omitempty"`
	Operation        string `json:"operation,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// UsageLog appends usage records to a JSONL file.
type UsageLog struct {
	path string
	mu   sync.Mutex
}

// NewUsageLog creates a usage log writing to path
func NewUsageLog(path string) *UsageLog {
	return &UsageLog{path: path}
}

// Path returns the log file path
func (l *UsageLog) Path() string {
	return l.path
}

type runIDKey struct{}

// WithRunID tags every call made with ctx with the given run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id set by WithRunID.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

// Record appends a record for a successful call.
func (l *UsageLog) Record(ctx context.Context, req Request, resp *Response) error {
	rec := UsageRecord{
		Model:     resp.Model,
		PromptLen: len([]rune(req.Prompt)),
		Flex:      req.SystemMessage != "",
		RunID:     RunIDFromContext(ctx),
		Operation: req.Operation,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if resp.Usage != nil {
		p, c, t := resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens = &p, &c, &t
	}
	return l.Append(rec)
}

// Append writes one record as a JSON line
func (l *UsageLog) Append(rec UsageRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create usage log directory: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open usage log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write usage record: %w", err)
	}
	return nil
}

// ReadUsage parses every non-blank line of a usage log.
func ReadUsage(path string) ([]UsageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []UsageRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec UsageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("invalid usage record at line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage log: %w", err)
	}
	return records, nil
}

// RunUsage is the token total of one run.
type RunUsage struct {
	RunID            string `json:"run_id"`
	FirstTimestamp   string `json:"timestamp,omitempty"`
	Calls            int    `json:"success_count"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	PerCallTokens    []int  `json:"per_call_tokens"`
}

// AveragePerCall returns total tokens divided by calls.
func (r RunUsage) AveragePerCall() float64 {
	if r.Calls == 0 {
		return 0
	}
	return float64(r.TotalTokens) / float64(r.Calls)
}

// AggregateUsage groups records by run id in order of first appearance.
// Records without a run id are collected into a trailing unassigned group.
func AggregateUsage(records []UsageRecord) []RunUsage {
	var runs []RunUsage
	index := make(map[string]int)
	var unassigned *RunUsage

	for _, rec := range records {
		var group *RunUsage
		if rec.RunID == "" {
			if unassigned == nil {
				unassigned = &RunUsage{RunID: UnassignedRunID, PerCallTokens: []int{}}
			}
			group = unassigned
		} else {
			i, ok := index[rec.RunID]
			if !ok {
				i = len(runs)
				index[rec.RunID] = i
				runs = append(runs, RunUsage{RunID: rec.RunID, FirstTimestamp: rec.Timestamp, PerCallTokens: []int{}})
			}
			group = &runs[i]
		}

		group.Calls++
		group.PromptTokens += deref(rec.PromptTokens)
		group.CompletionTokens += deref(rec.CompletionTokens)
		group.TotalTokens += deref(rec.TotalTokens)
		group.PerCallTokens = append(group.PerCallTokens, deref(rec.TotalTokens))
	}

	if unassigned != nil {
		runs = append(runs, *unassigned)
	}
	return runs
}

// WriteAggregate writes the grouped usage as indented JSON.
func WriteAggregate(path string, runs []RunUsage) error {
	if runs == nil {
		runs = []RunUsage{}
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write usage summary: %w", err)
	}
	return nil
}

// ErrNoUsage is returned when a usage log holds no records.
var ErrNoUsage = errors.New("no token usage records")

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
