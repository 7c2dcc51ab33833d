package dataprocessing

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"rbmfcli/pkg/contracts/domain"
)

// ValidationLog is the ordered discrepancy log of one collection run. The
// orchestrator owns it and passes it down explicitly.
type ValidationLog struct {
	mu      sync.Mutex
	entries []domain.DiscrepancyEntry
}

// NewValidationLog creates an empty log
func NewValidationLog() *ValidationLog {
	return &ValidationLog{}
}

// Append adds an entry at the end of the log
func (l *ValidationLog) Append(e domain.DiscrepancyEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Len returns the number of entries
func (l *ValidationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the entries in append order
func (l *ValidationLog) Entries() []domain.DiscrepancyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.DiscrepancyEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Render writes every entry as a five-line block followed by a blank line
func (l *ValidationLog) Render(w io.Writer) error {
	return RenderEntries(w, l.Entries())
}

// String renders the whole log
func (l *ValidationLog) String() string {
	var sb strings.Builder
	_ = l.Render(&sb)
	return sb.String()
}

// RenderEntries writes entries in the discrepancy log format
func RenderEntries(w io.Writer, entries []domain.DiscrepancyEntry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		details := make([]string, len(e.Values))
		for i, v := range e.Values {
			details[i] = fmt.Sprintf("Q%d=%s", v.Quarter, v.Value)
		}
		fmt.Fprintf(bw, "File: %s\n", e.File)
		issue := e.Column
		if issue == "" {
			issue = string(e.Field)
		}
		fmt.Fprintf(bw, "Issue: %s differs between quarters\n", issue)
		fmt.Fprintf(bw, "Details: %s for entity %s\n", strings.Join(details, ", "), e.EntityID)
		fmt.Fprintf(bw, "Action: Used Q%d value '%s' for %s\n", e.ChosenQuarter, e.Resolution, e.HalfYear)
		fmt.Fprintf(bw, "Row/Column: %s\n\n", e.Locator)
	}
	return bw.Flush()
}
