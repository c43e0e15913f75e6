package tasklist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stride-agent/stride/logging"
)

// StoreOptions tune the durable write behavior of a Store.
type StoreOptions struct {
	// PersistRetries bounds the rewrite-and-verify attempts made by
	// MarkComplete before falling back to line substitution.
	PersistRetries int

	// PersistRetryDelay is the pause between rewrite attempts.
	PersistRetryDelay time.Duration

	Logger logging.Logger
}

// Store persists a checklist document to a single file. It is the sole
// writer of that file; reads by external observers are tolerated through the
// write-then-verify discipline in MarkComplete.
type Store struct {
	path string
	opts StoreOptions
}

// NewStore constructs a Store for the checklist file at path.
func NewStore(path string, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		PersistRetries:    3,
		PersistRetryDelay: time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoop(opts.Logger)
	return &Store{path: path, opts: opts}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Exists reports whether a checklist file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and parses the checklist file.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("tasklist: read %s: %w", s.path, err)
	}
	return Parse(string(data)), nil
}

// Write serializes the document to the checklist file, creating parent
// directories as needed.
func (s *Store) Write(doc *Document) error {
	return s.writeText(doc.Serialize())
}

// WriteText persists raw checklist text.
func (s *Store) WriteText(text string) error {
	return s.writeText(text)
}

func (s *Store) writeText(text string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tasklist: create dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("tasklist: write %s: %w", s.path, err)
	}
	return nil
}

// MarkComplete flips the task's completed flag and persists the document,
// verifying after each write that the completed checklist line is textually
// present on disk. The in-memory flag is authoritative: the document text is
// re-derived from it on every attempt. If the structured rewrite does not
// converge within the configured retries, a direct line-level substitution
// of the original line is applied as a last resort. A persistent mismatch is
// logged as an anomaly but does not fail the caller.
func (s *Store) MarkComplete(doc *Document, task *Task) error {
	task.Completed = true
	want := task.Line()

	for attempt := 1; attempt <= s.opts.PersistRetries; attempt++ {
		if err := s.Write(doc); err != nil {
			s.opts.Logger.Warn("checklist write failed", "attempt", attempt, "error", err)
		} else if s.verify(want) {
			return nil
		}
		if attempt < s.opts.PersistRetries {
			time.Sleep(s.opts.PersistRetryDelay)
		}
	}

	// Structured rewrite did not converge; substitute the original line
	// directly in whatever text is on disk.
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("tasklist: mark task %d complete: %w", task.Seq, err)
	}
	text := string(data)
	if strings.Contains(text, want) {
		return nil
	}
	if task.origLine != "" && strings.Contains(text, task.origLine) {
		if err := s.writeText(strings.Replace(text, task.origLine, want, 1)); err != nil {
			return err
		}
		if s.verify(want) {
			return nil
		}
	}
	s.opts.Logger.Error("checklist completion mark did not converge", "task", task.Seq, "path", s.path)
	return nil
}

// verify reports whether the given line is present in the file on disk.
func (s *Store) verify(line string) bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), line)
}

// AppendSummary appends an execution summary section to the checklist file.
func (s *Store) AppendSummary(summary string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("tasklist: open %s: %w", s.path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(summary); err != nil {
		return fmt.Errorf("tasklist: append summary: %w", err)
	}
	return nil
}
