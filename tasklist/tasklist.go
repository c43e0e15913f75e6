// Package tasklist implements the durable checklist that backs coordinated
// execution: an ordered sequence of tasks parsed from, and re-serialized to,
// a line-oriented markdown checklist document.
package tasklist

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	lineRe = regexp.MustCompile(`^- \[([ xX])\] (.*)$`)
	seqRe  = regexp.MustCompile(`^Task (\d+):`)
)

// Task is one unit of delegated work. Seq determines execution order;
// Completed flips false to true exactly once and never reverts. The verbatim
// source line is retained as the persistence key for line-level fallbacks.
type Task struct {
	Seq         int
	Description string
	Completed   bool

	lineIndex int
	origLine  string
}

// Line returns the checklist line representing the task's current state.
func (t *Task) Line() string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	return fmt.Sprintf("- [%s] %s", mark, t.Description)
}

// OriginalLine returns the verbatim line the task was parsed from.
func (t *Task) OriginalLine() string { return t.origLine }

// CleanDescription returns the description with any leading "Task N:" prefix
// removed, for embedding into prompts and summaries.
func (t *Task) CleanDescription() string {
	if m := seqRe.FindString(t.Description); m != "" {
		return strings.TrimSpace(t.Description[len(m):])
	}
	return t.Description
}

// Document is a parsed checklist plus every surrounding line of the source
// text, so that re-serializing an untouched document reproduces it exactly.
type Document struct {
	lines []string
	tasks []*Task
}

// Parse builds a Document from checklist text. Lines that do not match the
// checklist shape are preserved verbatim but carry no task. Sequence numbers
// come from a leading "Task N:" prefix in the description when present,
// otherwise from the task's position in the document (1-based).
func Parse(text string) *Document {
	doc := &Document{lines: strings.Split(text, "\n")}
	pos := 0
	for i, line := range doc.lines {
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pos++
		t := &Task{
			Seq:         pos,
			Description: m[2],
			Completed:   m[1] != " ",
			lineIndex:   i,
			origLine:    line,
		}
		if sm := seqRe.FindStringSubmatch(m[2]); sm != nil {
			if n, err := strconv.Atoi(sm[1]); err == nil && n > 0 {
				t.Seq = n
			}
		}
		doc.tasks = append(doc.tasks, t)
	}
	return doc
}

// Serialize renders the document. For an untouched document the output is
// byte-identical to the parsed input; completed tasks have their checklist
// mark rewritten in place and every other line is untouched.
func (d *Document) Serialize() string {
	lines := make([]string, len(d.lines))
	copy(lines, d.lines)
	for _, t := range d.tasks {
		if t.Completed && lineRe.FindStringSubmatch(d.lines[t.lineIndex])[1] == " " {
			lines[t.lineIndex] = t.Line()
		}
	}
	return strings.Join(lines, "\n")
}

// Tasks returns the parsed tasks in document order.
func (d *Document) Tasks() []*Task {
	out := make([]*Task, len(d.tasks))
	copy(out, d.tasks)
	return out
}

// Len returns the number of tasks.
func (d *Document) Len() int { return len(d.tasks) }

// Next returns the lowest-numbered incomplete task, or false when every task
// is complete.
func (d *Document) Next() (*Task, bool) {
	var next *Task
	for _, t := range d.tasks {
		if t.Completed {
			continue
		}
		if next == nil || t.Seq < next.Seq {
			next = t
		}
	}
	return next, next != nil
}

// Remaining returns how many tasks are still incomplete.
func (d *Document) Remaining() int {
	n := 0
	for _, t := range d.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Reconcile copies completed flags from a previously persisted document onto
// this one, matching tasks by sequence number. Flags only ever flip toward
// completion; a task marked complete on disk stays complete in memory.
func (d *Document) Reconcile(prev *Document) {
	if prev == nil {
		return
	}
	done := map[int]bool{}
	for _, t := range prev.tasks {
		if t.Completed {
			done[t.Seq] = true
		}
	}
	for _, t := range d.tasks {
		if done[t.Seq] {
			t.Completed = true
		}
	}
}

// SortedTasks returns the tasks ordered by sequence number.
func (d *Document) SortedTasks() []*Task {
	out := d.Tasks()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// FilterChecklist strips a model response down to valid checklist lines,
// discarding headers, prose and code fences the model may have added. The
// result always ends with a single trailing newline when non-empty.
func FilterChecklist(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if lineRe.MatchString(trimmed) {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// BuildChecklist renders task descriptions as a fresh checklist document with
// "Task N:" numbering.
func BuildChecklist(descriptions []string) string {
	var b strings.Builder
	for i, desc := range descriptions {
		fmt.Fprintf(&b, "- [ ] Task %d: %s\n", i+1, desc)
	}
	return b.String()
}
