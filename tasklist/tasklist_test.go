package tasklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoundTripIsNoOp(t *testing.T) {
	text := "# Task Breakdown\n\n## Tasks\n- [ ] Task 1: write file A\n- [x] Task 2: write file B\n\nTrailing prose.\n"
	doc := Parse(text)
	assert.Equal(t, text, doc.Serialize())
}

func TestParseRoundTripWithoutTrailingNewline(t *testing.T) {
	text := "- [ ] Task 1: a\n- [ ] Task 2: b"
	doc := Parse(text)
	assert.Equal(t, text, doc.Serialize())
}

func TestParseExtractsTasks(t *testing.T) {
	doc := Parse("- [ ] Task 1: write file A\n- [x] Task 2: write file B\n- [ ] cleanup\n")

	tasks := doc.Tasks()
	assert.Len(t, tasks, 3)

	assert.Equal(t, 1, tasks[0].Seq)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, "Task 1: write file A", tasks[0].Description)
	assert.Equal(t, "write file A", tasks[0].CleanDescription())

	assert.Equal(t, 2, tasks[1].Seq)
	assert.True(t, tasks[1].Completed)

	// No "Task N:" prefix: numbered by position.
	assert.Equal(t, 3, tasks[2].Seq)
	assert.Equal(t, "cleanup", tasks[2].Description)
	assert.Equal(t, "cleanup", tasks[2].CleanDescription())
}

func TestNextReturnsLowestIncomplete(t *testing.T) {
	doc := Parse("- [x] Task 1: a\n- [ ] Task 3: c\n- [ ] Task 2: b\n")

	next, ok := doc.Next()
	assert.True(t, ok)
	assert.Equal(t, 2, next.Seq)

	next.Completed = true
	next, ok = doc.Next()
	assert.True(t, ok)
	assert.Equal(t, 3, next.Seq)

	next.Completed = true
	_, ok = doc.Next()
	assert.False(t, ok)
}

func TestSerializeMarksCompletedTasks(t *testing.T) {
	doc := Parse("- [ ] Task 1: a\n- [ ] Task 2: b\n")
	tasks := doc.Tasks()
	tasks[0].Completed = true

	assert.Equal(t, "- [x] Task 1: a\n- [ ] Task 2: b\n", doc.Serialize())
}

func TestReconcilePreservesCompletionAcrossReload(t *testing.T) {
	prev := Parse("- [x] Task 1: a\n- [ ] Task 2: b\n")
	doc := Parse("- [ ] Task 1: a\n- [ ] Task 2: b\n")

	doc.Reconcile(prev)

	tasks := doc.Tasks()
	assert.True(t, tasks[0].Completed)
	assert.False(t, tasks[1].Completed)
}

func TestRemaining(t *testing.T) {
	doc := Parse("- [x] Task 1: a\n- [ ] Task 2: b\n- [ ] Task 3: c\n")
	assert.Equal(t, 2, doc.Remaining())
	assert.Equal(t, 3, doc.Len())
}

func TestFilterChecklistDiscardsProse(t *testing.T) {
	response := "# Task Breakdown\n\nHere is the plan:\n\n- [ ] Task 1: create main.go\n- [ ] Task 2: add config\nSome closing remark.\n```\n- [ ] Task 3: inside fence\n```\n"
	filtered := FilterChecklist(response)
	assert.Equal(t, "- [ ] Task 1: create main.go\n- [ ] Task 2: add config\n- [ ] Task 3: inside fence\n", filtered)
}

func TestFilterChecklistEmptyWhenNoTasks(t *testing.T) {
	assert.Equal(t, "", FilterChecklist("no tasks here\njust prose"))
}

func TestBuildChecklist(t *testing.T) {
	out := BuildChecklist([]string{"create main.go", "add config"})
	assert.Equal(t, "- [ ] Task 1: create main.go\n- [ ] Task 2: add config\n", out)
}

func TestSortedTasks(t *testing.T) {
	doc := Parse("- [ ] Task 3: c\n- [ ] Task 1: a\n- [ ] Task 2: b\n")
	sorted := doc.SortedTasks()
	assert.Equal(t, []int{1, 2, 3}, []int{sorted[0].Seq, sorted[1].Seq, sorted[2].Seq})
}
