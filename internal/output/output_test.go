package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status with icon", func(w *Writer) { w.Status("🔍", "scanning") }, "🔍 scanning\n"},
		{"status without icon", func(w *Writer) { w.Status("", "detail") }, "   detail\n"},
		{"statusf", func(w *Writer) { w.Statusf("📍", "%d cells", 4) }, "📍 4 cells\n"},
		{"success", func(w *Writer) { w.Successf("Indexed %d documents", 3) }, "✅ Indexed 3 documents\n"},
		{"warning", func(w *Writer) { w.Warningf("skipped row %d", 7) }, "⚠️  skipped row 7\n"},
		{"line", func(w *Writer) { w.Line("plain") }, "plain\n"},
		{"newline", func(w *Writer) { w.Newline() }, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a writer with a buffer
			buf := &bytes.Buffer{}

			// When: writing
			tt.write(New(buf))

			// Then: the exact line is produced
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Table_AlignsColumns(t *testing.T) {
	// Given: rows of varying width
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a table
	w.Table([]string{"LEVEL", "TOKEN"}, [][]string{{"1", "s"}, {"12", "s00000000000"}})

	// Then: the second column starts at the same offset on every line
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	col := strings.Index(lines[0], "TOKEN")
	for _, line := range lines[1:] {
		assert.Equal(t, byte('s'), line[col], "line %q", line)
	}
}

func TestWriter_Progress(t *testing.T) {
	t.Run("partial stays on one line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(buf).Progress(5, 10, "indexing")

		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "\r["))
		assert.Contains(t, out, "50% indexing")
		assert.NotContains(t, out, "\n")
	})

	t.Run("complete ends line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(buf).Progress(10, 10, "done")

		assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	})

	t.Run("zero total is ignored", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New(buf).Progress(0, 0, "nothing")

		assert.Empty(t, buf.String())
	})
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		wantFilled     int
	}{
		{"empty", 0, 10, 0},
		{"half", 5, 10, 5},
		{"full", 10, 10, 10},
		{"overflow clamps", 20, 10, 10},
		{"negative clamps", -3, 10, 0},
		{"zero total", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, 10)

			assert.Equal(t, tt.wantFilled, strings.Count(bar, "█"))
			assert.Equal(t, 10, strings.Count(bar, "█")+strings.Count(bar, "░"))
		})
	}
}
