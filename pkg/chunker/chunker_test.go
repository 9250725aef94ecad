package chunker

import (
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Rithanya654/Generic-RAG/pkg/document"
)

func newTestChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(NewParams{
		Encoder:      "cl100k_base",
		ChunkSize:    size,
		Overlap:      overlap,
		MaxChunkSize: 800,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapses newline runs",
			input: "a\n\n\n\nb",
			want:  "a\n\nb",
		},
		{
			name:  "collapses horizontal whitespace",
			input: "a  \t b",
			want:  "a b",
		},
		{
			name:  "strips trailing whitespace per line",
			input: "a  \nb\t\n",
			want:  "a\nb",
		},
		{
			name:  "whitespace only",
			input: "   \n\n",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewRejectsBadLimits(t *testing.T) {
	if _, err := New(NewParams{Encoder: "cl100k_base", ChunkSize: 100, Overlap: 100, MaxChunkSize: 800}); err == nil {
		t.Fatal("expected error for overlap == chunk size")
	}
	if _, err := New(NewParams{Encoder: "cl100k_base", ChunkSize: 900, Overlap: 100, MaxChunkSize: 800}); err == nil {
		t.Fatal("expected error for chunk size above ceiling")
	}
}

// Splitting with chunk_size=600, overlap=100 must reconstruct the original
// text when the overlapping prefix of each subsequent chunk is dropped.
func TestChunkCoverage(t *testing.T) {
	c := newTestChunker(t, 600, 100)

	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("The group recognised revenue from contracts with customers during the reporting period. ")
	}
	text := strings.TrimSpace(b.String())

	chunks, err := c.SplitTokens(text)
	if err != nil {
		t.Fatalf("SplitTokens: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		t.Fatalf("GetEncoding: %v", err)
	}

	reconstructed := chunks[0]
	for _, chunk := range chunks[1:] {
		overlapTokens := enc.Encode(chunk, nil, nil)
		if len(overlapTokens) > 100 {
			overlapTokens = overlapTokens[:100]
		}
		prefix := enc.Decode(overlapTokens)
		if !strings.HasPrefix(chunk, prefix) {
			t.Fatalf("overlap prefix %q is not a prefix of chunk", prefix)
		}
		reconstructed += chunk[len(prefix):]
	}

	if reconstructed != text {
		t.Fatalf("reconstructed text differs from input: got %d bytes, want %d", len(reconstructed), len(text))
	}
}

func TestSplitTokensForwardProgress(t *testing.T) {
	c := newTestChunker(t, 600, 100)

	chunks, err := c.SplitTokens("short text")
	if err != nil {
		t.Fatalf("SplitTokens: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("short text should remain a single verbatim chunk, got %v", chunks)
	}
}

func TestBuildChunksEmptySection(t *testing.T) {
	c := newTestChunker(t, 600, 100)

	sections := []document.Section{
		{SectionID: "section_1", Title: "Overview", Level: 1, PageStart: 1, PageEnd: 2, Text: "   \n\n"},
	}

	chunks, err := c.BuildChunks("doc-1", sections)
	if err != nil {
		t.Fatalf("BuildChunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}

	chunk := chunks[0]
	if !chunk.IsEmpty {
		t.Error("expected IsEmpty to be set")
	}
	if chunk.Text != "" {
		t.Errorf("expected empty text, got %q", chunk.Text)
	}
	if chunk.ChunkID != "doc-1:section_1:1" {
		t.Errorf("unexpected chunk id %q", chunk.ChunkID)
	}
}

func TestBuildChunksNeverCrossSections(t *testing.T) {
	c := newTestChunker(t, 600, 100)

	sections := []document.Section{
		{SectionID: "section_1", Title: "A", Level: 1, PageStart: 1, PageEnd: 1, Text: "First section body."},
		{SectionID: "section_2", Title: "B", Level: 1, PageStart: 2, PageEnd: 2, Text: "Second section body."},
	}

	chunks, err := c.BuildChunks("doc-1", sections)
	if err != nil {
		t.Fatalf("BuildChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].SectionID != "section_1" || chunks[1].SectionID != "section_2" {
		t.Fatalf("chunks crossed section boundaries: %+v", chunks)
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Fatalf("unexpected global chunk indexes: %+v", chunks)
	}
	if strings.Contains(chunks[0].Text, "Second") {
		t.Fatal("first chunk leaked text from the second section")
	}
}

func TestBuildChunksWithoutSections(t *testing.T) {
	c := newTestChunker(t, 600, 100)

	chunks, err := c.BuildChunksWithoutSections("doc-1", "Body without structure.")
	if err != nil {
		t.Fatalf("BuildChunksWithoutSections: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0].SectionID != "section_0" || chunks[0].ChunkID != "doc-1:section_0:1" {
		t.Fatalf("unexpected fallback identity: %+v", chunks[0])
	}
}
