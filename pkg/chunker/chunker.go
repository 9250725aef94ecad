// Package chunker splits section text into token-bounded chunks that never
// cross section boundaries. Chunks are transient: they feed the extraction
// stages and are not persisted.
package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Rithanya654/Generic-RAG/pkg/document"
)

// ErrChunkTooLarge signals a configuration error: a produced chunk exceeded
// the hard safety ceiling. Chunks are never silently truncated.
var ErrChunkTooLarge = errors.New("chunk exceeds max chunk size safety limit")

// Chunk is one token-bounded piece of a single section's text.
// ChunkID is docID:sectionID:ordinal (ordinal starts at 1 within a section).
// A section with empty or whitespace-only text yields exactly one chunk
// with IsEmpty set, preserving section coverage for downstream stages.
type Chunk struct {
	ChunkID      string
	ChunkIndex   int
	DocID        string
	SectionID    string
	SectionTitle string
	SectionLevel int
	ParentID     string
	PageStart    int
	PageEnd      int
	Text         string
	TokenCount   int
	IsEmpty      bool
}

// Chunker holds the tokenizer and split limits. Construct one per process
// via New and pass it into the pipeline.
type Chunker struct {
	enc          *tiktoken.Tiktoken
	chunkSize    int
	overlap      int
	maxChunkSize int
}

// NewParams configures a Chunker. Overlap must be strictly smaller than
// ChunkSize so splitting always advances; ChunkSize must not exceed
// MaxChunkSize.
type NewParams struct {
	Encoder      string
	ChunkSize    int
	Overlap      int
	MaxChunkSize int
}

func New(params NewParams) (*Chunker, error) {
	if params.Overlap >= params.ChunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", params.Overlap, params.ChunkSize)
	}
	if params.ChunkSize > params.MaxChunkSize {
		return nil, fmt.Errorf("chunk size (%d) exceeds max chunk size (%d)", params.ChunkSize, params.MaxChunkSize)
	}
	enc, err := tiktoken.GetEncoding(params.Encoder)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoder %q: %w", params.Encoder, err)
	}
	return &Chunker{
		enc:          enc,
		chunkSize:    params.ChunkSize,
		overlap:      params.Overlap,
		maxChunkSize: params.MaxChunkSize,
	}, nil
}

var (
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize collapses runs of 3+ newlines to two, runs of 2+ horizontal
// whitespace to one space, and strips trailing whitespace per line. Applied
// before tokenization; it never alters semantic content.
func Normalize(text string) string {
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CountTokens returns the token count of text under the configured encoder.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// SplitTokens splits text into token windows of at most chunkSize tokens,
// advancing by chunkSize-overlap per step and including the final partial
// remainder verbatim. Any window above the hard ceiling is an error.
func (c *Chunker) SplitTokens(text string) ([]string, error) {
	tokens := c.enc.Encode(text, nil, nil)

	if len(tokens) <= c.chunkSize {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < len(tokens) {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]

		if len(window) > c.maxChunkSize {
			return nil, ErrChunkTooLarge
		}

		chunks = append(chunks, c.enc.Decode(window))

		if end == len(tokens) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// BuildChunks chunks a parsed document strictly within section boundaries.
// Section text is normalized first; a section without usable text produces
// a single empty-marker chunk.
func (c *Chunker) BuildChunks(docID string, sections []document.Section) ([]Chunk, error) {
	var chunks []Chunk

	for _, section := range sections {
		text := Normalize(section.Text)

		if strings.TrimSpace(text) == "" {
			chunks = append(chunks, c.makeChunk("", section, docID, 1, len(chunks), true))
			continue
		}

		parts, err := c.SplitTokens(text)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", section.SectionID, err)
		}
		for i, part := range parts {
			chunks = append(chunks, c.makeChunk(part, section, docID, i+1, len(chunks), false))
		}
	}
	return chunks, nil
}

// BuildChunksWithoutSections is the fallback for documents with no usable
// per-section text: the whole normalized text is chunked under a synthetic
// section_0.
func (c *Chunker) BuildChunksWithoutSections(docID, text string) ([]Chunk, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, nil
	}

	parts, err := c.SplitTokens(normalized)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, Chunk{
			ChunkID:      fmt.Sprintf("%s:section_0:%d", docID, i+1),
			ChunkIndex:   i,
			DocID:        docID,
			SectionID:    "section_0",
			SectionTitle: "Document",
			PageStart:    1,
			Text:         part,
			TokenCount:   c.CountTokens(part),
		})
	}
	return chunks, nil
}

func (c *Chunker) makeChunk(
	text string,
	section document.Section,
	docID string,
	ordinal int,
	globalIndex int,
	isEmpty bool,
) Chunk {
	return Chunk{
		ChunkID:      fmt.Sprintf("%s:%s:%d", docID, section.SectionID, ordinal),
		ChunkIndex:   globalIndex,
		DocID:        docID,
		SectionID:    section.SectionID,
		SectionTitle: section.Title,
		SectionLevel: section.Level,
		ParentID:     section.ParentID,
		PageStart:    section.PageStart,
		PageEnd:      section.PageEnd,
		Text:         text,
		TokenCount:   c.CountTokens(text),
		IsEmpty:      isEmpty,
	}
}
