package ingest

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is one token-bounded slice of a sanitized document.
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Tokens int    `json:"tokens"`
}

// Chunker splits sanitized text into chunks of at most maxTokens tokens,
// with consecutive chunks sharing overlap tokens of context.
type Chunker struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	overlap   int
}

// NewChunker creates a chunker using the tokenizer for the given model.
// Unknown models fall back to cl100k_base.
func NewChunker(model string, maxTokens, overlap int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("maxTokens must be positive, got %d", maxTokens)
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, fmt.Errorf("overlap must be in [0, maxTokens), got %d", overlap)
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}

	return &Chunker{
		tokenizer: enc,
		maxTokens: maxTokens,
		overlap:   overlap,
	}, nil
}

// CountTokens returns the token count for a string.
func (c *Chunker) CountTokens(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

// Split sanitizes the text and cuts it into token-bounded chunks. Empty
// input yields no chunks.
func (c *Chunker) Split(text string) []Chunk {
	clean := Sanitize(text)
	if clean == "" {
		return nil
	}

	tokens := c.tokenizer.Encode(clean, nil, nil)
	if len(tokens) <= c.maxTokens {
		return []Chunk{{Index: 0, Text: clean, Tokens: len(tokens)}}
	}

	step := c.maxTokens - c.overlap
	chunks := make([]Chunk, 0, (len(tokens)+step-1)/step)
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   c.tokenizer.Decode(window),
			Tokens: len(window),
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
