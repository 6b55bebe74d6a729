package chunker

import (
	"fmt"
	"strings"

	"comprendre/internal/domain"
)

const (
	defaultBlockSize = 1000
	defaultOverlap   = 100
	defaultMinChars  = 10
)

// WindowChunker splits text into fixed-size character windows with overlap.
// Windows are measured in runes so accented French text never splits inside
// a character.
type WindowChunker struct {
	blockSize int
	overlap   int
	minChars  int
}

func NewWindowChunker(blockSize, overlap, minChars int) *WindowChunker {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	if overlap < 0 || overlap >= blockSize {
		overlap = defaultOverlap
		if overlap >= blockSize {
			overlap = blockSize / 10
		}
	}
	if minChars <= 0 {
		minChars = defaultMinChars
	}
	return &WindowChunker{blockSize: blockSize, overlap: overlap, minChars: minChars}
}

// Chunk slides a window of blockSize runes across the document, advancing by
// blockSize-overlap each step. Windows whose trimmed text is at most minChars
// long are dropped as noise (whitespace-only tail fragments). Identical input
// always yields the identical chunk sequence.
func (c *WindowChunker) Chunk(document domain.Document) []domain.Chunk {
	runes := []rune(document.Content)
	if len(runes) == 0 {
		return nil
	}
	stride := c.blockSize - c.overlap
	var chunks []domain.Chunk
	idx := 0
	for start := 0; start < len(runes); start += stride {
		end := start + c.blockSize
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if len([]rune(strings.TrimSpace(window))) <= c.minChars {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Source: document.Source,
			Index:  idx,
			Offset: start,
			Text:   fmt.Sprintf("Source [%s] : %s", document.Source, window),
		})
		idx++
	}
	return chunks
}
