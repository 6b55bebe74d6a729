package domain

import "context"

// Document represents a single reference text file loaded into the system.
type Document struct {
	Source  string
	Content string
}

// Chunk is a bounded window of a document used for indexing. Text carries a
// provenance prefix ("Source [<label>] : ...") so retrieved context keeps its
// attribution without a separate lookup; Source/Index/Offset carry the same
// provenance as structured fields.
type Chunk struct {
	Source string
	Index  int
	Offset int
	Text   string
}

// SearchResult is a retrieved chunk text with its similarity score.
type SearchResult struct {
	Text     string
	Score    float64
	Metadata map[string]string
}

// Intent distinguishes corpus-indexing embeddings from search-query
// embeddings. Some models apply asymmetric transforms, so passing the wrong
// intent silently degrades retrieval.
type Intent string

const (
	IntentDocument Intent = "document"
	IntentQuery    Intent = "query"
)

// Fragment is one piece of a streamed generation. A non-nil Err terminates
// the stream; the channel is closed afterwards.
type Fragment struct {
	Text string
	Err  error
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	// Probe performs a cheap connectivity self-check before bulk embedding.
	Probe(ctx context.Context) error
	Embed(ctx context.Context, text string, intent Intent) ([]float64, error)
}

// CorpusPreparer is implemented by embedders that need a preparation phase
// over the chunk corpus before bulk embedding (local vectorizers). The
// knowledge-base builder checks for it before the connectivity probe.
type CorpusPreparer interface {
	Prepare(corpus []string) error
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) []Chunk
}

// Collection is a populated, immutable-after-build vector index for one
// knowledge domain.
type Collection interface {
	Name() string
	Count() int
	Add(ids, texts []string, vectors [][]float64, metadatas []map[string]string) error
	Query(vector []float64, topK int) ([]SearchResult, error)
}

// VectorStore manages named collections. Rebuild-from-scratch is the only
// supported mutation path: Delete then Create.
type VectorStore interface {
	Create(name string) (Collection, error)
	Delete(name string)
	Get(name string) (Collection, bool)
}

// Generator invokes the hosted generation model with an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (<-chan Fragment, error)
}
