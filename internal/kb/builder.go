package kb

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"comprendre/internal/domain"
)

const defaultEmbedDelay = 50 * time.Millisecond

// ProgressFunc observes the bulk embedding phase as a monotonic 0..1
// fraction. May be nil.
type ProgressFunc func(fraction float64)

// Builder turns document sources into a populated vector collection.
//
// Embedding is the expensive, rate-limited step, so results are memoized for
// the process lifetime, keyed by collection name plus a fingerprint of the
// sources and chunking parameters. Concurrent first builds coalesce onto a
// single in-flight build. Invalidation is explicit: bump the collection
// name's version suffix.
type Builder struct {
	store    domain.VectorStore
	embedder domain.Embedder
	chunker  domain.Chunker
	log      *zap.Logger
	delay    time.Duration
	cache    *gocache.Cache
	group    singleflight.Group
}

func NewBuilder(store domain.VectorStore, embedder domain.Embedder, chunker domain.Chunker, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		log:      log,
		delay:    defaultEmbedDelay,
		cache:    gocache.New(gocache.NoExpiration, 0),
	}
}

// WithEmbedDelay overrides the politeness delay between bulk embedding calls.
func (b *Builder) WithEmbedDelay(d time.Duration) *Builder {
	b.delay = d
	return b
}

// Build returns the populated collection for the sources, building it at
// most once per process for a given (collection, sources) key.
func (b *Builder) Build(ctx context.Context, sources []domain.Document, collectionName string, progress ProgressFunc) (domain.Collection, error) {
	key := collectionName + ":" + fingerprint(sources)
	if cached, ok := b.cache.Get(key); ok {
		if progress != nil {
			progress(1)
		}
		return cached.(domain.Collection), nil
	}
	v, err, _ := b.group.Do(key, func() (any, error) {
		if cached, ok := b.cache.Get(key); ok {
			return cached, nil
		}
		col, err := b.build(ctx, sources, collectionName, progress)
		if err != nil {
			return nil, err
		}
		b.cache.Set(key, col, gocache.NoExpiration)
		return col, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.Collection), nil
}

func (b *Builder) build(ctx context.Context, sources []domain.Document, collectionName string, progress ProgressFunc) (domain.Collection, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAvailable, domain.ErrNoDocuments)
	}

	// Drop any prior generation of this collection before repopulating so no
	// stale or duplicate entries survive a rebuild.
	b.store.Delete(collectionName)
	collection, err := b.store.Create(collectionName)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, doc := range sources {
		chunks = append(chunks, b.chunker.Chunk(doc)...)
	}
	if len(chunks) == 0 {
		b.store.Delete(collectionName)
		return nil, fmt.Errorf("%w: documents produced no chunks", domain.ErrNotAvailable)
	}
	b.log.Info("chunked sources",
		zap.String("collection", collectionName),
		zap.Int("documents", len(sources)),
		zap.Int("chunks", len(chunks)))

	if preparer, ok := b.embedder.(domain.CorpusPreparer); ok {
		corpus := make([]string, len(chunks))
		for i, chunk := range chunks {
			corpus[i] = chunk.Text
		}
		if err := preparer.Prepare(corpus); err != nil {
			b.store.Delete(collectionName)
			return nil, fmt.Errorf("%w: %v", domain.ErrNotAvailable, err)
		}
	}

	// A systemic embedding outage should surface here, not after a partial
	// batch.
	if err := b.embedder.Probe(ctx); err != nil {
		b.store.Delete(collectionName)
		return nil, fmt.Errorf("embedding probe: %w", err)
	}

	var (
		ids       []string
		texts     []string
		vectors   [][]float64
		metadatas []map[string]string
		skipped   int
	)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			b.store.Delete(collectionName)
			return nil, err
		}
		vec, err := b.embedder.Embed(ctx, chunk.Text, domain.IntentDocument)
		if err != nil {
			// A partial index beats no index: skip the chunk and continue.
			skipped++
			b.log.Warn("chunk embedding failed, skipping",
				zap.String("source", chunk.Source),
				zap.Int("chunk", i),
				zap.Error(err))
		} else {
			ids = append(ids, "doc_"+strconv.Itoa(i))
			texts = append(texts, chunk.Text)
			vectors = append(vectors, vec)
			metadatas = append(metadatas, map[string]string{
				"source": chunk.Source,
				"index":  strconv.Itoa(chunk.Index),
			})
		}
		if progress != nil {
			progress(float64(i+1) / float64(len(chunks)))
		}
		if b.delay > 0 && i < len(chunks)-1 {
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				b.store.Delete(collectionName)
				return nil, ctx.Err()
			}
		}
	}

	if len(ids) == 0 {
		b.store.Delete(collectionName)
		return nil, fmt.Errorf("%w: no chunk embedded successfully", domain.ErrNotAvailable)
	}
	if err := collection.Add(ids, texts, vectors, metadatas); err != nil {
		b.store.Delete(collectionName)
		return nil, err
	}
	b.log.Info("knowledge base ready",
		zap.String("collection", collectionName),
		zap.Int("indexed", len(ids)),
		zap.Int("skipped", skipped))
	return collection, nil
}

// fingerprint hashes source labels and contents so a changed document set
// yields a different memoization key.
func fingerprint(sources []domain.Document) string {
	h := sha1.New()
	for _, doc := range sources {
		h.Write([]byte(doc.Source))
		h.Write([]byte{0})
		h.Write([]byte(doc.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
