package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"comprendre/internal/domain"
)

// Store holds named in-memory collections. Nothing is persisted: every
// process rebuilds its collections from scratch, which is what guarantees no
// stale entries survive a reload.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Create makes a fresh empty collection. Creating a name that already exists
// is an error; Delete first (rebuild-from-scratch is the only mutation path).
func (s *Store) Create(name string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil, fmt.Errorf("collection %q already exists", name)
	}
	c := &Collection{name: name}
	s.collections[name] = c
	return c, nil
}

// Delete removes a collection. Deleting an absent name is a no-op.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
}

func (s *Store) Get(name string) (domain.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	return c, ok
}

// Collection is a brute-force cosine-similarity index over (id, text,
// vector) entries. Its dimension is fixed by the first Add and never changes.
type Collection struct {
	mu        sync.RWMutex
	name      string
	dimension int
	ids       map[string]struct{}
	texts     []string
	vectors   [][]float64
	metadatas []map[string]string
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.texts)
}

// Add appends entries. ids, texts and vectors must have equal length
// (metadatas may be nil); ids must be unique within the collection; every
// vector must match the collection's dimension.
func (c *Collection) Add(ids, texts []string, vectors [][]float64, metadatas []map[string]string) error {
	if len(ids) != len(texts) || len(ids) != len(vectors) {
		return errors.New("ids, texts and vectors length mismatch")
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return errors.New("metadatas length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != c.dimension {
			return fmt.Errorf("%w: got %d, collection %q uses %d", domain.ErrDimensionMismatch, len(v), c.name, c.dimension)
		}
	}
	if c.ids == nil {
		c.ids = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		if _, ok := c.ids[id]; ok {
			return fmt.Errorf("duplicate id %q in collection %q", id, c.name)
		}
	}
	for i, id := range ids {
		c.ids[id] = struct{}{}
		c.texts = append(c.texts, texts[i])
		c.vectors = append(c.vectors, vectors[i])
		if metadatas != nil {
			c.metadatas = append(c.metadatas, metadatas[i])
		} else {
			c.metadatas = append(c.metadatas, nil)
		}
	}
	return nil
}

// Query returns up to topK entries ranked by descending cosine similarity.
// An empty collection yields an empty result, not an error.
func (c *Collection) Query(vector []float64, topK int) ([]domain.SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	if len(c.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query has %d, collection %q uses %d", domain.ErrDimensionMismatch, len(vector), c.name, c.dimension)
	}
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(c.vectors))
	for i := range c.vectors {
		scores[i] = scored{i, cosine(c.vectors[i], vector)}
	}
	// Stable on index so equal scores keep insertion order and retrieval
	// stays deterministic.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		s := scores[i]
		results = append(results, domain.SearchResult{
			Text:     c.texts[s.idx],
			Score:    s.score,
			Metadata: c.metadatas[s.idx],
		})
	}
	return results, nil
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
