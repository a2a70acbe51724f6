// Package retrieval provides keyword retrieval over video context and
// comment documents. Context documents are chunked; comments stay whole
// so every hit maps back to one commenter.
package retrieval

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/aixgo-dev/vidsense/agent"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// DefaultTopK is the number of documents returned when the caller does
// not ask for a specific count.
const DefaultTopK = 4

// Index is an in-memory BM25 index. Brute-force scoring over all
// documents; a single video's context and comments stay small enough
// for that.
type Index struct {
	mu     sync.RWMutex
	docs   []agent.Document
	tokens [][]string
	df     map[string]int
	avgLen float64
}

// NewIndex builds an index over the given documents.
func NewIndex(docs []agent.Document) *Index {
	idx := &Index{df: make(map[string]int)}
	idx.Add(docs...)
	return idx
}

// Add indexes additional documents.
func (idx *Index) Add(docs ...agent.Document) {
	if len(docs) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, doc := range docs {
		toks := tokenize(doc.Content)
		idx.docs = append(idx.docs, doc)
		idx.tokens = append(idx.tokens, toks)
		seen := make(map[string]bool, len(toks))
		for _, t := range toks {
			if !seen[t] {
				idx.df[t]++
				seen[t] = true
			}
		}
	}

	total := 0
	for _, toks := range idx.tokens {
		total += len(toks)
	}
	idx.avgLen = float64(total) / float64(len(idx.tokens))
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search returns the topK documents ranked by BM25 score against the
// query. Documents with zero score are omitted.
func (idx *Index) Search(query string, topK int) []agent.Document {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryToks := tokenize(query)
	if len(queryToks) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docs)
	if n == 0 {
		return nil
	}

	type scored struct {
		pos   int
		score float64
	}
	var candidates []scored
	for i, toks := range idx.tokens {
		score := idx.score(queryToks, toks)
		if score > 0 {
			candidates = append(candidates, scored{pos: i, score: score})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]agent.Document, len(candidates))
	for i, c := range candidates {
		out[i] = idx.docs[c.pos]
	}
	return out
}

func (idx *Index) score(query, doc []string) float64 {
	tf := make(map[string]int, len(doc))
	for _, t := range doc {
		tf[t]++
	}
	n := float64(len(idx.docs))
	dl := float64(len(doc))

	var score float64
	for _, q := range query {
		freq := float64(tf[q])
		if freq == 0 {
			continue
		}
		df := float64(idx.df[q])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		norm := bm25K1 * (1 - bm25B + bm25B*dl/idx.avgLen)
		score += idf * freq * (bm25K1 + 1) / (freq + norm)
	}
	return score
}

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
