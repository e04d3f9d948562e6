package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// HashingEmbedder is a deterministic bag-of-words embedder using the hashing
// trick. It needs no model and is used in development and tests.
type HashingEmbedder struct {
	dim          int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHashingEmbedder returns a HashingEmbedder producing dim-length vectors.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 768
	}
	return &HashingEmbedder{
		dim:          dim,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#.]*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashingEmbedder) Name() string    { return "hash" }
func (e *HashingEmbedder) Dimensions() int { return e.dim }

// Embed hashes unigrams and bigrams into signed buckets and L2-normalizes.
func (e *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float64, e.dim)
	tokens := e.tokenize(text)
	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, e.dim)
	if sum == 0 {
		return out
	}
	n := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v / n)
	}
	return out
}

func (e *HashingEmbedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func (e *HashingEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		t = strings.TrimRight(t, ".")
		if t == "" {
			continue
		}
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "in", "into", "is", "it",
		"of", "on", "or", "that", "the", "this", "to", "was", "were", "will", "with", "we", "you",
		"our", "your", "their", "have", "has", "had", "not", "but", "if", "than", "then",
		"der", "die", "das", "und", "mit", "für", "von", "zu", "ein", "eine",
		"el", "la", "los", "las", "y", "de", "en", "con", "para", "por",
		"le", "les", "et", "des", "du", "pour", "avec",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var _ Embedder = (*HashingEmbedder)(nil)
