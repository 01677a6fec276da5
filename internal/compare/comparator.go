package compare

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/vidrank/vidrank/internal/core/domain"
)

// Scoring weights. They must sum to 1.
const (
	weightSemantic    = 0.65
	weightCoverage    = 0.20
	weightConciseness = 0.15
)

// Conciseness bounds: summaries around targetWords score highest, and the
// penalty grows for longer ones.
const (
	targetWords    = 140
	wordCountFloor = 60
)

// Comparator computes composite relevance scores for summaries against a
// topic and selects the best one.
type Comparator struct {
	embedder Embedder
}

// New creates a Comparator.
func New(embedder Embedder) *Comparator {
	return &Comparator{embedder: embedder}
}

// Score embeds the topic and all summaries in one batch call, computes the
// per-summary diagnostics, and returns the index of the highest composite
// score. Ties resolve to the first occurrence (stable argmax). Each
// summary's score depends only on its own text and the shared topic.
func (c *Comparator) Score(ctx context.Context, summaries []string, topic string) (int, []domain.ScoreDetails, error) {
	inputs := make([]string, 0, len(summaries)+1)
	inputs = append(inputs, topic)
	inputs = append(inputs, summaries...)

	vectors, err := c.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return 0, nil, fmt.Errorf("embed topic and summaries: %w", err)
	}

	topicVec := vectors[0]
	topicTokens := distinctTokens(topic)

	details := make([]domain.ScoreDetails, len(summaries))

	bestIndex := 0
	bestScore := math.Inf(-1)

	for i, summary := range summaries {
		d := domain.ScoreDetails{
			Semantic:    cosineSimilarity(vectors[i+1], topicVec),
			Coverage:    coverage(topicTokens, summary),
			Conciseness: conciseness(summary),
			Words:       domain.TokenCount(summary),
		}

		d.Final = weightSemantic*d.Semantic + weightCoverage*d.Coverage + weightConciseness*d.Conciseness

		details[i] = d

		if d.Final > bestScore {
			bestScore = d.Final
			bestIndex = i
		}
	}

	return bestIndex, details, nil
}

// coverage is the share of the topic's distinct lowercase tokens that appear
// in the summary, bounded in [0,1]. An empty topic yields 0.
func coverage(topicTokens map[string]struct{}, summary string) float64 {
	summaryTokens := distinctTokens(summary)

	matched := 0

	for tok := range topicTokens {
		if _, ok := summaryTokens[tok]; ok {
			matched++
		}
	}

	return float64(matched) / math.Max(1, float64(len(topicTokens)))
}

// conciseness is min(1, targetWords / max(wordCountFloor, words)), in (0,1].
// Long summaries are penalized harder than short ones.
func conciseness(summary string) float64 {
	words := domain.TokenCount(summary)

	return math.Min(1, targetWords/math.Max(wordCountFloor, float64(words)))
}

func distinctTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, tok := range tokenize(text) {
		set[tok] = struct{}{}
	}

	return set
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
