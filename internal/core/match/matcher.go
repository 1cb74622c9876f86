// Package match resolves captured biometric and plate samples against the
// user roster. Face comparison is cosine similarity over L2-normalized
// embeddings; plate comparison is exact after stripping whitespace and
// upper-casing.
package match

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/auragate/parking-backend/internal/core/domain"
)

// DefaultThreshold is the minimum cosine similarity for a face match.
const DefaultThreshold = 0.95

// Normalize returns a unit-length copy of v. It returns nil when v is empty
// or has zero norm, so a malformed embedding degrades to "no match" instead
// of propagating NaN similarities.
func Normalize(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	norm := floats.Norm(v, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/norm, out)
	return out
}

// Similarity computes the cosine similarity of two already-normalized
// vectors. Dimension mismatch yields -1, below any usable threshold.
func Similarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return -1
	}
	return floats.Dot(a, b)
}

// NormalizePlate strips all whitespace and upper-cases a plate string so
// "51a 123.45" and "51A123.45" compare equal.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// Face returns the first user owning an embedding whose similarity with the
// input exceeds threshold. The scan runs in roster order and per-user
// embedding order; the first hit wins even if a later user would score
// higher. Malformed or zero-norm vectors are skipped. Returns nil when no
// embedding clears the threshold.
func Face(users []*domain.User, embedding []float64, threshold float64) *domain.User {
	input := Normalize(embedding)
	if input == nil {
		return nil
	}

	for _, user := range users {
		if user == nil {
			continue
		}
		for _, stored := range user.FaceEmbeddings {
			candidate := Normalize(stored)
			if candidate == nil || len(candidate) != len(input) {
				continue
			}
			if Similarity(candidate, input) > threshold {
				return user
			}
		}
	}
	return nil
}

// Plate returns the first user whose plate set contains the normalized
// target, or nil.
func Plate(users []*domain.User, plateText string) *domain.User {
	target := NormalizePlate(plateText)
	if target == "" {
		return nil
	}

	for _, user := range users {
		if user == nil {
			continue
		}
		for _, p := range user.LicensePlates {
			if NormalizePlate(p) == target {
				return user
			}
		}
	}
	return nil
}

// Best is the stricter combined matcher: only users whose plate set contains
// the target are considered, and among those the single highest-scoring
// embedding above threshold wins. It is not wired into the entry/exit flow,
// which deliberately keeps first-match semantics; it exists for callers that
// need joint face+plate verification.
func Best(users []*domain.User, embedding []float64, plateText string, threshold float64) *domain.User {
	input := Normalize(embedding)
	target := NormalizePlate(plateText)
	if input == nil || target == "" {
		return nil
	}

	var best *domain.User
	bestScore := -1.0

	for _, user := range users {
		if user == nil {
			continue
		}
		plateMatch := false
		for _, p := range user.LicensePlates {
			if NormalizePlate(p) == target {
				plateMatch = true
				break
			}
		}
		if !plateMatch {
			continue
		}
		for _, stored := range user.FaceEmbeddings {
			candidate := Normalize(stored)
			if candidate == nil || len(candidate) != len(input) {
				continue
			}
			score := Similarity(candidate, input)
			if score > threshold && score > bestScore {
				best = user
				bestScore = score
			}
		}
	}
	return best
}
