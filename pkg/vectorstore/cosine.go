package vectorstore

import "math"

// cosineSimilarity computes Σ aᵢbᵢ / (√Σaᵢ² · √Σbᵢ²). Vectors of
// mismatched length are treated as dissimilar (-1) rather than panicking,
// since a corrupt row should lose a ranking, not crash a query.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
