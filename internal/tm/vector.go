package tm

import (
	"hash/fnv"
	"math"
)

// TrigramVector hashes every character trigram in s into a fixed-width
// bucket vector, then L2-normalizes it. It is a local stand-in for a
// network embedding call: deterministic, dependency-free, and good enough
// to surface near-duplicate lines (the common case in VN scripts — stock
// lines repeated with minor punctuation differences) without ever
// reaching out to a remote model.
func TrigramVector(s string, dims int) []float32 {
	vec := make([]float32, dims)
	runes := []rune(s)
	if len(runes) < 3 {
		if len(runes) > 0 {
			bucket := hashBucket(string(runes), dims)
			vec[bucket]++
		}
		return normalize(vec)
	}

	for i := 0; i+3 <= len(runes); i++ {
		trigram := string(runes[i : i+3])
		bucket := hashBucket(trigram, dims)
		vec[bucket]++
	}
	return normalize(vec)
}

func hashBucket(s string, dims int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(dims))
}

func normalize(vec []float32) []float32 {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vec
	}
	norm := math.Sqrt(sumSquares)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
