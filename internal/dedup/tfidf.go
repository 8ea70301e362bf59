package dedup

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Tokens are runs of two or more word characters, the same rule most TF-IDF
// vectorizers default to.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

type term struct {
	index  int
	weight float64
}

// vector is a sparse, L2-normalized document vector sorted by term index.
type vector []term

func tokenize(text string, stop map[string]bool) []string {
	var out []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !stop[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// vectorize builds TF-IDF vectors for docs: raw term counts weighted by a
// smoothed idf, ln((1+n)/(1+df)) + 1, then L2-normalized. A document with no
// usable token gets the zero vector.
func vectorize(docs []string, stop map[string]bool) []vector {
	vocab := make(map[string]int)
	counts := make([]map[int]int, len(docs))
	df := make(map[int]int)

	for i, doc := range docs {
		counts[i] = make(map[int]int)
		for _, tok := range tokenize(doc, stop) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
			}
			if counts[i][idx] == 0 {
				df[idx]++
			}
			counts[i][idx]++
		}
	}

	n := float64(len(docs))
	vectors := make([]vector, len(docs))
	for i, c := range counts {
		v := make(vector, 0, len(c))
		var norm float64
		for idx, tf := range c {
			idf := math.Log((1+n)/(1+float64(df[idx]))) + 1
			w := float64(tf) * idf
			v = append(v, term{index: idx, weight: w})
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range v {
				v[k].weight /= norm
			}
		}
		sort.Slice(v, func(a, b int) bool { return v[a].index < v[b].index })
		vectors[i] = v
	}
	return vectors
}

// dot is the cosine similarity of two normalized vectors.
func dot(a, b vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].index == b[j].index:
			sum += a[i].weight * b[j].weight
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}
	return sum
}

// similarityMatrix returns the full pairwise cosine-similarity matrix.
func similarityMatrix(docs []string, stop map[string]bool) [][]float64 {
	vectors := vectorize(docs, stop)
	sim := make([][]float64, len(docs))
	for i := range sim {
		sim[i] = make([]float64, len(docs))
	}
	for i := range vectors {
		sim[i][i] = dot(vectors[i], vectors[i])
		for j := i + 1; j < len(vectors); j++ {
			s := dot(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}
