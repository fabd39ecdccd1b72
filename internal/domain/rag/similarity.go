package rag

import (
	"math"
	"sort"
)

// CosineSimilarity 余弦相似度（1 - 余弦距离）
// 维度不一致或存在零向量时返回 0
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankResults 按相似度降序排序并截取前 topK 个，分数相同时保持原顺序
func RankResults(results []*RetrievedResult, topK int) []*RetrievedResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
