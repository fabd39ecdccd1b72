package rag

import "math"

// ScoreConfidence 按排名加权计算置信度
// 第 i 名（从 0 开始）权重为 1/(i+1)，结果截断到 [0,1] 并保留 4 位小数
func ScoreConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	var weighted, totalWeight float64
	for i, score := range scores {
		weight := 1.0 / float64(i+1)
		weighted += score * weight
		totalWeight += weight
	}

	confidence := weighted / totalWeight
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return round4(confidence)
}

// round4 四舍五入到 4 位小数
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
