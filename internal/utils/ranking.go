package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity       float64 // 시간 중력 (1.5)
	WeightVote    float64 // 1.0
	WeightComment float64 // 2.0
	WeightView    float64 // 0.05, 조회수는 자릿수가 커서 아주 작게
	ScaleFactor   float64 // 100
}

var DefaultConfig = RankConfig{
	Gravity:       1.5,
	WeightVote:    1.0,
	WeightComment: 2.0,
	WeightView:    0.05,
	ScaleFactor:   100.0,
}

// CalculatePopularity 로그 평활 + 시간 감쇠 점수. 반대/찬성 구분 없이 참여량만 본다.
func CalculatePopularity(createdAt time.Time, votes, comments, views int) float64 {
	return calculatePopularity(time.Since(createdAt).Hours(), votes, comments, views)
}

func calculatePopularity(hours float64, votes, comments, views int) float64 {
	if hours < 0 {
		hours = 0
	}

	weightedSum := float64(votes)*DefaultConfig.WeightVote +
		float64(comments)*DefaultConfig.WeightComment +
		float64(views)*DefaultConfig.WeightView
	if weightedSum < 0 {
		weightedSum = 0
	}

	// log10(sum + 1): sum=0 이면 0
	numerator := math.Log10(weightedSum+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)
	return numerator / decay
}
