// Package evaluation 모델 비교용 회귀 지표 (R², RMSE, MAE)
//
// 상태 없는 순수 함수만 제공. 길이가 다른 시퀀스는 ErrLengthMismatch.
package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// Report 지표 묶음
type Report struct {
	Samples     int     `json:"samples"`
	RSquared    float64 `json:"r_squared"`
	RMSE        float64 `json:"rmse"`
	MAE         float64 `json:"mae"`
	ResidualStd float64 `json:"residual_std"`
}

func checkLengths(actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("%w: actual=%d predicted=%d", contracts.ErrLengthMismatch, len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return contracts.ErrEmptySeries
	}
	return nil
}

// RMSE 평균 제곱근 오차
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return 0, err
	}
	// L2 거리 / sqrt(n)
	return floats.Distance(actual, predicted, 2) / math.Sqrt(float64(len(actual))), nil
}

// MAE 평균 절대 오차
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return 0, err
	}
	return floats.Distance(actual, predicted, 1) / float64(len(actual)), nil
}

// RSquared 결정계수 R² = 1 - SSres/SStot
// 실제값이 상수면 SStot=0: 완전 일치 1, 아니면 0
func RSquared(actual, predicted []float64) (float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return 0, err
	}

	mean := stat.Mean(actual, nil)
	var ssTot, ssRes float64
	for i := range actual {
		d := actual[i] - mean
		ssTot += d * d
		r := actual[i] - predicted[i]
		ssRes += r * r
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}

// Residuals actual - predicted
func Residuals(actual, predicted []float64) ([]float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return nil, err
	}
	out := make([]float64, len(actual))
	floats.SubTo(out, actual, predicted)
	return out, nil
}

// Evaluate 전체 지표 계산
func Evaluate(actual, predicted []float64) (Report, error) {
	residuals, err := Residuals(actual, predicted)
	if err != nil {
		return Report{}, err
	}

	r2, _ := RSquared(actual, predicted)
	rmse, _ := RMSE(actual, predicted)
	mae, _ := MAE(actual, predicted)

	var residualStd float64
	if len(residuals) > 1 {
		residualStd = stat.StdDev(residuals, nil)
	}

	return Report{
		Samples:     len(actual),
		RSquared:    r2,
		RMSE:        rmse,
		MAE:         mae,
		ResidualStd: residualStd,
	}, nil
}
