package forecast

import (
	"fmt"
	"math"
)

// DefaultBandZ 약 95% 구간
const DefaultBandZ = 1.96

// ResidualBandMethod 잔차 기반 밴드 방식 이름
const ResidualBandMethod = "residual_sqrt_step"

// BandEstimator 예측값 주변 신뢰 구간 추정
type BandEstimator interface {
	Method() string
	Bounds(value float64, step int, sigma float64) (lower, upper float64)
}

// ResidualBand value ± z·σ·√step
// σ는 검증 잔차 표준편차(원 단위). 모델 고유의 불확실성이 아닌 근사치
type ResidualBand struct {
	z float64
}

// NewResidualBand 새 잔차 밴드 생성 (z <= 0 이면 기본값)
func NewResidualBand(z float64) *ResidualBand {
	if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		z = DefaultBandZ
	}
	return &ResidualBand{z: z}
}

// Z 배수
func (b *ResidualBand) Z() float64 {
	return b.z
}

// Method 방식 이름
func (b *ResidualBand) Method() string {
	return fmt.Sprintf("%s(z=%.2f)", ResidualBandMethod, b.z)
}

// Bounds step은 1부터. 폭은 step에 대해 단조 비감소
func (b *ResidualBand) Bounds(value float64, step int, sigma float64) (float64, float64) {
	if step < 1 {
		step = 1
	}
	if sigma < 0 || math.IsNaN(sigma) {
		sigma = 0
	}
	half := b.z * sigma * math.Sqrt(float64(step))
	return value - half, value + half
}
