package forecast

import "fmt"

// ExogenousStrategy 자기회귀 루프에서 다음 입력 행을 합성하는 정책
//
// 모델은 타깃만 예측하므로 외생 변수(매크로, 지수 등)의 미래 값은 알 수 없다.
// 정책을 바꾸면 예측 결과의 의미가 달라지므로 결과에 정책 이름을 기록한다.
type ExogenousStrategy interface {
	Name() string
	NextRow(last []float64, targetIndex int, targetValue float64) ([]float64, error)
}

// HoldLastPolicy 외생 변수 마지막 값 유지 정책 이름
const HoldLastPolicy = "hold_last"

// HoldLastStrategy 외생 변수를 윈도우 마지막 행 값으로 고정
// 예측값은 타깃 컬럼에만 들어가며 외생 변수의 미래를 안다고 가정하지 않음
type HoldLastStrategy struct{}

// Name 정책 이름
func (HoldLastStrategy) Name() string {
	return HoldLastPolicy
}

// NextRow 마지막 행을 복사하고 타깃 컬럼만 교체
func (HoldLastStrategy) NextRow(last []float64, targetIndex int, targetValue float64) ([]float64, error) {
	if targetIndex < 0 || targetIndex >= len(last) {
		return nil, fmt.Errorf("target index %d out of range for row width %d", targetIndex, len(last))
	}
	row := append([]float64(nil), last...)
	row[targetIndex] = targetValue
	return row, nil
}
