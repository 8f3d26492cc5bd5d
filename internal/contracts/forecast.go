package contracts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Horizon 예측 기간 (일 단위)
type Horizon int

const (
	Horizon7D  Horizon = 7
	Horizon21D Horizon = 21
	Horizon30D Horizon = 30
)

// SupportedHorizons 지원하는 예측 기간 목록
func SupportedHorizons() []Horizon {
	return []Horizon{Horizon7D, Horizon21D, Horizon30D}
}

// IsSupported 지원 여부
func (h Horizon) IsSupported() bool {
	for _, s := range SupportedHorizons() {
		if h == s {
			return true
		}
	}
	return false
}

// Days 일수
func (h Horizon) Days() int {
	return int(h)
}

func (h Horizon) String() string {
	return fmt.Sprintf("%dd", int(h))
}

// ParseHorizon "7", "7d", "21D" 형식 파싱
func ParseHorizon(s string) (Horizon, error) {
	raw := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedHorizon, s)
	}
	h := Horizon(n)
	if !h.IsSupported() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedHorizon, n)
	}
	return h, nil
}

// Frequency 원천 시계열의 수집 주기
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Observation 원천 관측값 (timestamp, feature, value)
type Observation struct {
	Date    time.Time `json:"date"`
	Feature string    `json:"feature"`
	Value   float64   `json:"value"`
}

// SourceSeries 하나의 데이터 원천 (yfinance, FRED, GPR 등)
type SourceSeries struct {
	Source       string        `json:"source"`
	Frequency    Frequency     `json:"frequency"`
	Observations []Observation `json:"observations"`
}

// ForecastPoint 예측 시점별 결과
type ForecastPoint struct {
	Step  int       `json:"step"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"` // 근사 밴드 하단
	Upper float64   `json:"upper"` // 근사 밴드 상단
}

// Width 밴드 폭
func (p ForecastPoint) Width() float64 {
	return p.Upper - p.Lower
}

// ForecastResult 다단계 가격 예측 결과
// 생성 후 불변, 표현 계층에서만 소비
type ForecastResult struct {
	RunID           string          `json:"run_id"`
	ModelID         string          `json:"model_id"`
	Target          string          `json:"target"`
	Horizon         Horizon         `json:"horizon"`
	GeneratedAt     time.Time       `json:"generated_at"`
	LastObserved    time.Time       `json:"last_observed"`
	LastValue       float64         `json:"last_value"`
	Points          []ForecastPoint `json:"points"`
	ExogenousPolicy string          `json:"exogenous_policy"` // 외생 변수 처리 방식 (hold_last)
	BandMethod      string          `json:"band_method"`
	BandApproximate bool            `json:"band_approximate"` // 밴드는 휴리스틱, 모델 고유 불확실성 아님
}

// Values 예측값 시퀀스
func (r *ForecastResult) Values() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Value
	}
	return out
}

// EvaluationReport 모델 백테스트 지표
type EvaluationReport struct {
	ModelID     string    `json:"model_id"`
	Samples     int       `json:"samples"`
	RSquared    float64   `json:"r_squared"`
	RMSE        float64   `json:"rmse"`
	MAE         float64   `json:"mae"`
	ResidualStd float64   `json:"residual_std"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
