package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// ScalerKind 스케일러 종류
type ScalerKind string

const (
	ScalerMinMax   ScalerKind = "minmax"
	ScalerStandard ScalerKind = "standard"
)

// Scaler 학습 시 저장된 피처별 정규화 파라미터
// ⭐ SSOT: 추론 시에는 로드만 하고 재학습(fit)하지 않음
//
// 변환은 피처별 아핀 변환 scaled = (x - offset) * scale + shift 로 통일
// minmax:   offset=data_min, scale=(hi-lo)/(data_max-data_min), shift=lo
// standard: offset=mean,     scale=1/std,                      shift=0
type Scaler struct {
	kind     ScalerKind
	features []string
	index    map[string]int
	offset   []float64
	scale    []float64
	shift    []float64
}

// ScalerArtifact 직렬화된 스케일러 (학습/익스포트 프로세스가 생성)
type ScalerArtifact struct {
	Kind         ScalerKind `json:"kind"`
	Features     []string   `json:"features"`
	DataMin      []float64  `json:"data_min,omitempty"`
	DataMax      []float64  `json:"data_max,omitempty"`
	FeatureRange []float64  `json:"feature_range,omitempty"`
	Mean         []float64  `json:"mean,omitempty"`
	Scale        []float64  `json:"scale,omitempty"` // 표준편차
}

// NewMinMaxScaler min/max 파라미터로 스케일러 생성 (feature range 기본 [0,1])
func NewMinMaxScaler(features []string, dataMin, dataMax []float64) (*Scaler, error) {
	return NewScaler(ScalerArtifact{
		Kind:     ScalerMinMax,
		Features: features,
		DataMin:  dataMin,
		DataMax:  dataMax,
	})
}

// NewStandardScaler mean/std 파라미터로 스케일러 생성
func NewStandardScaler(features []string, mean, std []float64) (*Scaler, error) {
	return NewScaler(ScalerArtifact{
		Kind:     ScalerStandard,
		Features: features,
		Mean:     mean,
		Scale:    std,
	})
}

// NewScaler 아티팩트로부터 스케일러 생성
func NewScaler(a ScalerArtifact) (*Scaler, error) {
	n := len(a.Features)
	if n == 0 {
		return nil, fmt.Errorf("scaler has no features")
	}

	s := &Scaler{
		kind:     a.Kind,
		features: append([]string(nil), a.Features...),
		index:    make(map[string]int, n),
		offset:   make([]float64, n),
		scale:    make([]float64, n),
		shift:    make([]float64, n),
	}
	for i, f := range a.Features {
		if _, dup := s.index[f]; dup {
			return nil, fmt.Errorf("scaler feature %q listed twice", f)
		}
		s.index[f] = i
	}

	switch a.Kind {
	case ScalerMinMax:
		if len(a.DataMin) != n || len(a.DataMax) != n {
			return nil, fmt.Errorf("minmax scaler: %d features, %d mins, %d maxs", n, len(a.DataMin), len(a.DataMax))
		}
		lo, hi := 0.0, 1.0
		if len(a.FeatureRange) == 2 {
			lo, hi = a.FeatureRange[0], a.FeatureRange[1]
		}
		if hi <= lo {
			return nil, fmt.Errorf("minmax scaler: invalid feature range [%g, %g]", lo, hi)
		}
		for i := 0; i < n; i++ {
			span := a.DataMax[i] - a.DataMin[i]
			if span == 0 {
				// 상수 피처: 역변환 가능하도록 scale 1
				span = hi - lo
			}
			s.offset[i] = a.DataMin[i]
			s.scale[i] = (hi - lo) / span
			s.shift[i] = lo
		}
	case ScalerStandard:
		if len(a.Mean) != n || len(a.Scale) != n {
			return nil, fmt.Errorf("standard scaler: %d features, %d means, %d scales", n, len(a.Mean), len(a.Scale))
		}
		for i := 0; i < n; i++ {
			std := a.Scale[i]
			if std == 0 {
				std = 1
			}
			s.offset[i] = a.Mean[i]
			s.scale[i] = 1 / std
		}
	default:
		return nil, fmt.Errorf("unknown scaler kind %q", a.Kind)
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(s.scale[i]) || math.IsInf(s.scale[i], 0) || math.IsNaN(s.offset[i]) {
			return nil, fmt.Errorf("scaler feature %q has non-finite parameters", a.Features[i])
		}
	}

	return s, nil
}

// LoadScaler JSON 아티팩트 파일 로드
func LoadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	var a ScalerArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	s, err := NewScaler(a)
	if err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	return s, nil
}

// Kind 스케일러 종류
func (s *Scaler) Kind() ScalerKind {
	return s.kind
}

// Features 학습 시 피처 순서 (복사본)
func (s *Scaler) Features() []string {
	return append([]string(nil), s.features...)
}

// Has 피처 포함 여부
func (s *Scaler) Has(feature string) bool {
	_, ok := s.index[feature]
	return ok
}

// checkFeatures 집합과 순서가 정확히 일치해야 함 (이름 기준)
func (s *Scaler) checkFeatures(features []string, width int) error {
	if len(features) != len(s.features) {
		return fmt.Errorf("%w: got %d features, scaler fitted on %d", contracts.ErrScalerFeatureMismatch, len(features), len(s.features))
	}
	for i, f := range features {
		if f != s.features[i] {
			return fmt.Errorf("%w: position %d is %q, scaler expects %q", contracts.ErrScalerFeatureMismatch, i, f, s.features[i])
		}
	}
	if width != len(s.features) {
		return fmt.Errorf("%w: row width %d, want %d", contracts.ErrShapeMismatch, width, len(s.features))
	}
	return nil
}

// Transform 원 단위 행 → 스케일 단위 행
func (s *Scaler) Transform(features []string, row []float64) ([]float64, error) {
	if err := s.checkFeatures(features, len(row)); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v-s.offset[i])*s.scale[i] + s.shift[i]
	}
	return out, nil
}

// InverseTransform 스케일 단위 행 → 원 단위 행
func (s *Scaler) InverseTransform(features []string, row []float64) ([]float64, error) {
	if err := s.checkFeatures(features, len(row)); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v-s.shift[i])/s.scale[i] + s.offset[i]
	}
	return out, nil
}

// TransformValue 단일 피처 값 변환
func (s *Scaler) TransformValue(feature string, v float64) (float64, error) {
	i, ok := s.index[feature]
	if !ok {
		return 0, fmt.Errorf("%w: scaler has no feature %q", contracts.ErrScalerFeatureMismatch, feature)
	}
	return (v-s.offset[i])*s.scale[i] + s.shift[i], nil
}

// InverseValues 단일 피처 시퀀스 역변환 (예측 시퀀스용)
func (s *Scaler) InverseValues(feature string, values []float64) ([]float64, error) {
	i, ok := s.index[feature]
	if !ok {
		return nil, fmt.Errorf("%w: scaler has no feature %q", contracts.ErrScalerFeatureMismatch, feature)
	}
	out := make([]float64, len(values))
	for k, v := range values {
		out[k] = (v-s.shift[i])/s.scale[i] + s.offset[i]
	}
	return out, nil
}
