package forecast

import (
	"context"
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// Model 학습된 모델의 추론 인터페이스
// 입력: (lookback, n_features) 스케일 단위 값, 출력: 타깃 스케일 단위 스칼라
// 구현체는 동시 호출에 안전해야 함
type Model interface {
	Predict(ctx context.Context, input [][]float64) (float64, error)
}

// ModelFunc 함수를 Model로 사용
type ModelFunc func(ctx context.Context, input [][]float64) (float64, error)

// Predict implements Model
func (f ModelFunc) Predict(ctx context.Context, input [][]float64) (float64, error) {
	return f(ctx, input)
}

// ModelSpec 모델 메타데이터
type ModelSpec struct {
	ID           string
	Architecture string
	Lookback     int
	Features     []string
	Target       string
	Horizons     []contracts.Horizon // 비어 있으면 모든 지원 horizon 허용
	ResidualStd  float64             // 검증 잔차 표준편차 (원 단위)
	Description  string
}

// Handle 로드된 모델 + 스케일러 묶음
// ⭐ SSOT: 모델 입출력 단위 변환은 Handle을 통해서만
type Handle struct {
	spec          ModelSpec
	model         Model
	featureScaler *Scaler
	targetScaler  *Scaler
	targetIndex   int
}

// NewHandle 새 모델 핸들 생성
// targetScaler가 nil이면 featureScaler의 타깃 컬럼 파라미터를 사용
func NewHandle(spec ModelSpec, model Model, featureScaler, targetScaler *Scaler) (*Handle, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if model == nil || featureScaler == nil {
		return nil, fmt.Errorf("model %s: model and feature scaler are required", spec.ID)
	}
	if spec.Lookback <= 0 {
		return nil, fmt.Errorf("model %s: lookback must be positive, got %d", spec.ID, spec.Lookback)
	}
	if spec.Target == "" {
		spec.Target = contracts.TargetFeature
	}
	if len(spec.Features) == 0 {
		spec.Features = featureScaler.Features()
	}
	if err := featureScaler.checkFeatures(spec.Features, len(spec.Features)); err != nil {
		return nil, fmt.Errorf("model %s: %w", spec.ID, err)
	}

	targetIndex := -1
	for i, f := range spec.Features {
		if f == spec.Target {
			targetIndex = i
			break
		}
	}
	if targetIndex < 0 {
		return nil, fmt.Errorf("model %s: %w: target %q not in features", spec.ID, contracts.ErrMissingFeature, spec.Target)
	}

	if targetScaler == nil {
		targetScaler = featureScaler
	}
	if !targetScaler.Has(spec.Target) {
		return nil, fmt.Errorf("model %s: %w: target scaler lacks %q", spec.ID, contracts.ErrScalerFeatureMismatch, spec.Target)
	}
	for _, h := range spec.Horizons {
		if !h.IsSupported() {
			return nil, fmt.Errorf("model %s: %w: %d", spec.ID, contracts.ErrUnsupportedHorizon, int(h))
		}
	}

	spec.Features = append([]string(nil), spec.Features...)
	spec.Horizons = append([]contracts.Horizon(nil), spec.Horizons...)

	return &Handle{
		spec:          spec,
		model:         model,
		featureScaler: featureScaler,
		targetScaler:  targetScaler,
		targetIndex:   targetIndex,
	}, nil
}

// ID 모델 ID
func (h *Handle) ID() string {
	return h.spec.ID
}

// Spec 메타데이터 (복사본)
func (h *Handle) Spec() ModelSpec {
	s := h.spec
	s.Features = append([]string(nil), h.spec.Features...)
	s.Horizons = append([]contracts.Horizon(nil), h.spec.Horizons...)
	return s
}

// Lookback 입력 윈도우 길이
func (h *Handle) Lookback() int {
	return h.spec.Lookback
}

// Features 학습 시 피처 순서 (복사본)
func (h *Handle) Features() []string {
	return append([]string(nil), h.spec.Features...)
}

// Target 타깃 피처 이름
func (h *Handle) Target() string {
	return h.spec.Target
}

// TargetIndex 피처 순서 상 타깃 위치
func (h *Handle) TargetIndex() int {
	return h.targetIndex
}

// FeatureScaler 입력 스케일러
func (h *Handle) FeatureScaler() *Scaler {
	return h.featureScaler
}

// SupportsHorizon 모델이 해당 horizon을 허용하는지
func (h *Handle) SupportsHorizon(hz contracts.Horizon) bool {
	if !hz.IsSupported() {
		return false
	}
	if len(h.spec.Horizons) == 0 {
		return true
	}
	for _, allowed := range h.spec.Horizons {
		if allowed == hz {
			return true
		}
	}
	return false
}

// Predict 윈도우 → 타깃 스케일 단위 예측값
// 윈도우 shape/피처 순서가 모델과 다르면 모델을 호출하지 않음
func (h *Handle) Predict(ctx context.Context, w Window) (float64, error) {
	if w.Lookback() != h.spec.Lookback || w.Width() != len(h.spec.Features) {
		return 0, fmt.Errorf("%w: window (%d, %d), model %s expects (%d, %d)",
			contracts.ErrShapeMismatch, w.Lookback(), w.Width(), h.spec.ID, h.spec.Lookback, len(h.spec.Features))
	}
	for i, f := range w.features {
		if f != h.spec.Features[i] {
			return 0, fmt.Errorf("%w: window column %d is %q, model %s expects %q",
				contracts.ErrScalerFeatureMismatch, i, f, h.spec.ID, h.spec.Features[i])
		}
	}
	return h.model.Predict(ctx, w.Values())
}

// InverseTarget 타깃 스케일 단위 시퀀스 → 원 단위
func (h *Handle) InverseTarget(values []float64) ([]float64, error) {
	return h.targetScaler.InverseValues(h.spec.Target, values)
}

// ScaleTarget 원 단위 타깃 값 → 타깃 스케일 단위
func (h *Handle) ScaleTarget(v float64) (float64, error) {
	return h.targetScaler.TransformValue(h.spec.Target, v)
}

// targetToFeatureUnits 타깃 스케일 단위 예측값 → 입력 윈도우의 타깃 컬럼 단위
// 타깃 스케일러와 피처 스케일러가 다를 수 있으므로 원 단위를 거쳐 변환
func (h *Handle) targetToFeatureUnits(v float64) (float64, error) {
	if h.targetScaler == h.featureScaler {
		return v, nil
	}
	raw, err := h.targetScaler.InverseValues(h.spec.Target, []float64{v})
	if err != nil {
		return 0, err
	}
	return h.featureScaler.TransformValue(h.spec.Target, raw[0])
}
