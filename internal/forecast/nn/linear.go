package nn

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// LinearArtifact 선형 자기회귀 모델 가중치
// weights (lookback, input_dim), 출력 = Σ w[t][j]·x[t][j] + bias
type LinearArtifact struct {
	Lookback int         `json:"lookback"`
	InputDim int         `json:"input_dim"`
	Weights  [][]float64 `json:"weights"`
	Bias     float64     `json:"bias"`
}

// Linear 윈도우 전체에 대한 선형 결합 (베이스라인 모델)
type Linear struct {
	lookback int
	inputDim int
	weights  *mat.VecDense // 평탄화된 (lookback*input_dim)
	bias     float64
}

// NewLinear 아티팩트로부터 선형 모델 생성
func NewLinear(a LinearArtifact) (*Linear, error) {
	if a.Lookback <= 0 || a.InputDim <= 0 {
		return nil, fmt.Errorf("linear model: lookback %d, input_dim %d", a.Lookback, a.InputDim)
	}
	w, err := toDense(a.Weights, a.Lookback, a.InputDim, "weights")
	if err != nil {
		return nil, err
	}
	return &Linear{
		lookback: a.Lookback,
		inputDim: a.InputDim,
		weights:  mat.NewVecDense(a.Lookback*a.InputDim, w.RawMatrix().Data),
		bias:     a.Bias,
	}, nil
}

// LoadLinear JSON 가중치 파일 로드
func LoadLinear(path string) (*Linear, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights %s: %w", path, err)
	}
	var a LinearArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode weights %s: %w", path, err)
	}
	l, err := NewLinear(a)
	if err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	return l, nil
}

// Lookback 입력 시점 수
func (l *Linear) Lookback() int {
	return l.lookback
}

// InputDim 피처 수
func (l *Linear) InputDim() int {
	return l.inputDim
}

// Predict (lookback, input_dim) 윈도우 → 스칼라
func (l *Linear) Predict(_ context.Context, input [][]float64) (float64, error) {
	if len(input) != l.lookback {
		return 0, fmt.Errorf("%w: got %d timesteps, want %d", contracts.ErrShapeMismatch, len(input), l.lookback)
	}
	flat := make([]float64, 0, l.lookback*l.inputDim)
	for t, row := range input {
		if len(row) != l.inputDim {
			return 0, fmt.Errorf("%w: timestep %d has %d features, want %d", contracts.ErrShapeMismatch, t, len(row), l.inputDim)
		}
		flat = append(flat, row...)
	}
	x := mat.NewVecDense(len(flat), flat)
	return mat.Dot(l.weights, x) + l.bias, nil
}
