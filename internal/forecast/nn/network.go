// Package nn 학습된 순환 신경망 가중치의 추론 전용 구현
//
// 학습/익스포트 프로세스가 Keras 레이어 가중치를 JSON으로 내보내면
// 여기서는 순전파만 수행한다. 로드 후 가중치는 읽기 전용이므로
// 하나의 Network를 여러 고루틴에서 동시에 사용해도 안전하다.
package nn

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// LayerArtifact 직렬화된 레이어 가중치 (Keras 레이아웃)
//
//	gru:   kernel (in, 3u) [z|r|h], recurrent_kernel (u, 3u), bias (3u), recurrent_bias (3u)
//	lstm:  kernel (in, 4u) [i|f|c|o], recurrent_kernel (u, 4u), bias (4u)
//	dense: kernel (in, u), bias (u)
type LayerArtifact struct {
	Type                string      `json:"type"`
	Units               int         `json:"units"`
	Activation          string      `json:"activation,omitempty"`
	RecurrentActivation string      `json:"recurrent_activation,omitempty"`
	ResetAfter          *bool       `json:"reset_after,omitempty"`
	Kernel              [][]float64 `json:"kernel"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias                []float64   `json:"bias"`
	RecurrentBias       []float64   `json:"recurrent_bias,omitempty"`
}

// NetworkArtifact 직렬화된 네트워크
type NetworkArtifact struct {
	Architecture string          `json:"architecture"`
	InputDim     int             `json:"input_dim"`
	Layers       []LayerArtifact `json:"layers"`
}

type recurrentLayer interface {
	outputDim() int
	run(seq []*mat.VecDense, returnSequences bool) []*mat.VecDense
}

// Network 순환 레이어 스택 + Dense 헤드, 단일 스칼라 출력
type Network struct {
	architecture string
	inputDim     int
	recurrent    []recurrentLayer
	dense        []*denseLayer
}

// LoadNetwork JSON 가중치 파일 로드
func LoadNetwork(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights %s: %w", path, err)
	}
	var a NetworkArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode weights %s: %w", path, err)
	}
	n, err := NewNetwork(a)
	if err != nil {
		return nil, fmt.Errorf("weights %s: %w", path, err)
	}
	return n, nil
}

// NewNetwork 아티팩트로부터 네트워크 구성 (차원 검증 포함)
func NewNetwork(a NetworkArtifact) (*Network, error) {
	if a.InputDim <= 0 {
		return nil, fmt.Errorf("input_dim must be positive, got %d", a.InputDim)
	}

	n := &Network{architecture: a.Architecture, inputDim: a.InputDim}
	dim := a.InputDim
	for i, la := range a.Layers {
		switch la.Type {
		case "gru", "lstm":
			if len(n.dense) > 0 {
				return nil, fmt.Errorf("layer %d: recurrent layer after dense layer", i)
			}
			var (
				l   recurrentLayer
				err error
			)
			if la.Type == "gru" {
				l, err = newGRULayer(la, dim)
			} else {
				l, err = newLSTMLayer(la, dim)
			}
			if err != nil {
				return nil, fmt.Errorf("layer %d (%s): %w", i, la.Type, err)
			}
			n.recurrent = append(n.recurrent, l)
			dim = l.outputDim()
		case "dense":
			l, err := newDenseLayer(la, dim)
			if err != nil {
				return nil, fmt.Errorf("layer %d (dense): %w", i, err)
			}
			n.dense = append(n.dense, l)
			dim = l.units
		default:
			return nil, fmt.Errorf("layer %d: unsupported type %q", i, la.Type)
		}
	}

	if len(n.recurrent) == 0 {
		return nil, fmt.Errorf("network has no recurrent layer")
	}
	if dim != 1 {
		return nil, fmt.Errorf("network output dim %d, want 1", dim)
	}
	return n, nil
}

// Architecture 아키텍처 이름
func (n *Network) Architecture() string {
	return n.architecture
}

// InputDim 피처 수
func (n *Network) InputDim() int {
	return n.inputDim
}

// Predict (lookback, input_dim) 시퀀스 → 스칼라
func (n *Network) Predict(_ context.Context, input [][]float64) (float64, error) {
	if len(input) == 0 {
		return 0, fmt.Errorf("%w: empty input sequence", contracts.ErrShapeMismatch)
	}

	seq := make([]*mat.VecDense, len(input))
	for t, row := range input {
		if len(row) != n.inputDim {
			return 0, fmt.Errorf("%w: timestep %d has %d features, want %d", contracts.ErrShapeMismatch, t, len(row), n.inputDim)
		}
		seq[t] = mat.NewVecDense(n.inputDim, append([]float64(nil), row...))
	}

	for i, l := range n.recurrent {
		last := i == len(n.recurrent)-1
		seq = l.run(seq, !last)
	}

	out := seq[len(seq)-1]
	for _, d := range n.dense {
		out = d.forward(out)
	}
	return out.AtVec(0), nil
}

func toDense(rows [][]float64, r, c int, name string) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%s has %d rows, want %d", name, len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s row %d has %d cols, want %d", name, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func toVec(v []float64, n int, name string) (*mat.VecDense, error) {
	if v == nil {
		return mat.NewVecDense(n, nil), nil
	}
	if len(v) != n {
		return nil, fmt.Errorf("%s has %d values, want %d", name, len(v), n)
	}
	return mat.NewVecDense(n, append([]float64(nil), v...)), nil
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", "linear":
		return func(x float64) float64 { return x }, nil
	case "relu":
		return func(x float64) float64 { return math.Max(0, x) }, nil
	case "tanh":
		return math.Tanh, nil
	case "sigmoid":
		return sigmoid, nil
	case "hard_sigmoid":
		return hardSigmoid, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// hardSigmoid Keras 2.x 정의
func hardSigmoid(x float64) float64 {
	return math.Max(0, math.Min(1, 0.2*x+0.5))
}
