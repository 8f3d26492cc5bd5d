package nn

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

func zeros(r, c int) [][]float64 {
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
	}
	return out
}

func TestLinearPredict(t *testing.T) {
	w := zeros(3, 2)
	w[2][0] = 2
	w[1][0] = -1
	m, err := NewLinear(LinearArtifact{Lookback: 3, InputDim: 2, Weights: w, Bias: 0.5})
	require.NoError(t, err)

	got, err := m.Predict(context.Background(), [][]float64{{1, 9}, {2, 9}, {3, 9}})
	require.NoError(t, err)
	// 2*3 - 2 + 0.5
	assert.InDelta(t, 4.5, got, 1e-12)

	_, err = m.Predict(context.Background(), [][]float64{{1, 9}, {2, 9}})
	assert.ErrorIs(t, err, contracts.ErrShapeMismatch)
	_, err = m.Predict(context.Background(), [][]float64{{1}, {2}, {3}})
	assert.ErrorIs(t, err, contracts.ErrShapeMismatch)
	assert.Equal(t, 3, m.Lookback())
	assert.Equal(t, 2, m.InputDim())
}

func TestNetworkPredict_ShapeErrors(t *testing.T) {
	n, err := NewNetwork(NetworkArtifact{
		Architecture: "gru",
		InputDim:     2,
		Layers: []LayerArtifact{
			{Type: "gru", Units: 1, Kernel: zeros(2, 3), RecurrentKernel: zeros(1, 3)},
		},
	})
	require.NoError(t, err)

	_, err = n.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, contracts.ErrShapeMismatch)
	_, err = n.Predict(context.Background(), [][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, contracts.ErrShapeMismatch)
}

func TestGRUZeroWeightsGivesBias(t *testing.T) {
	// 모든 가중치 0 → h = 0.5*h_prev + 0.5*tanh(0) = 0 → 출력은 dense bias
	n, err := NewNetwork(NetworkArtifact{
		Architecture: "gru",
		InputDim:     2,
		Layers: []LayerArtifact{
			{Type: "gru", Units: 3, Kernel: zeros(2, 9), RecurrentKernel: zeros(3, 9)},
			{Type: "dense", Units: 1, Kernel: zeros(3, 1), Bias: []float64{0.25}},
		},
	})
	require.NoError(t, err)

	got, err := n.Predict(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-12)
}

func TestGRUSingleStepMatchesClosedForm(t *testing.T) {
	// units=1, input=1, 후보 게이트 커널만 1 → h1 = 0.5*tanh(x)
	kernel := [][]float64{{0, 0, 1}}
	n, err := NewNetwork(NetworkArtifact{
		InputDim: 1,
		Layers: []LayerArtifact{
			{Type: "gru", Units: 1, Kernel: kernel, RecurrentKernel: zeros(1, 3)},
		},
	})
	require.NoError(t, err)

	got, err := n.Predict(context.Background(), [][]float64{{0.7}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5*math.Tanh(0.7), got, 1e-12)

	resetAfter := false
	n2, err := NewNetwork(NetworkArtifact{
		InputDim: 1,
		Layers: []LayerArtifact{
			{Type: "gru", Units: 1, ResetAfter: &resetAfter, Kernel: kernel, RecurrentKernel: zeros(1, 3)},
		},
	})
	require.NoError(t, err)
	got2, err := n2.Predict(context.Background(), [][]float64{{0.7}})
	require.NoError(t, err)
	assert.InDelta(t, got, got2, 1e-12, "zero recurrent weights make both GRU variants identical")
}

func TestLSTMSingleStepMatchesClosedForm(t *testing.T) {
	// units=1, 모든 게이트 pre-activation = x
	// c = σ(x)*tanh(x), h = σ(x)*tanh(c)
	n, err := NewNetwork(NetworkArtifact{
		InputDim: 1,
		Layers: []LayerArtifact{
			{Type: "lstm", Units: 1, Kernel: [][]float64{{1, 1, 1, 1}}, RecurrentKernel: zeros(1, 4)},
		},
	})
	require.NoError(t, err)

	x := 0.3
	got, err := n.Predict(context.Background(), [][]float64{{x}})
	require.NoError(t, err)

	s := 1 / (1 + math.Exp(-x))
	c := s * math.Tanh(x)
	assert.InDelta(t, s*math.Tanh(c), got, 1e-12)
}

func TestStackedRecurrentLayers(t *testing.T) {
	n, err := NewNetwork(NetworkArtifact{
		InputDim: 4,
		Layers: []LayerArtifact{
			{Type: "gru", Units: 8, Kernel: zeros(4, 24), RecurrentKernel: zeros(8, 24)},
			{Type: "gru", Units: 4, Kernel: zeros(8, 12), RecurrentKernel: zeros(4, 12)},
			{Type: "dense", Units: 2, Activation: "relu", Kernel: zeros(4, 2), Bias: []float64{1, -1}},
			{Type: "dense", Units: 1, Kernel: [][]float64{{2}, {5}}},
		},
	})
	require.NoError(t, err)

	got, err := n.Predict(context.Background(), zeros(5, 4))
	require.NoError(t, err)
	// relu([1,-1]) = [1,0] → 2
	assert.InDelta(t, 2.0, got, 1e-12)
}

func TestNewNetworkRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		a    NetworkArtifact
	}{
		{"no input dim", NetworkArtifact{Layers: []LayerArtifact{{Type: "gru", Units: 1}}}},
		{"no recurrent", NetworkArtifact{InputDim: 1, Layers: []LayerArtifact{{Type: "dense", Units: 1, Kernel: zeros(1, 1)}}}},
		{"kernel rows", NetworkArtifact{InputDim: 2, Layers: []LayerArtifact{{Type: "gru", Units: 1, Kernel: zeros(3, 3), RecurrentKernel: zeros(1, 3)}}}},
		{"output dim", NetworkArtifact{InputDim: 1, Layers: []LayerArtifact{{Type: "lstm", Units: 2, Kernel: zeros(1, 8), RecurrentKernel: zeros(2, 8)}}}},
		{"unknown layer", NetworkArtifact{InputDim: 1, Layers: []LayerArtifact{{Type: "conv1d", Units: 1}}}},
		{"unknown activation", NetworkArtifact{InputDim: 1, Layers: []LayerArtifact{{Type: "gru", Units: 1, Activation: "swish", Kernel: zeros(1, 3), RecurrentKernel: zeros(1, 3)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetwork(tt.a)
			assert.Error(t, err)
		})
	}
}

func TestLoadNetworkFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gru.json")
	body := `{"architecture":"gru","input_dim":1,"layers":[
		{"type":"gru","units":1,"kernel":[[0,0,1]],"recurrent_kernel":[[0,0,0]],"bias":[0,0,0],"recurrent_bias":[0,0,0]}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	n, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, "gru", n.Architecture())
	assert.Equal(t, 1, n.InputDim())

	_, err = LoadNetwork(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
