package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/pkg/config"
	"github.com/HuyPham171-hub/goldsight-web/pkg/httputil"
	"github.com/HuyPham171-hub/goldsight-web/pkg/logger"
)

func newTestInferenceClient(t *testing.T, handler http.HandlerFunc) *InferenceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewInferenceClient(client, srv.URL+"/")
}

func TestRemoteModel_Predict(t *testing.T) {
	var got predictRequest
	ic := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models/gru_v2:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predictions": [[0.42]]}`))
	})

	m := ic.Model("gru_v2")
	assert.Equal(t, "gru_v2", m.Name())

	v, err := m.Predict(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
	require.Len(t, got.Instances, 1)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, got.Instances[0])
}

func TestRemoteModel_PredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"error field", http.StatusOK, `{"error": "model not loaded"}`},
		{"no predictions", http.StatusOK, `{"predictions": []}`},
		{"multi output", http.StatusOK, `{"predictions": [[0.1, 0.2]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := ic.Model("gru").Predict(context.Background(), [][]float64{{1}})
			assert.Error(t, err)
		})
	}
}

func TestDecodeScalar(t *testing.T) {
	v, err := decodeScalar(json.RawMessage(`1.5`))
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = decodeScalar(json.RawMessage(`[2.5]`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = decodeScalar(json.RawMessage(`"x"`))
	assert.Error(t, err)
}
