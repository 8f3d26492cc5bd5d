package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/HuyPham171-hub/goldsight-web/pkg/httputil"
)

// InferenceClient TensorFlow Serving 호환 추론 서버 클라이언트
// POST {base}/v1/models/{name}:predict  {"instances": [[[...]]]}
type InferenceClient struct {
	http    *httputil.Client
	baseURL string
}

// NewInferenceClient 새 추론 클라이언트 생성
func NewInferenceClient(client *httputil.Client, baseURL string) *InferenceClient {
	return &InferenceClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Model 서빙 이름으로 원격 모델 생성
func (c *InferenceClient) Model(name string) *RemoteModel {
	return &RemoteModel{client: c, name: name}
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// RemoteModel 외부 추론 서버에서 서빙되는 모델
type RemoteModel struct {
	client *InferenceClient
	name   string
}

// Name 서빙 이름
func (m *RemoteModel) Name() string {
	return m.name
}

// Predict 단일 윈도우 추론
func (m *RemoteModel) Predict(ctx context.Context, input [][]float64) (float64, error) {
	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", m.client.baseURL, url.PathEscape(m.name))

	var resp predictResponse
	if err := m.client.http.PostJSONInto(ctx, endpoint, predictRequest{Instances: [][][]float64{input}}, &resp); err != nil {
		return 0, fmt.Errorf("remote model %s: %w", m.name, err)
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("remote model %s: %s", m.name, resp.Error)
	}
	if len(resp.Predictions) != 1 {
		return 0, fmt.Errorf("remote model %s: got %d predictions, want 1", m.name, len(resp.Predictions))
	}
	return decodeScalar(resp.Predictions[0])
}

// decodeScalar 1.23 또는 [1.23] 형식 모두 허용
func decodeScalar(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0, fmt.Errorf("decode prediction %s: %w", string(raw), err)
	}
	if len(arr) != 1 {
		return 0, fmt.Errorf("prediction has %d outputs, want 1", len(arr))
	}
	return arr[0], nil
}
