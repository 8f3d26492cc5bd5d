package forecast

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/internal/forecast/nn"
)

// ModelInfo 목록 조회용 모델 정보
type ModelInfo struct {
	ID           string              `json:"id"`
	Architecture string              `json:"architecture"`
	Lookback     int                 `json:"lookback"`
	Target       string              `json:"target"`
	Horizons     []contracts.Horizon `json:"horizons"`
	ResidualStd  float64             `json:"residual_std"`
	Description  string              `json:"description,omitempty"`
	Loaded       bool                `json:"loaded"`
}

// Registry 모델 ID → 핸들
// ⭐ SSOT: 프로세스 전역 상태 없이 명시적으로 주입
//
// 매니페스트 항목은 처음 요청될 때 한 번만 로드되고 이후 재사용된다.
// 로드된 핸들은 불변이며 여러 고루틴에서 공유된다.
type Registry struct {
	dir     string
	remote  *InferenceClient
	log     zerolog.Logger
	mu      sync.Mutex
	entries map[string]ManifestEntry
	handles map[string]*Handle
	sigma   map[string]float64 // 평가로 갱신된 잔차 표준편차
}

// RegistryOption 레지스트리 옵션
type RegistryOption func(*Registry)

// WithInferenceClient remote 아키텍처용 추론 서버 클라이언트
func WithInferenceClient(c *InferenceClient) RegistryOption {
	return func(r *Registry) {
		r.remote = c
	}
}

// NewRegistry 빈 레지스트리 생성 (핸들은 Register로 추가)
func NewRegistry(log zerolog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		log:     log.With().Str("component", "forecast.registry").Logger(),
		entries: make(map[string]ManifestEntry),
		handles: make(map[string]*Handle),
		sigma:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadRegistry 매니페스트 기반 레지스트리 생성 (아티팩트는 지연 로드)
func LoadRegistry(manifestPath string, log zerolog.Logger, opts ...RegistryOption) (*Registry, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	r := NewRegistry(log, opts...)
	r.dir = filepath.Dir(manifestPath)
	for _, e := range m.Models {
		r.entries[e.ID] = e
	}
	r.log.Info().Int("models", len(m.Models)).Str("manifest", manifestPath).Msg("model manifest loaded")
	return r, nil
}

// Register 프로그램에서 생성한 핸들 등록 (테스트, 외부 주입)
func (r *Registry) Register(h *Handle) error {
	if h == nil {
		return fmt.Errorf("nil handle")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[h.ID()]; ok {
		return fmt.Errorf("model %q already registered", h.ID())
	}
	if _, ok := r.entries[h.ID()]; ok {
		return fmt.Errorf("model %q already defined in manifest", h.ID())
	}
	r.handles[h.ID()] = h
	return nil
}

// Get 모델 핸들 조회 (최초 요청 시 로드)
func (r *Registry) Get(ctx context.Context, id string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[id]; ok {
		return h, nil
	}
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", contracts.ErrModelNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := r.load(entry)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", id, err)
	}
	r.handles[id] = h
	r.log.Info().
		Str("model", id).
		Str("architecture", entry.Architecture).
		Int("lookback", entry.Lookback).
		Int("features", len(h.spec.Features)).
		Msg("model loaded")
	return h, nil
}

// Has 등록 여부
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, inHandles := r.handles[id]
	_, inEntries := r.entries[id]
	return inHandles || inEntries
}

// IDs 모든 모델 ID (정렬)
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.entries)+len(r.handles))
	seen := make(map[string]bool)
	for id := range r.entries {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range r.handles {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// List 모델 정보 목록 (로드하지 않음)
func (r *Registry) List() []ModelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ModelInfo, 0, len(r.entries)+len(r.handles))
	for _, id := range r.idsLocked() {
		var spec ModelSpec
		h, loaded := r.handles[id]
		if loaded {
			spec = h.Spec()
		} else {
			spec = r.entries[id].Spec()
		}
		horizons := spec.Horizons
		if len(horizons) == 0 {
			horizons = contracts.SupportedHorizons()
		}
		sigma := spec.ResidualStd
		if s, ok := r.sigma[id]; ok {
			sigma = s
		}
		out = append(out, ModelInfo{
			ID:           id,
			Architecture: spec.Architecture,
			Lookback:     spec.Lookback,
			Target:       spec.Target,
			Horizons:     horizons,
			ResidualStd:  sigma,
			Description:  spec.Description,
			Loaded:       loaded,
		})
	}
	return out
}

// ResidualStd 밴드에 사용할 σ (평가 갱신값 우선, 없으면 매니페스트 값)
func (r *Registry) ResidualStd(h *Handle) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sigma[h.ID()]; ok {
		return s
	}
	return h.spec.ResidualStd
}

// UpdateResidualStd 최신 평가 결과로 σ 갱신
func (r *Registry) UpdateResidualStd(id string, sigma float64) error {
	if sigma < 0 {
		return fmt.Errorf("residual std must be non-negative, got %g", sigma)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, inHandles := r.handles[id]
	_, inEntries := r.entries[id]
	if !inHandles && !inEntries {
		return fmt.Errorf("%w: %q", contracts.ErrModelNotFound, id)
	}
	r.sigma[id] = sigma
	return nil
}

func (r *Registry) load(e ManifestEntry) (*Handle, error) {
	featureScaler, err := LoadScaler(resolvePath(r.dir, e.FeatureScaler))
	if err != nil {
		return nil, err
	}
	var targetScaler *Scaler
	if e.TargetScaler != "" {
		targetScaler, err = LoadScaler(resolvePath(r.dir, e.TargetScaler))
		if err != nil {
			return nil, err
		}
	}

	var model Model
	switch e.Architecture {
	case "gru", "lstm":
		n, err := nn.LoadNetwork(resolvePath(r.dir, e.Weights))
		if err != nil {
			return nil, err
		}
		if n.InputDim() != len(featureScaler.Features()) {
			return nil, fmt.Errorf("%w: network input_dim %d, scaler has %d features",
				contracts.ErrShapeMismatch, n.InputDim(), len(featureScaler.Features()))
		}
		model = n
	case "linear":
		l, err := nn.LoadLinear(resolvePath(r.dir, e.Weights))
		if err != nil {
			return nil, err
		}
		if l.Lookback() != e.Lookback || l.InputDim() != len(featureScaler.Features()) {
			return nil, fmt.Errorf("%w: linear weights (%d, %d), manifest lookback %d with %d scaler features",
				contracts.ErrShapeMismatch, l.Lookback(), l.InputDim(), e.Lookback, len(featureScaler.Features()))
		}
		model = l
	case "remote":
		if r.remote == nil {
			return nil, fmt.Errorf("remote model %s requires an inference client", e.ID)
		}
		model = r.remote.Model(e.Endpoint)
	default:
		return nil, fmt.Errorf("unsupported architecture %q", e.Architecture)
	}

	return NewHandle(e.Spec(), model, featureScaler, targetScaler)
}
