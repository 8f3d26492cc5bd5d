package forecast

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// Manifest models.yaml 구조
//
//	models:
//	  - id: gru_multivariate
//	    architecture: gru
//	    lookback: 12
//	    weights: gru_multivariate.json
//	    feature_scaler: gru_feature_scaler.json
//	    target_scaler: gru_target_scaler.json
//	    horizons: [7, 21, 30]
//	    residual_std: 24.8
type Manifest struct {
	Models []ManifestEntry `yaml:"models" validate:"required,min=1,dive"`
}

// ManifestEntry 모델 하나의 아티팩트 정의
// 경로는 manifest 파일 기준 상대 경로
type ManifestEntry struct {
	ID            string   `yaml:"id" validate:"required"`
	Architecture  string   `yaml:"architecture" validate:"required,oneof=gru lstm linear remote"`
	Lookback      int      `yaml:"lookback" validate:"required,gt=0"`
	Weights       string   `yaml:"weights" validate:"required_unless=Architecture remote"`
	Endpoint      string   `yaml:"endpoint" validate:"required_if=Architecture remote"`
	FeatureScaler string   `yaml:"feature_scaler" validate:"required"`
	TargetScaler  string   `yaml:"target_scaler"`
	Features      []string `yaml:"features"`
	Target        string   `yaml:"target"`
	Horizons      []int    `yaml:"horizons" validate:"dive,oneof=7 21 30"`
	ResidualStd   float64  `yaml:"residual_std" validate:"gte=0"`
	Description   string   `yaml:"description"`
}

// Spec 매니페스트 항목 → 모델 메타데이터 (피처 목록은 스케일러 로드 후 확정)
func (e ManifestEntry) Spec() ModelSpec {
	horizons := make([]contracts.Horizon, len(e.Horizons))
	for i, h := range e.Horizons {
		horizons[i] = contracts.Horizon(h)
	}
	target := e.Target
	if target == "" {
		target = contracts.TargetFeature
	}
	return ModelSpec{
		ID:           e.ID,
		Architecture: e.Architecture,
		Lookback:     e.Lookback,
		Features:     append([]string(nil), e.Features...),
		Target:       target,
		Horizons:     horizons,
		ResidualStd:  e.ResidualStd,
		Description:  e.Description,
	}
}

var manifestValidator = validator.New()

// LoadManifest models.yaml 로드 및 검증
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return ParseManifest(raw)
}

// ParseManifest YAML 파싱 및 검증
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifestValidator.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Models))
	for _, e := range m.Models {
		if seen[e.ID] {
			return nil, fmt.Errorf("invalid manifest: model %q defined twice", e.ID)
		}
		seen[e.ID] = true
	}
	return &m, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
