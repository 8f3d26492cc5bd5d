package contracts

// Forecast 파이프라인 Stage 정의 (SSOT)
// 모든 로그와 에러 컨텍스트에서 이 상수를 사용
//
// 파이프라인 흐름:
//   F0 → F1 → F2 → F3 → F4
//   Align  Scale  Window  Predict  Finalize

// Stage represents a forecast pipeline stage
type Stage string

const (
	// StageAlign F0: 다중 주기 시계열 정렬
	// 책임: 일 단위 캘린더 생성, forward-fill, 미해결 셀 표시
	// 위치: internal/forecast/aligner.go
	StageAlign Stage = "F0_ALIGN"

	// StageScale F1: 스케일링
	// 책임: 피처 이름 기준 순서 검증, 학습 시 저장된 파라미터로 정규화
	// 위치: internal/forecast/scaler.go
	StageScale Stage = "F1_SCALE"

	// StageWindow F2: 입력 윈도우 구성
	// 책임: 최근 lookback 행 추출, advance
	// 위치: internal/forecast/window.go
	StageWindow Stage = "F2_WINDOW"

	// StagePredict F3: 자기회귀 예측 루프
	// 책임: 모델 추론, 합성 행 생성, 윈도우 전진
	// 위치: internal/forecast/engine.go
	StagePredict Stage = "F3_PREDICT"

	// StageFinalize F4: 역스케일 및 타임스탬프 부여
	// 책임: 타깃 역변환, 날짜 부여, 근사 신뢰 밴드
	// 위치: internal/forecast/engine.go, band.go
	StageFinalize Stage = "F4_FINALIZE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "F0", "F1")
func (s Stage) ShortName() string {
	switch s {
	case StageAlign:
		return "F0"
	case StageScale:
		return "F1"
	case StageWindow:
		return "F2"
	case StagePredict:
		return "F3"
	case StageFinalize:
		return "F4"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StageAlign:
		return "시계열 정렬"
	case StageScale:
		return "스케일링"
	case StageWindow:
		return "윈도우 구성"
	case StagePredict:
		return "자기회귀 예측"
	case StageFinalize:
		return "역스케일/타임스탬프"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageAlign,
		StageScale,
		StageWindow,
		StagePredict,
		StageFinalize,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
