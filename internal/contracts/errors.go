package contracts

import "errors"

// Forecast 파이프라인 에러 분류
// ⭐ SSOT: 모든 계약 위반 에러는 여기서만 정의
// 모두 재시도 불가 (호출자/데이터 계약 위반)
var (
	ErrInsufficientHistory   = errors.New("insufficient history")
	ErrScalerFeatureMismatch = errors.New("scaler feature mismatch")
	ErrShapeMismatch         = errors.New("shape mismatch")
	ErrUnsupportedHorizon    = errors.New("unsupported horizon")
	ErrLengthMismatch        = errors.New("length mismatch")

	ErrNonFiniteOutput    = errors.New("non-finite model output")
	ErrModelNotFound      = errors.New("model not found")
	ErrMissingFeature     = errors.New("missing feature")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp")
	ErrEmptySeries        = errors.New("empty series")
)

var contractErrors = []error{
	ErrInsufficientHistory,
	ErrScalerFeatureMismatch,
	ErrShapeMismatch,
	ErrUnsupportedHorizon,
	ErrLengthMismatch,
	ErrNonFiniteOutput,
	ErrModelNotFound,
	ErrMissingFeature,
	ErrDuplicateTimestamp,
	ErrEmptySeries,
}

// IsContractViolation 계약 위반 여부 (재시도 금지 대상)
func IsContractViolation(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range contractErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrNoResult 저장된 예측/평가 결과 없음 (계약 위반 아님, API에서 404)
var ErrNoResult = errors.New("no stored result")
