package forecast

import (
	"fmt"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// Window (lookback, n_features) 스케일 단위 입력 윈도우
// 예측 스텝마다 새로 생성, 외부와 공유하지 않음
type Window struct {
	features []string
	rows     [][]float64
}

// Lookback 행 수
func (w Window) Lookback() int {
	return len(w.rows)
}

// Width 피처 수
func (w Window) Width() int {
	return len(w.features)
}

// Features 피처 순서 (복사본)
func (w Window) Features() []string {
	return append([]string(nil), w.features...)
}

// Row i번째 행 (복사본)
func (w Window) Row(i int) []float64 {
	return append([]float64(nil), w.rows[i]...)
}

// Last 가장 최근 행 (복사본)
func (w Window) Last() []float64 {
	return w.Row(len(w.rows) - 1)
}

// At i행 j열 값
func (w Window) At(i, j int) float64 {
	return w.rows[i][j]
}

// Values 전체 값 (깊은 복사)
func (w Window) Values() [][]float64 {
	out := make([][]float64, len(w.rows))
	for i, r := range w.rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// Set i행 j열 값 변경 (윈도우 소유자 전용)
func (w Window) Set(i, j int, v float64) {
	w.rows[i][j] = v
}

// WindowBuilder 윈도우 생성 및 전진
// ⭐ SSOT: advance는 입력을 절대 변경하지 않음
type WindowBuilder struct{}

// NewWindowBuilder 새 윈도우 빌더 생성
func NewWindowBuilder() *WindowBuilder {
	return &WindowBuilder{}
}

// Initial 스케일된 행들 중 마지막 lookback 행으로 초기 윈도우 구성
func (b *WindowBuilder) Initial(features []string, scaled [][]float64, lookback int) (Window, error) {
	if lookback <= 0 {
		return Window{}, fmt.Errorf("%w: lookback %d", contracts.ErrShapeMismatch, lookback)
	}
	if len(scaled) < lookback {
		return Window{}, fmt.Errorf("%w: %d rows, need %d", contracts.ErrInsufficientHistory, len(scaled), lookback)
	}

	from := len(scaled) - lookback
	rows := make([][]float64, lookback)
	for i := range rows {
		src := scaled[from+i]
		if len(src) != len(features) {
			return Window{}, fmt.Errorf("%w: row %d has width %d, want %d", contracts.ErrShapeMismatch, from+i, len(src), len(features))
		}
		rows[i] = append([]float64(nil), src...)
	}

	return Window{
		features: append([]string(nil), features...),
		rows:     rows,
	}, nil
}

// Advance 가장 오래된 행을 버리고 newRow를 붙인 새 윈도우 반환
func (b *WindowBuilder) Advance(w Window, newRow []float64) (Window, error) {
	if len(newRow) != w.Width() {
		return Window{}, fmt.Errorf("%w: new row width %d, window width %d", contracts.ErrShapeMismatch, len(newRow), w.Width())
	}
	if w.Lookback() == 0 {
		return Window{}, fmt.Errorf("%w: empty window", contracts.ErrShapeMismatch)
	}

	rows := make([][]float64, w.Lookback())
	for i := 1; i < w.Lookback(); i++ {
		rows[i-1] = append([]float64(nil), w.rows[i]...)
	}
	rows[len(rows)-1] = append([]float64(nil), newRow...)

	return Window{
		features: w.features,
		rows:     rows,
	}, nil
}
