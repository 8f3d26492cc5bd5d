package contracts

import (
	"fmt"
	"time"
)

// Frame 일 단위로 정렬된 다변량 시계열
// ⭐ SSOT: FeatureAligner 출력 형식
//
// Dates는 strictly increasing, 하루 한 행.
// 관측 이전 구간처럼 값이 없는 셀은 Resolved=false로 명시 (0으로 채우지 않음)
type Frame struct {
	Dates    []time.Time
	Features []string
	Target   string
	Rows     [][]float64
	Resolved [][]bool
}

// Len 행 수
func (f *Frame) Len() int {
	return len(f.Dates)
}

// Width 피처 수
func (f *Frame) Width() int {
	return len(f.Features)
}

// LastDate 마지막 관측일
func (f *Frame) LastDate() time.Time {
	if len(f.Dates) == 0 {
		return time.Time{}
	}
	return f.Dates[len(f.Dates)-1]
}

// FeatureIndex 피처 이름으로 열 위치 조회
func (f *Frame) FeatureIndex(name string) int {
	for i, feat := range f.Features {
		if feat == name {
			return i
		}
	}
	return -1
}

// IsComplete i번째 행의 모든 셀이 채워졌는지
func (f *Frame) IsComplete(i int) bool {
	for _, ok := range f.Resolved[i] {
		if !ok {
			return false
		}
	}
	return true
}

// TrailingCompleteCount 끝에서부터 연속으로 완전한 행 수
func (f *Frame) TrailingCompleteCount() int {
	n := 0
	for i := f.Len() - 1; i >= 0; i-- {
		if !f.IsComplete(i) {
			break
		}
		n++
	}
	return n
}

// Project 주어진 피처 순서로 열을 재배치 (이름 기준)
// 위치 매칭 금지, 없는 피처는 ErrScalerFeatureMismatch
func (f *Frame) Project(features []string) (*Frame, error) {
	idx := make([]int, len(features))
	for j, name := range features {
		k := f.FeatureIndex(name)
		if k < 0 {
			return nil, fmt.Errorf("%w: frame has no feature %q", ErrScalerFeatureMismatch, name)
		}
		idx[j] = k
	}

	out := &Frame{
		Dates:    append([]time.Time(nil), f.Dates...),
		Features: append([]string(nil), features...),
		Target:   f.Target,
		Rows:     make([][]float64, f.Len()),
		Resolved: make([][]bool, f.Len()),
	}
	for i := range f.Rows {
		row := make([]float64, len(idx))
		res := make([]bool, len(idx))
		for j, k := range idx {
			row[j] = f.Rows[i][k]
			res[j] = f.Resolved[i][k]
		}
		out.Rows[i] = row
		out.Resolved[i] = res
	}
	return out, nil
}

// Validate 구조 검증 (날짜 증가, 행 폭)
func (f *Frame) Validate() error {
	if len(f.Rows) != len(f.Dates) || len(f.Resolved) != len(f.Dates) {
		return fmt.Errorf("%w: %d dates, %d rows, %d masks", ErrShapeMismatch, len(f.Dates), len(f.Rows), len(f.Resolved))
	}
	for i := range f.Dates {
		if i > 0 && !f.Dates[i].After(f.Dates[i-1]) {
			return fmt.Errorf("%w: %s", ErrDuplicateTimestamp, f.Dates[i].Format("2006-01-02"))
		}
		if len(f.Rows[i]) != f.Width() || len(f.Resolved[i]) != f.Width() {
			return fmt.Errorf("%w: row %d has width %d, want %d", ErrShapeMismatch, i, len(f.Rows[i]), f.Width())
		}
	}
	if f.Target != "" && f.FeatureIndex(f.Target) < 0 {
		return fmt.Errorf("%w: target %q", ErrMissingFeature, f.Target)
	}
	return nil
}
