package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// Aligner 서로 다른 주기의 원천 시계열을 하나의 일 단위 프레임으로 정렬
// ⭐ SSOT: forward-fill 정책은 여기서만
//
// - 저주기 값(월별 발표 등)은 다음 관측 전까지 유지 (forward-fill)
// - backward-fill 금지 (미래 정보 누출)
// - 첫 관측 이전 구간은 미해결(Resolved=false)로 남김
type Aligner struct {
	log zerolog.Logger
}

// NewAligner 새 정렬기 생성
func NewAligner(log zerolog.Logger) *Aligner {
	return &Aligner{
		log: log.With().Str("component", "forecast.aligner").Logger(),
	}
}

type datedValue struct {
	date  time.Time
	value float64
}

// Align 원천 시계열을 요청된 피처 순서의 일 단위 프레임으로 정렬
func (a *Aligner) Align(sources []contracts.SourceSeries, features []string, target string) (*contracts.Frame, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features requested", contracts.ErrMissingFeature)
	}

	wanted := make(map[string]int, len(features))
	for i, f := range features {
		if _, dup := wanted[f]; dup {
			return nil, fmt.Errorf("feature %q requested twice", f)
		}
		wanted[f] = i
	}
	if target != "" {
		if _, ok := wanted[target]; !ok {
			return nil, fmt.Errorf("%w: target %q not in feature list", contracts.ErrMissingFeature, target)
		}
	}

	// 피처별 관측값 수집 (UTC 일 단위)
	series := make([][]datedValue, len(features))
	frequency := make(map[string]contracts.Frequency, len(features))
	for _, src := range sources {
		for _, obs := range src.Observations {
			j, ok := wanted[obs.Feature]
			if !ok {
				continue
			}
			series[j] = append(series[j], datedValue{date: truncateDay(obs.Date), value: obs.Value})
			frequency[obs.Feature] = src.Frequency
		}
	}

	var start, end time.Time
	for j, obs := range series {
		if len(obs) == 0 {
			return nil, fmt.Errorf("%w: no observations for %q", contracts.ErrMissingFeature, features[j])
		}
		sort.SliceStable(obs, func(x, y int) bool { return obs[x].date.Before(obs[y].date) })
		for k := 1; k < len(obs); k++ {
			if obs[k].date.Equal(obs[k-1].date) {
				return nil, fmt.Errorf("%w: %q on %s", contracts.ErrDuplicateTimestamp, features[j], obs[k].date.Format("2006-01-02"))
			}
		}
		first, last := obs[0].date, obs[len(obs)-1].date
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if end.IsZero() || last.After(end) {
			end = last
		}
	}

	days := int(end.Sub(start).Hours()/24) + 1
	frame := &contracts.Frame{
		Dates:    make([]time.Time, 0, days),
		Features: append([]string(nil), features...),
		Target:   target,
		Rows:     make([][]float64, 0, days),
		Resolved: make([][]bool, 0, days),
	}

	cursor := make([]int, len(features)) // 다음에 소비할 관측 위치
	current := make([]float64, len(features))
	seen := make([]bool, len(features))

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		row := make([]float64, len(features))
		resolved := make([]bool, len(features))
		for j, obs := range series {
			for cursor[j] < len(obs) && !obs[cursor[j]].date.After(d) {
				current[j] = obs[cursor[j]].value
				seen[j] = true
				cursor[j]++
			}
			if seen[j] {
				row[j] = current[j]
				resolved[j] = true
			}
		}
		frame.Dates = append(frame.Dates, d)
		frame.Rows = append(frame.Rows, row)
		frame.Resolved = append(frame.Resolved, resolved)
	}

	a.log.Debug().
		Str("stage", contracts.StageAlign.String()).
		Int("features", len(features)).
		Int("rows", frame.Len()).
		Int("complete_tail", frame.TrailingCompleteCount()).
		Time("start", start).
		Time("end", end).
		Interface("frequency", frequency).
		Msg("series aligned")

	return frame, nil
}

// CompleteTailStart 끝에서부터 연속으로 완전한 행의 시작 인덱스
// 완전한 꼬리 행이 minRows 미만이면 ErrInsufficientHistory
func (a *Aligner) CompleteTailStart(frame *contracts.Frame, minRows int) (int, error) {
	if minRows <= 0 {
		return 0, fmt.Errorf("%w: lookback %d", contracts.ErrShapeMismatch, minRows)
	}
	complete := frame.TrailingCompleteCount()
	if complete < minRows {
		return 0, fmt.Errorf("%w: %d complete trailing rows, need %d", contracts.ErrInsufficientHistory, complete, minRows)
	}
	return frame.Len() - complete, nil
}

// TrailingComplete 마지막 lookback 행 반환 (모든 셀이 해결된 경우만)
// 미해결 셀을 0으로 채워 모델에 넣지 않음
func (a *Aligner) TrailingComplete(frame *contracts.Frame, lookback int) ([]time.Time, [][]float64, error) {
	if _, err := a.CompleteTailStart(frame, lookback); err != nil {
		return nil, nil, err
	}

	from := frame.Len() - lookback
	dates := append([]time.Time(nil), frame.Dates[from:]...)
	rows := make([][]float64, lookback)
	for i := range rows {
		rows[i] = append([]float64(nil), frame.Rows[from+i]...)
	}
	return dates, rows, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
