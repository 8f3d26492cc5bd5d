package forecast

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

// CSVHistory tidy CSV 파일 기반 HistoryProvider (DB 없이 CLI 실행용)
//
// 헤더: date,source,feature,value[,frequency]
// frequency 열이 없으면 피처 카탈로그의 주기 사용
type CSVHistory struct {
	path string
}

// NewCSVHistory 새 CSV 원천 생성
func NewCSVHistory(path string) *CSVHistory {
	return &CSVHistory{path: path}
}

var _ contracts.HistoryProvider = (*CSVHistory)(nil)

// LoadObservations 파일 전체를 읽어 피처/기간으로 필터링
func (c *CSVHistory) LoadObservations(ctx context.Context, features []string, from, to time.Time) ([]contracts.SourceSeries, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open history csv: %w", err)
	}
	defer f.Close()

	all, err := ReadObservationsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}

	wanted := make(map[string]bool, len(features))
	for _, name := range features {
		wanted[name] = true
	}

	var out []contracts.SourceSeries
	for _, s := range all {
		kept := contracts.SourceSeries{Source: s.Source, Frequency: s.Frequency}
		for _, obs := range s.Observations {
			if !wanted[obs.Feature] {
				continue
			}
			if (!from.IsZero() && obs.Date.Before(from)) || (!to.IsZero() && obs.Date.After(to)) {
				continue
			}
			kept.Observations = append(kept.Observations, obs)
		}
		if len(kept.Observations) > 0 {
			out = append(out, kept)
		}
	}
	return out, nil
}

// ReadObservationsCSV tidy CSV를 (source, frequency) 단위 시계열로 파싱
func ReadObservationsCSV(r io.Reader) ([]contracts.SourceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, contracts.ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "source", "feature", "value"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	freqCol, hasFreq := cols["frequency"]

	type seriesKey struct {
		source    string
		frequency contracts.Frequency
	}
	index := make(map[seriesKey]int)
	var out []contracts.SourceSeries

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["value"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value: %w", line, err)
		}

		feature := strings.TrimSpace(rec[cols["feature"]])
		freq := contracts.FeatureFrequency(feature)
		if hasFreq && strings.TrimSpace(rec[freqCol]) != "" {
			freq = contracts.Frequency(strings.ToLower(strings.TrimSpace(rec[freqCol])))
		}

		key := seriesKey{source: strings.TrimSpace(rec[cols["source"]]), frequency: freq}
		i, ok := index[key]
		if !ok {
			out = append(out, contracts.SourceSeries{Source: key.source, Frequency: key.frequency})
			i = len(out) - 1
			index[key] = i
		}
		out[i].Observations = append(out[i].Observations, contracts.Observation{
			Date:    date,
			Feature: feature,
			Value:   value,
		})
	}

	if len(out) == 0 {
		return nil, contracts.ErrEmptySeries
	}
	return out, nil
}

// WriteObservationsCSV 시계열을 tidy CSV로 기록
func WriteObservationsCSV(w io.Writer, series []contracts.SourceSeries) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "source", "feature", "value", "frequency"}); err != nil {
		return err
	}
	for _, s := range series {
		for _, obs := range s.Observations {
			row := []string{
				obs.Date.Format("2006-01-02"),
				s.Source,
				obs.Feature,
				strconv.FormatFloat(obs.Value, 'f', -1, 64),
				string(s.Frequency),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
