package forecast

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

const sampleCSV = `date,source,feature,value
2024-01-01,gold_org,gold_spot,2063.5
2024-01-02,gold_org,gold_spot,2058.1
2024-01-01,fred,cpi,308.4
2024-01-02,yfinance,vix,13.2
`

func TestReadObservationsCSV(t *testing.T) {
	series, err := ReadObservationsCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, "gold_org", series[0].Source)
	assert.Equal(t, contracts.FrequencyDaily, series[0].Frequency)
	assert.Len(t, series[0].Observations, 2)
	assert.Equal(t, 2058.1, series[0].Observations[1].Value)

	assert.Equal(t, contracts.FrequencyMonthly, series[1].Frequency, "frequency comes from the catalog")
}

func TestReadObservationsCSV_ExplicitFrequency(t *testing.T) {
	in := "date,source,feature,value,frequency\n2024-01-05,custom,gpr,101.2,weekly\n"
	series, err := ReadObservationsCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, contracts.FrequencyWeekly, series[0].Frequency)
}

func TestReadObservationsCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"header only", "date,source,feature,value\n"},
		{"missing column", "date,source,value\n2024-01-01,x,1\n"},
		{"bad date", "date,source,feature,value\n01/02/2024,x,gold_spot,1\n"},
		{"bad value", "date,source,feature,value\n2024-01-02,x,gold_spot,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadObservationsCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestWriteObservationsCSV_ReadBack(t *testing.T) {
	series, err := ReadObservationsCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteObservationsCSV(&buf, series))

	again, err := ReadObservationsCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, series, again)
}

func TestCSVHistory_LoadObservations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	h := NewCSVHistory(path)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	series, err := h.LoadObservations(context.Background(), []string{"gold_spot", "cpi"}, from, time.Time{})
	require.NoError(t, err)
	require.Len(t, series, 1, "cpi is before from, vix is not requested")
	require.Len(t, series[0].Observations, 1)
	assert.Equal(t, "gold_spot", series[0].Observations[0].Feature)

	_, err = NewCSVHistory(filepath.Join(t.TempDir(), "missing.csv")).
		LoadObservations(context.Background(), []string{"gold_spot"}, time.Time{}, time.Time{})
	assert.Error(t, err)
}
