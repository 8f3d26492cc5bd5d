package forecast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

func day(d int) time.Time {
	return testStart.AddDate(0, 0, d)
}

func TestAligner_Align_ForwardFillsMonthlySeries(t *testing.T) {
	daily := contracts.SourceSeries{Source: "yfinance", Frequency: contracts.FrequencyDaily}
	for d := 0; d < 10; d++ {
		daily.Observations = append(daily.Observations, contracts.Observation{Date: day(d), Feature: "gold_spot", Value: 2000 + float64(d)})
	}
	monthly := contracts.SourceSeries{
		Source:    "fred",
		Frequency: contracts.FrequencyMonthly,
		Observations: []contracts.Observation{
			{Date: day(3), Feature: "cpi", Value: 310},
			{Date: day(7), Feature: "cpi", Value: 311},
		},
	}

	frame, err := NewAligner(zerolog.Nop()).Align([]contracts.SourceSeries{monthly, daily}, []string{"gold_spot", "cpi"}, "gold_spot")
	require.NoError(t, err)
	require.NoError(t, frame.Validate())

	assert.Equal(t, 10, frame.Len())
	assert.Equal(t, []string{"gold_spot", "cpi"}, frame.Features)

	for d := 0; d < 3; d++ {
		assert.False(t, frame.Resolved[d][1], "day %d precedes the first CPI print", d)
		assert.Zero(t, frame.Rows[d][1])
	}
	for d := 3; d < 7; d++ {
		assert.True(t, frame.Resolved[d][1])
		assert.Equal(t, 310.0, frame.Rows[d][1], "day %d holds the previous print", d)
	}
	for d := 7; d < 10; d++ {
		assert.Equal(t, 311.0, frame.Rows[d][1])
	}
	assert.Equal(t, 7, frame.TrailingCompleteCount())
}

func TestAligner_Align_UnionCalendarAndDayTruncation(t *testing.T) {
	src := contracts.SourceSeries{
		Frequency: contracts.FrequencyDaily,
		Observations: []contracts.Observation{
			{Date: day(0).Add(15 * time.Hour), Feature: "a", Value: 1},
			{Date: day(2), Feature: "a", Value: 3},
			{Date: day(1), Feature: "b", Value: 10},
			{Date: day(5), Feature: "b", Value: 50},
		},
	}

	frame, err := NewAligner(zerolog.Nop()).Align([]contracts.SourceSeries{src}, []string{"a", "b"}, "")
	require.NoError(t, err)

	assert.Equal(t, 6, frame.Len(), "calendar spans day 0 through day 5")
	assert.Equal(t, day(0), frame.Dates[0])
	assert.Equal(t, day(5), frame.LastDate())
	for i := 1; i < frame.Len(); i++ {
		assert.Equal(t, frame.Dates[i-1].AddDate(0, 0, 1), frame.Dates[i])
	}
	// a는 마지막 관측(day 2) 이후에도 유지
	assert.Equal(t, 3.0, frame.Rows[5][0])
	assert.Equal(t, 10.0, frame.Rows[4][1])
	assert.False(t, frame.Resolved[0][1])
}

func TestAligner_Align_Errors(t *testing.T) {
	a := NewAligner(zerolog.Nop())
	src := contracts.SourceSeries{Observations: []contracts.Observation{
		{Date: day(0), Feature: "a", Value: 1},
	}}

	_, err := a.Align([]contracts.SourceSeries{src}, []string{"a", "b"}, "a")
	assert.ErrorIs(t, err, contracts.ErrMissingFeature)

	_, err = a.Align([]contracts.SourceSeries{src}, []string{"a"}, "gold_spot")
	assert.ErrorIs(t, err, contracts.ErrMissingFeature)

	_, err = a.Align([]contracts.SourceSeries{src}, nil, "")
	assert.ErrorIs(t, err, contracts.ErrMissingFeature)

	dup := contracts.SourceSeries{Observations: []contracts.Observation{
		{Date: day(0), Feature: "a", Value: 1},
		{Date: day(0).Add(time.Hour), Feature: "a", Value: 2},
	}}
	_, err = a.Align([]contracts.SourceSeries{dup}, []string{"a"}, "")
	assert.ErrorIs(t, err, contracts.ErrDuplicateTimestamp)
}

func TestAligner_TrailingComplete(t *testing.T) {
	a := NewAligner(zerolog.Nop())
	frame := trendFrame(20, []string{"gold_spot", "x"})
	for d := 0; d < 5; d++ {
		frame.Resolved[d][1] = false
	}

	dates, rows, err := a.TrailingComplete(frame, 15)
	require.NoError(t, err)
	assert.Len(t, rows, 15)
	assert.Equal(t, frame.Dates[5], dates[0])

	rows[0][0] = -1
	assert.NotEqual(t, -1.0, frame.Rows[5][0], "returned rows are copies")

	_, _, err = a.TrailingComplete(frame, 16)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestAligner_CompleteTailStart(t *testing.T) {
	a := NewAligner(zerolog.Nop())
	frame := trendFrame(20, []string{"gold_spot", "x"})
	for d := 0; d < 5; d++ {
		frame.Resolved[d][1] = false
	}

	start, err := a.CompleteTailStart(frame, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, start, "start covers every complete trailing row, not only the requested minimum")

	start, err = a.CompleteTailStart(frame, 15)
	require.NoError(t, err)
	assert.Equal(t, 5, start)

	_, err = a.CompleteTailStart(frame, 16)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = a.CompleteTailStart(frame, 0)
	assert.ErrorIs(t, err, contracts.ErrShapeMismatch)
}
