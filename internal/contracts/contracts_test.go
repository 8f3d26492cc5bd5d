package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHorizon(t *testing.T) {
	tests := []struct {
		in      string
		want    Horizon
		wantErr bool
	}{
		{"7", Horizon7D, false},
		{"21d", Horizon21D, false},
		{" 30D ", Horizon30D, false},
		{"14", 0, true},
		{"week", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHorizon(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedHorizon)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "21d", Horizon21D.String())
	assert.Equal(t, 30, Horizon30D.Days())
}

func TestIsContractViolation(t *testing.T) {
	assert.False(t, IsContractViolation(nil))
	assert.False(t, IsContractViolation(errors.New("connection reset")))
	assert.False(t, IsContractViolation(ErrNoResult))

	wrapped := fmt.Errorf("model gru: %w", ErrShapeMismatch)
	assert.True(t, IsContractViolation(wrapped))
	assert.True(t, IsContractViolation(errors.Join(errors.New("other"), ErrEmptySeries)))
}

func TestFeatureFrequency(t *testing.T) {
	assert.Equal(t, FrequencyDaily, FeatureFrequency(TargetFeature))
	assert.Equal(t, FrequencyMonthly, FeatureFrequency("cpi"))
	assert.Equal(t, FrequencyDaily, FeatureFrequency("unknown_feature"))
}

func testFrame() *Frame {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Frame{
		Dates:    []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)},
		Features: []string{"gold_spot", "cpi"},
		Target:   "gold_spot",
		Rows:     [][]float64{{2000, 0}, {2010, 310}, {2020, 310}},
		Resolved: [][]bool{{true, false}, {true, true}, {true, true}},
	}
}

func TestFrame_Helpers(t *testing.T) {
	f := testFrame()
	require.NoError(t, f.Validate())

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 2, f.Width())
	assert.Equal(t, 1, f.FeatureIndex("cpi"))
	assert.Equal(t, -1, f.FeatureIndex("vix"))
	assert.False(t, f.IsComplete(0))
	assert.Equal(t, 2, f.TrailingCompleteCount())
	assert.True(t, f.LastDate().Equal(f.Dates[2]))
	assert.True(t, (&Frame{}).LastDate().IsZero())
}

func TestFrame_Project(t *testing.T) {
	f := testFrame()

	p, err := f.Project([]string{"cpi", "gold_spot"})
	require.NoError(t, err)
	assert.Equal(t, []float64{310, 2010}, p.Rows[1])
	assert.Equal(t, []bool{false, true}, p.Resolved[0])

	p.Rows[1][0] = -1
	assert.Equal(t, 2010.0, f.Rows[1][0], "projection does not alias the source rows")

	_, err = f.Project([]string{"vix"})
	assert.ErrorIs(t, err, ErrScalerFeatureMismatch)
}

func TestFrame_Validate(t *testing.T) {
	t.Run("duplicate date", func(t *testing.T) {
		f := testFrame()
		f.Dates[2] = f.Dates[1]
		assert.ErrorIs(t, f.Validate(), ErrDuplicateTimestamp)
	})

	t.Run("ragged row", func(t *testing.T) {
		f := testFrame()
		f.Rows[1] = []float64{1}
		assert.ErrorIs(t, f.Validate(), ErrShapeMismatch)
	})

	t.Run("missing target", func(t *testing.T) {
		f := testFrame()
		f.Target = "silver"
		assert.ErrorIs(t, f.Validate(), ErrMissingFeature)
	})
}

func TestStages(t *testing.T) {
	stages := AllStages()
	require.Len(t, stages, 5)
	assert.Equal(t, "F0", stages[0].ShortName())
	assert.Equal(t, "F4", stages[4].ShortName())
	assert.True(t, IsValidStage("F3_PREDICT"))
	assert.False(t, IsValidStage("S3_PREDICT"))
	assert.Equal(t, "UNKNOWN", Stage("X").ShortName())
	assert.NotEmpty(t, StageWindow.Description())
}

func TestForecastResult_Values(t *testing.T) {
	r := &ForecastResult{Points: []ForecastPoint{{Value: 1, Lower: 0, Upper: 2}, {Value: 3}}}
	assert.Equal(t, []float64{1, 3}, r.Values())
	assert.Equal(t, 2.0, r.Points[0].Width())
}
