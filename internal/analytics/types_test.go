package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnnualSeries(t *testing.T) {
	s := NewAnnualSeries(2000, []float64{1, 2, 3})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{2000, 2001, 2002}, s.Years())
	assert.Equal(t, []float64{1, 2, 3}, s.Values())
	assert.Equal(t, 2000, s.FirstYear())
	assert.Equal(t, 2002, s.LastYear())
}

func TestAnnualSeries_EmptyBounds(t *testing.T) {
	var s AnnualSeries
	assert.Equal(t, 0, s.FirstYear())
	assert.Equal(t, 0, s.LastYear())
	assert.Equal(t, 0.0, s.Mean())
	assert.Equal(t, 0.0, s.StdDev())
}

func TestAnnualSeries_Until(t *testing.T) {
	s := NewAnnualSeries(2020, []float64{1, 2, 3, 4, 5})

	prefix := s.Until(2022)
	assert.Equal(t, []int{2020, 2021, 2022}, prefix.Years())

	assert.Empty(t, s.Until(2019))
	assert.Equal(t, 5, s.Until(2100).Len())
}

func TestAnnualSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		series  AnnualSeries
		wantErr bool
	}{
		{name: "empty", series: nil},
		{name: "contiguous", series: NewAnnualSeries(1990, []float64{1, 2, 3})},
		{name: "gap allowed", series: AnnualSeries{{Year: 1990, Value: 1}, {Year: 1995, Value: 2}}},
		{name: "duplicate year", series: AnnualSeries{{Year: 1990, Value: 1}, {Year: 1990, Value: 2}}, wantErr: true},
		{name: "decreasing", series: AnnualSeries{{Year: 1991, Value: 1}, {Year: 1990, Value: 2}}, wantErr: true},
		{name: "nan", series: AnnualSeries{{Year: 1990, Value: math.NaN()}}, wantErr: true},
		{name: "inf", series: AnnualSeries{{Year: 1990, Value: math.Inf(1)}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSeries))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnnualSeries_CloneDoesNotAlias(t *testing.T) {
	s := NewAnnualSeries(2000, []float64{1, 2})
	c := s.Clone()
	c[0].Value = 99

	assert.Equal(t, 1.0, s[0].Value)
}

func TestAnnualSeries_MeanStdDev(t *testing.T) {
	s := NewAnnualSeries(2000, []float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 5.0, s.Mean(), 1e-12)
	assert.InDelta(t, 2.138089935, s.StdDev(), 1e-9)
}
