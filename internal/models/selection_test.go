package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast-studio/internal/forecast"
)

var allowed = []string{"trips_per_day", "total_trips"}

func TestSelectionRequestWithDefaults(t *testing.T) {
	sel := SelectionRequest{}.WithDefaults([]string{"bus", "taxi"}, allowed, 30)
	assert.Equal(t, Selection{Category: "bus", Metric: "trips_per_day", Periods: 30, Freq: forecast.Daily}, sel)

	five := 5
	kept := SelectionRequest{Category: "taxi", Periods: &five, Freq: forecast.Monthly}.WithDefaults([]string{"bus"}, allowed, 30)
	assert.Equal(t, "taxi", kept.Category)
	assert.Equal(t, 5, kept.Periods)
	assert.Equal(t, forecast.Monthly, kept.Freq)
}

func TestSelectionRequestKeepsExplicitZeroPeriods(t *testing.T) {
	var req SelectionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"metric":"total_trips","periods":0}`), &req))
	sel := req.WithDefaults([]string{"bus"}, allowed, 30)
	assert.Equal(t, 0, sel.Periods)
	assert.ErrorIs(t, sel.Validate(allowed, 365), ErrInvalidSelection)

	require.NoError(t, json.Unmarshal([]byte(`{"metric":"total_trips"}`), &req))
	assert.Equal(t, 30, req.WithDefaults([]string{"bus"}, allowed, 30).Periods)
}

func TestSelectionValidate(t *testing.T) {
	valid := Selection{Category: "bus", Metric: "total_trips", Periods: 365, Freq: forecast.YearEnd}
	assert.NoError(t, valid.Validate(allowed, 365))

	tests := []struct {
		name string
		sel  Selection
	}{
		{"unknown metric", Selection{Metric: "revenue", Periods: 1, Freq: forecast.Daily}},
		{"missing metric", Selection{Periods: 1, Freq: forecast.Daily}},
		{"zero periods", Selection{Metric: "total_trips", Periods: 0, Freq: forecast.Daily}},
		{"too many periods", Selection{Metric: "total_trips", Periods: 366, Freq: forecast.Daily}},
		{"bad unit", Selection{Metric: "total_trips", Periods: 1, Freq: "Q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.sel.Validate(allowed, 365), ErrInvalidSelection)
		})
	}
}
