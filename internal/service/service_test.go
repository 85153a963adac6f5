package service

import (
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"forecast-studio/internal/analysis"
	"forecast-studio/internal/config"
	"forecast-studio/internal/state"
)

func testOptions() PrepareOptions {
	return PrepareOptions{
		CategoryColumn: "industry",
		DateColumn:     "date",
		Metrics:        config.DefaultMetrics,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func loadFrame(t *testing.T, csv string) *state.DataFrame {
	t.Helper()
	df, err := analysis.LoadCSV(strings.NewReader(csv), "test.csv")
	require.NoError(t, err)
	return df
}

// busTable builds n daily rows of "bus" with a weekly pattern.
func busTable(t *testing.T, n int, value func(i int) float64) *state.DataFrame {
	t.Helper()
	var b strings.Builder
	b.WriteString("industry,date,trips_per_day\n")
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "bus,%s,%g\n", start.AddDate(0, 0, i).Format("2006-01-02"), value(i))
	}
	return loadFrame(t, b.String())
}

func weeklyValue(i int) float64 {
	return 200 + 0.3*float64(i) + 25*math.Sin(2*math.Pi*float64(i)/7)
}
