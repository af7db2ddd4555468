package finance

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"
)

const trendChartTitle = "Stock Influence on Main Market Trend"

// MakeTrendChart draws the first principal component's loadings as a labelled
// bar chart, one bar per asset.
func MakeTrendChart(symbols []string, loadings []float64, varianceExplained float64) ([]byte, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols provided")
	}
	if len(symbols) != len(loadings) {
		return nil, fmt.Errorf("%d symbols but %d loadings", len(symbols), len(loadings))
	}

	yMin, yMax := 0.0, 0.0
	for _, v := range loadings {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}
	pad := (yMax - yMin) * 0.1
	if pad == 0 {
		pad = 0.1
	}
	yMax += pad
	if yMin < 0 {
		yMin -= pad
	}

	rounded := make([]float64, len(loadings))
	for i, v := range loadings {
		rounded[i] = math.Round(v*1000) / 1000
	}
	seriesList := charts.NewSeriesListDataFromValues([][]float64{rounded}, charts.ChartTypeBar)
	seriesList[0].Name = "PC1 loading"
	seriesList[0].Label.Show = true

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(trendChartTitle, fmt.Sprintf("PC1 explains %.1f%% of variance", varianceExplained)),
		charts.XAxisDataOptionFunc(symbols),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// MakeReturnsChart draws the growth of one unit for every asset over the
// return dates, so co-movement is visible next to the loadings.
func MakeReturnsChart(symbols []string, dates []string, returns [][]float64) ([]byte, error) {
	if len(symbols) == 0 {
		return nil, errors.New("no symbols provided")
	}
	if len(symbols) != len(returns) {
		return nil, fmt.Errorf("%d symbols but %d return series", len(symbols), len(returns))
	}
	if len(dates) < 2 {
		return nil, errors.New("not enough data points")
	}

	values := make([][]float64, len(returns))
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for i, r := range returns {
		if len(r) != len(dates) {
			return nil, fmt.Errorf("%s: %d returns for %d dates", symbols[i], len(r), len(dates))
		}
		values[i] = CumulativeGrowth(r)
		for _, v := range values[i] {
			yMin = math.Min(yMin, v)
			yMax = math.Max(yMax, v)
		}
	}
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin -= pad
	yMax += pad

	xLabels := make([]string, len(dates))
	for i, d := range dates {
		if t, err := time.Parse(DateLayout, d); err == nil {
			xLabels[i] = t.Format("Jan 02")
		} else {
			xLabels[i] = d
		}
	}
	split := len(xLabels) / 3
	if split > 10 {
		split = 10
	}
	if split < 2 {
		split = 2
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = symbols[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Cumulative Growth", strings.Join(symbols, ", ")+" • growth of 1"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: symbols}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// ChartRenderer wraps the chart functions with a TTL cache keyed by the
// caller, typically the request window and symbols.
type ChartRenderer struct {
	cache *chartCache
}

func NewChartRenderer(ttl time.Duration) *ChartRenderer {
	return &ChartRenderer{cache: newChartCache(ttl)}
}

func (r *ChartRenderer) Trend(key string, symbols []string, loadings []float64, varianceExplained float64) ([]byte, error) {
	key = "trend|" + key
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}
	img, err := MakeTrendChart(symbols, loadings, varianceExplained)
	if err != nil {
		return nil, err
	}
	r.cache.set(key, img)
	return img, nil
}

func (r *ChartRenderer) Returns(key string, symbols []string, dates []string, returns [][]float64) ([]byte, error) {
	key = "returns|" + key
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}
	img, err := MakeReturnsChart(symbols, dates, returns)
	if err != nil {
		return nil, err
	}
	r.cache.set(key, img)
	return img, nil
}
