package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToDraw - за сегодня нет данных для графика
var ErrNothingToDraw = errors.New("nothing to draw")

// Usage - расходы за сегодня относительно лимита
type Usage struct {
	Spent     float64
	Remaining float64
	Limit     float64
	HasLimit  bool
}

// ChartGenerator генерирует графики дневного бюджета
type ChartGenerator struct {
	Width  int
	Height int
}

// NewChartGenerator создает новый генератор графиков
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{Width: 800, Height: 600}
}

// GenerateUsageChart рисует круговую диаграмму: потрачено / осталось.
// Перерасход показывается отдельным сектором.
func (g *ChartGenerator) GenerateUsageChart(u Usage) ([]byte, error) {
	values := usageValues(u)
	if len(values) == 0 {
		return nil, ErrNothingToDraw
	}

	pie := chart.PieChart{
		Title:  title(u),
		Width:  g.Width,
		Height: g.Height,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render usage chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func usageValues(u Usage) []chart.Value {
	var values []chart.Value
	add := func(label string, v float64, color drawing.Color) {
		if v <= 0 {
			return
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: $%.2f", label, v),
			Value: v,
			Style: chart.Style{FillColor: color, StrokeColor: chart.ColorWhite},
		})
	}

	if !u.HasLimit {
		add("Spent", u.Spent, chart.ColorRed)
		return values
	}

	spentWithin := u.Spent
	if spentWithin > u.Limit {
		spentWithin = u.Limit
	}
	add("Spent", spentWithin, chart.ColorRed)
	add("Left", u.Remaining, chart.ColorGreen)
	add("Over limit", u.Spent-u.Limit, chart.ColorBlack)
	return values
}

func title(u Usage) string {
	if !u.HasLimit {
		return "Today (no daily limit)"
	}
	return fmt.Sprintf("Today, limit $%.2f", u.Limit)
}
