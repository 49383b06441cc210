// Package report renders a training run as a self-contained HTML page:
// the loss curve over epochs and the final per-pattern predictions
// against their targets.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Data is the material of one training report.
type Data struct {
	// Epochs and Losses are the sampled loss curve, index-aligned.
	Epochs []int
	Losses []float64

	// Labels, Predictions, and Targets describe the final per-pattern
	// outputs, index-aligned.
	Labels      []string
	Predictions []float64
	Targets     []float64
}

// Render writes the report as HTML to w.
func Render(w io.Writer, d Data) error {
	if len(d.Epochs) != len(d.Losses) {
		return fmt.Errorf("report: %d epochs for %d losses", len(d.Epochs), len(d.Losses))
	}
	if len(d.Labels) != len(d.Predictions) || len(d.Labels) != len(d.Targets) {
		return fmt.Errorf("report: mismatched prediction data")
	}

	page := components.NewPage()
	page.AddCharts(lossChart(d), predictionChart(d))
	return page.Render(w)
}

func lossChart(d Data) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Training loss",
			Subtitle: "Summed squared-error loss per epoch",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	xs := make([]string, len(d.Epochs))
	ys := make([]opts.LineData, len(d.Losses))
	for i := range d.Epochs {
		xs[i] = fmt.Sprintf("%d", d.Epochs[i])
		ys[i] = opts.LineData{Value: d.Losses[i]}
	}
	line.SetXAxis(xs).AddSeries("loss", ys)
	return line
}

func predictionChart(d Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Predictions",
			Subtitle: "Output differential (V) per pattern",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	preds := make([]opts.BarData, len(d.Predictions))
	targets := make([]opts.BarData, len(d.Targets))
	for i := range d.Labels {
		preds[i] = opts.BarData{Value: d.Predictions[i]}
		targets[i] = opts.BarData{Value: d.Targets[i]}
	}
	bar.SetXAxis(d.Labels).
		AddSeries("predicted", preds).
		AddSeries("target", targets)
	return bar
}
