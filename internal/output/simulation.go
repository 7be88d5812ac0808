package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/recruitsim/pkg/models"
)

// DefaultHistogramWidth is the bar width of the tallest histogram row.
const DefaultHistogramWidth = 50

// MaxHistogramRows caps the rows of a text histogram. Wider ranges are
// grouped into equal-width buckets.
const MaxHistogramRows = 40

// DistributionView renders an empirical per-site distribution.
type DistributionView struct {
	Distribution *models.Distribution
}

// NewDistributionView wraps dist for rendering.
func NewDistributionView(dist *models.Distribution) *DistributionView {
	return &DistributionView{Distribution: dist}
}

func (v *DistributionView) RenderData() any {
	return v.Distribution
}

func (v *DistributionView) table() *Table {
	d := v.Distribution
	rows := make([][]string, d.Len())
	for i, s := range d.Support {
		rows[i] = []string{
			strconv.Itoa(s),
			strconv.Itoa(countAt(d, i)),
			fmt.Sprintf("%.2f", d.Probabilities[i]),
		}
	}
	footer := []string{"Total", strconv.Itoa(d.SampleSize), fmt.Sprintf("%.2f", sum(d.Probabilities))}
	return NewTable("Per-site distribution", []string{"Patients", "Sites", "Probability"}, rows, footer, d)
}

func (v *DistributionView) RenderText(w io.Writer, colored bool) error {
	if err := v.table().RenderText(w, colored); err != nil {
		return err
	}
	fmt.Fprintf(w, "Patients entered: %d across %d sites (%.2f per site)\n\n",
		v.Distribution.SampleTotal, v.Distribution.SampleSize, v.Distribution.ExpectedValue())
	return nil
}

func (v *DistributionView) RenderMarkdown(w io.Writer) error {
	if err := v.table().RenderMarkdown(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "Patients entered: **%d** across %d sites\n\n",
		v.Distribution.SampleTotal, v.Distribution.SampleSize)
	return nil
}

func countAt(d *models.Distribution, i int) int {
	if i < len(d.Counts) {
		return d.Counts[i]
	}
	return int(math.Round(d.Probabilities[i] * float64(d.SampleSize)))
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// SimulationReport renders a distribution together with the run it fed.
type SimulationReport struct {
	Distribution   *models.Distribution
	Result         *models.SimulationResult
	HistogramWidth int
}

// SimulationData is the structured form of a SimulationReport.
type SimulationData struct {
	Distribution *models.Distribution    `json:"distribution" toon:"distribution"`
	Result       *models.SimulationResult `json:"result" toon:"result"`
	MeetsGoal    bool                     `json:"meets_goal" toon:"meets_goal"`
}

// NewSimulationReport wraps a run for rendering.
func NewSimulationReport(dist *models.Distribution, result *models.SimulationResult, width int) *SimulationReport {
	if width <= 0 {
		width = DefaultHistogramWidth
	}
	return &SimulationReport{Distribution: dist, Result: result, HistogramWidth: width}
}

func (r *SimulationReport) RenderData() any {
	return SimulationData{
		Distribution: r.Distribution,
		Result:       r.Result,
		MeetsGoal:    r.Result.MeetsGoal(),
	}
}

func (r *SimulationReport) report() *Report {
	sections := []Renderable{}
	if r.Distribution != nil {
		sections = append(sections, NewDistributionView(r.Distribution))
	}
	sections = append(sections, r.resultsTable())
	return &Report{Title: "Recruitment simulation", Sections: sections}
}

func (r *SimulationReport) resultsTable() *Table {
	res := r.Result
	p := res.Params
	s := res.Summary
	rows := [][]string{
		{"Sites", strconv.Itoa(p.Sites)},
		{"Trials", strconv.Itoa(p.Trials)},
		{"Goal", strconv.Itoa(p.Goal)},
		{"Seed", strconv.FormatUint(res.Seed, 10)},
		{"Expected patients (mean)", fmt.Sprintf("%.2f", res.Mean)},
		{"P(total >= goal)", formatPercent(res.SuccessProbability)},
		{"Std deviation", fmt.Sprintf("%.2f", s.StdDev)},
		{"Range", fmt.Sprintf("%d - %d", s.Min, s.Max)},
		{"P5 / P50 / P95", fmt.Sprintf("%.0f / %.0f / %.0f", s.P5, s.P50, s.P95)},
		{"Interquartile range", fmt.Sprintf("%.0f - %.0f", s.P25, s.P75)},
	}
	return NewTable("Results", []string{"Metric", "Value"}, rows, nil, res)
}

func (r *SimulationReport) RenderText(w io.Writer, colored bool) error {
	if err := r.report().RenderText(w, colored); err != nil {
		return err
	}
	r.renderVerdict(w, colored)
	writeHeading(w, "Distribution of simulated totals", "-", colored, color.Bold)
	return r.renderHistogram(w, colored)
}

func (r *SimulationReport) RenderMarkdown(w io.Writer) error {
	if err := r.report().RenderMarkdown(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "## Distribution of simulated totals\n\n```text\n")
	if err := r.renderHistogram(w, false); err != nil {
		return err
	}
	fmt.Fprintln(w, "```")
	return nil
}

func (r *SimulationReport) renderVerdict(w io.Writer, colored bool) {
	res := r.Result
	msg := fmt.Sprintf("Probability of reaching %d patients: %s (expected %.2f)",
		res.Params.Goal, formatPercent(res.SuccessProbability), res.Mean)
	switch {
	case !colored:
		fmt.Fprintln(w, msg)
	case res.SuccessProbability >= 0.8:
		color.New(color.FgGreen).Fprintln(w, msg)
	case res.SuccessProbability >= 0.5:
		color.New(color.FgYellow).Fprintln(w, msg)
	default:
		color.New(color.FgRed).Fprintln(w, msg)
	}
	fmt.Fprintln(w)
}

// histogramRow is one printed row covering totals From..To inclusive.
type histogramRow struct {
	From, To int
	Count    int
}

// groupHistogram folds h into at most maxRows rows of equal width.
func groupHistogram(h models.Histogram, maxRows int) []histogramRow {
	n := len(h.Counts)
	if n == 0 {
		return nil
	}
	width := 1
	if maxRows > 0 && n > maxRows {
		width = (n + maxRows - 1) / maxRows
	}
	rows := make([]histogramRow, 0, (n+width-1)/width)
	for i := 0; i < n; i += width {
		end := min(i+width, n)
		row := histogramRow{From: h.Min + i, To: h.Min + end - 1}
		for _, c := range h.Counts[i:end] {
			row.Count += c
		}
		rows = append(rows, row)
	}
	return rows
}

func (r histogramRow) contains(v float64) bool {
	return v >= float64(r.From) && v < float64(r.To+1)
}

func (r histogramRow) label() string {
	if r.From == r.To {
		return strconv.Itoa(r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// renderHistogram draws one bar per row, scaled to the tallest row, and
// marks the rows holding the mean and the goal.
func (r *SimulationReport) renderHistogram(w io.Writer, colored bool) error {
	res := r.Result
	rows := groupHistogram(res.Histogram, MaxHistogramRows)
	if len(rows) == 0 {
		return nil
	}

	peak, labelWidth, countWidth := 0, 0, 0
	for _, row := range rows {
		peak = max(peak, row.Count)
		labelWidth = max(labelWidth, len(row.label()))
		countWidth = max(countWidth, len(strconv.Itoa(row.Count)))
	}

	goal := res.Params.Goal
	for _, row := range rows {
		barLen := 0
		if peak > 0 {
			barLen = int(math.Round(float64(row.Count) / float64(peak) * float64(r.HistogramWidth)))
		}
		if row.Count > 0 && barLen == 0 {
			barLen = 1
		}
		bar := strings.Repeat("#", barLen)
		if colored && row.To >= goal {
			bar = color.GreenString(bar)
		}

		var marks []string
		if row.contains(res.Mean) {
			marks = append(marks, fmt.Sprintf("mean %.2f", res.Mean))
		}
		if goal >= row.From && goal <= row.To {
			marks = append(marks, fmt.Sprintf("goal %d", goal))
		}
		line := fmt.Sprintf("%*s | %s%s %*d", labelWidth, row.label(), bar,
			strings.Repeat(" ", r.HistogramWidth-barLen), countWidth, row.Count)
		if len(marks) > 0 {
			line += "  <- " + strings.Join(marks, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	switch {
	case goal < res.Histogram.Min:
		fmt.Fprintf(w, "goal %d is below every simulated total\n", goal)
	case goal > res.Histogram.Max:
		fmt.Fprintf(w, "goal %d is above every simulated total\n", goal)
	}
	fmt.Fprintln(w)
	return nil
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
