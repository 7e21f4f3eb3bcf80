package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/internal/tui"
	"github.com/spektr-org/pengdash/session"
)

const plainWidth = 100

var (
	renderSets   []string
	renderViews  []string
	renderRows   []int
	renderFormat string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Apply control values and print the resulting views",
	Long: `Starts a session, applies every --set in a single pass and prints the
requested views.

Controls:
  selected_attribute   bill_length_mm, bill_depth_mm, flipper_length_mm, body_mass_g
  plotly_bin_count     1-100 (clamped)
  seaborn_bin_count    1-50 (clamped)
  selected_species     comma separated, e.g. Adelie,Gentoo ("" selects none)

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Plain text panels
  csv       Chart/table data as CSV (ready for Sheets/Excel)

Examples:
  pengdash render --set selected_species=Adelie,Gentoo --view summary --format text
  pengdash render --set plotly_bin_count=5 --view plotly_histogram --format csv
  pengdash render --set selected_species=Gentoo --view grid --select 0,2 --format pretty`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringArrayVarP(&renderSets, "set", "s", nil, "Control value as control=value (repeatable)")
	f.StringSliceVar(&renderViews, "view", nil, "Views to print (default: all)")
	f.IntSliceVar(&renderRows, "select", nil, "Grid rows to select")
	f.StringVarP(&renderFormat, "format", "f", "json", "Output format: json, pretty, text, csv")
	f.StringVarP(&renderOut, "out", "o", "", "Write output to file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	events := make([]session.Event, 0, len(renderSets))
	for _, s := range renderSets {
		ev, err := session.ParseEvent(s)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}

	mgr, sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.CloseAll()

	report, err := sess.Dispatch(events...)
	if err != nil {
		return err
	}
	if len(renderRows) > 0 {
		if _, err := sess.SelectRows(renderRows); err != nil {
			return err
		}
	}
	logger.Debug("render pass",
		zap.Int("pass", report.Pass),
		zap.Stringer("dirty", report.Dirty),
		zap.Int("rendered", len(report.Rendered)))

	views := sess.Views()
	if len(renderViews) > 0 {
		views = make([]session.ViewID, 0, len(renderViews))
		for _, v := range renderViews {
			id := session.ViewID(v)
			if _, err := sess.Output(id); err != nil && isUnknownView(err) {
				return err
			}
			views = append(views, id)
		}
	}

	w := cmd.OutOrStdout()
	if renderOut != "" {
		f, err := os.Create(renderOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch renderFormat {
	case "json", "pretty":
		return writeJSON(w, buildRenderOutput(sess, views), renderFormat)
	case "csv":
		return writeCSV(w, sess, views)
	case "text":
		_, err := fmt.Fprint(w, tui.RenderSession(sess, views, plainWidth, cfg.UI.ChartRows, tui.PlainStyles()))
		return err
	}
	return fmt.Errorf("unknown format %q (want json, pretty, text, csv)", renderFormat)
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

type renderOutput struct {
	Session string       `json:"session"`
	Inputs  inputsOutput `json:"inputs"`
	Views   []viewOutput `json:"views"`
}

type inputsOutput struct {
	SelectedAttribute engine.Attribute  `json:"selected_attribute"`
	PlotlyBinCount    int               `json:"plotly_bin_count"`
	SeabornBinCount   int               `json:"seaborn_bin_count"`
	SelectedSpecies   engine.SpeciesSet `json:"selected_species"`
}

type viewOutput struct {
	ID     session.ViewID `json:"id"`
	Result *engine.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func buildRenderOutput(sess *session.Session, views []session.ViewID) renderOutput {
	in := sess.Inputs()
	out := renderOutput{
		Session: sess.ID(),
		Inputs: inputsOutput{
			SelectedAttribute: in.SelectedAttribute(),
			PlotlyBinCount:    in.PlotlyBinCount(),
			SeabornBinCount:   in.SeabornBinCount(),
			SelectedSpecies:   in.SelectedSpecies(),
		},
	}
	for _, id := range views {
		v := viewOutput{ID: id}
		res, err := sess.Output(id)
		if err != nil {
			v.Error = err.Error()
		} else {
			v.Result = res
		}
		out.Views = append(out.Views, v)
	}
	return out
}

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

// writeCSV writes one block per view, separated by an empty record.
func writeCSV(w io.Writer, sess *session.Session, views []session.ViewID) error {
	cw := csv.NewWriter(w)
	for i, id := range views {
		if i > 0 {
			cw.Write([]string{})
		}
		cw.Write([]string{"View", string(id)})

		res, err := sess.Output(id)
		if err != nil {
			cw.Write([]string{"Error", err.Error()})
			continue
		}
		switch {
		case res.Empty:
			cw.Write([]string{"Result", res.Message})
		case res.ChartConfig != nil && res.ChartConfig.ChartType == "scatter":
			writeScatterCSV(cw, res.ChartConfig)
		case res.ChartConfig != nil:
			writeChartCSV(cw, res.ChartConfig)
		case res.TableData != nil:
			writeTableCSV(cw, res.TableData)
		case res.Summary != nil:
			cw.Write([]string{"Field", "Value"})
			cw.Write([]string{"selected_attribute", res.Summary.Attribute})
			cw.Write([]string{"plotly_bin_count", fmt.Sprint(res.Summary.PlotlyBinCount)})
			cw.Write([]string{"seaborn_bin_count", fmt.Sprint(res.Summary.SeabornBinCount)})
			cw.Write([]string{"selected_species", res.Summary.SpeciesText})
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			cw.Write([]string{d.Label, engine.FormatNumber(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)

	if len(chart.Series) == 0 {
		return
	}
	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, engine.FormatNumber(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

func writeScatterCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	cw.Write([]string{
		engine.LabelForDimension(engine.DimSpecies),
		chart.XAxis,
		chart.YAxis,
		engine.BillLength.Label(),
		engine.LabelForDimension(engine.DimIsland),
	})
	for _, s := range chart.Series {
		for _, p := range s.Data {
			cw.Write([]string{
				p.Label,
				engine.FormatNumber(p.X),
				engine.FormatNumber(p.Y),
				engine.FormatNumber(p.Size),
				p.Hover,
			})
		}
	}
}

func writeTableCSV(cw *csv.Writer, td *engine.TableData) {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	if td.Selectable {
		headers = append([]string{"Selected"}, headers...)
	}
	cw.Write(headers)

	selected := make(map[int]bool, len(td.Selected))
	for _, i := range td.Selected {
		selected[i] = true
	}
	for i, row := range td.Rows {
		if td.Selectable {
			mark := ""
			if selected[i] {
				mark = "x"
			}
			row = append([]string{mark}, row...)
		}
		cw.Write(row)
	}
}

func isUnknownView(err error) bool {
	return errors.Is(err, session.ErrUnknownView)
}
