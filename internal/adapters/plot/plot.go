// Package plot renders stacked per-variable control plots.
package plot

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/okian/tauskim/pkg/logger"
)

// ErrEmptyFigure is returned for a figure with nothing to draw.
var ErrEmptyFigure = errors.New("figure has no histograms")

// DefaultSignalScale magnifies signal lines.
const DefaultSignalScale = 100.0

// Colors per plotted component.
var Colors = map[string]color.Color{
	"ggH": color.RGBA{R: 0xBF, G: 0x22, B: 0x29, A: 255},
	"qqH": color.RGBA{R: 0x00, G: 0xA8, B: 0x8F, A: 255},
	"TT":  color.RGBA{R: 155, G: 152, B: 204, A: 255},
	"W":   color.RGBA{R: 222, G: 90, B: 106, A: 255},
	"QCD": color.RGBA{R: 250, G: 202, B: 255, A: 255},
	"ZLL": color.RGBA{R: 248, G: 206, B: 104, A: 255},
}

var fallbackColor = color.Gray{Y: 160}

var axisLabels = map[string]string{
	"pt_1": "p_T(μ) [GeV]",
	"pt_2": "p_T(τ) [GeV]",
}

// Series is one labelled histogram.
type Series struct {
	Label string
	Hist  *hbook.H1D
}

// Figure is everything drawn for one variable.
type Figure struct {
	Variable    string
	Backgrounds []Series // stacked bottom to top
	Signals     []Series
	Data        *Series
}

// Renderer writes figures as images.
type Renderer struct {
	signalScale float64
	width       vg.Length
	height      vg.Length
	logger      logger.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSignalScale sets the factor applied to signal histograms.
func WithSignalScale(f float64) Option {
	return func(r *Renderer) {
		if f > 0 {
			r.signalScale = f
		}
	}
}

// WithSize sets the image size.
func WithSize(w, h vg.Length) Option {
	return func(r *Renderer) {
		if w > 0 && h > 0 {
			r.width, r.height = w, h
		}
	}
}

// WithLogger sets the renderer logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		signalScale: DefaultSignalScale,
		width:       6 * vg.Inch,
		height:      6 * vg.Inch,
		logger:      logger.Get().Named("plot"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the image name of a variable.
func FileName(variable string) string {
	return variable + ".png"
}

// Save draws f into path. The format follows the file extension.
func (r *Renderer) Save(ctx context.Context, path string, f Figure) error {
	if len(f.Backgrounds) == 0 && len(f.Signals) == 0 && f.Data == nil {
		return fmt.Errorf("%w: %s", ErrEmptyFigure, f.Variable)
	}

	p := hplot.New()
	p.X.Label.Text = f.Variable
	if l, ok := axisLabels[f.Variable]; ok {
		p.X.Label.Text = l
	}
	p.Y.Label.Text = "N_events"
	p.Legend.Top = true

	var bkgTotal float64
	if len(f.Backgrounds) > 0 {
		hs := make([]*hplot.H1D, len(f.Backgrounds))
		for i, s := range f.Backgrounds {
			h := hplot.NewH1D(s.Hist)
			h.FillColor = colorOf(s.Label)
			h.LineStyle.Width = 0
			h.Infos.Style = hplot.HInfoNone
			hs[i] = h
			bkgTotal += integral(s.Hist)
		}
		p.Add(hplot.NewHStack(hs))
		for i := len(hs) - 1; i >= 0; i-- {
			p.Legend.Add(f.Backgrounds[i].Label, hs[i])
		}
	}

	for _, s := range f.Signals {
		h := hplot.NewH1D(scaled(s.Hist, r.signalScale))
		h.FillColor = nil
		h.LineStyle.Color = colorOf(s.Label)
		h.LineStyle.Width = vg.Points(2)
		h.Infos.Style = hplot.HInfoNone
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (x%.1f)", s.Label, r.signalScale), h)
	}

	if f.Data != nil {
		// Data is normalised to the background sum, as in the reference plots.
		scale := 1.0
		if d := integral(f.Data.Hist); d > 0 && bkgTotal > 0 {
			scale = bkgTotal / d
		}
		h := hplot.NewH1D(scaled(f.Data.Hist, scale), hplot.WithYErrBars(true))
		h.FillColor = nil
		h.LineStyle.Width = 0
		h.GlyphStyle = draw.GlyphStyle{Shape: draw.CircleGlyph{}, Radius: vg.Points(2.5), Color: color.Black}
		h.Infos.Style = hplot.HInfoNone
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (x%.1f)", f.Data.Label, scale), h)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	if err := p.Save(r.width, r.height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	r.logger.Debug(ctx, "plot written", logger.String("path", path), logger.String("variable", f.Variable))
	return nil
}

func colorOf(label string) color.Color {
	if c, ok := Colors[label]; ok {
		return c
	}
	return fallbackColor
}

func integral(h *hbook.H1D) float64 {
	var sum float64
	for i := range h.Binning.Bins {
		sum += h.Binning.Bins[i].SumW()
	}
	return sum
}

// scaled returns a copy of h with every bin multiplied by f. Bin errors
// scale by |f|.
func scaled(h *hbook.H1D, f float64) *hbook.H1D {
	out := h.Clone()
	out.Scale(f)
	return out
}
