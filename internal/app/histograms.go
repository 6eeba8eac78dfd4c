package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/tauskim/internal/adapters/histfile"
	"github.com/okian/tauskim/internal/adapters/plot"
	"github.com/okian/tauskim/internal/adapters/skimfile"
	"github.com/okian/tauskim/internal/domain/histograms"
	"github.com/okian/tauskim/internal/domain/variables"
	"github.com/okian/tauskim/pkg/logger"
)

// DataLabel names the merged data set in plots.
const DataLabel = "data"

// HistogramReport summarises the histogram stage.
type HistogramReport struct {
	Output string
	// Filled counts rows accepted per process label.
	Filled map[string]int
	Plots  []string
}

// Histograms books every configured process from its skim, estimates QCD
// and writes the histogram file. When plotDir is not empty one image per
// variable is rendered there as well.
func (s *Service) Histograms(ctx context.Context, plotDir string) (HistogramReport, error) {
	hc := s.cfg.Histograms
	rep := HistogramReport{Output: hc.Output, Filled: make(map[string]int)}

	booker, err := histograms.NewBooker(hc.Binning, hc.Baseline)
	if err != nil {
		return rep, err
	}

	// Every skim must exist before anything is booked.
	for _, p := range hc.Processes {
		path := skimfile.Path(s.cfg.OutputDir, p.Sample)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return rep, fmt.Errorf("%w: %s for %s", ErrMissingSkim, path, p.Label)
			}
			return rep, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	var (
		all              []*histograms.Set
		data, background []*histograms.Set
		byLabel          = make(map[string]*histograms.Set)
	)
	for _, p := range hc.Processes {
		set := booker.NewSet(p.Label)
		path := skimfile.Path(s.cfg.OutputDir, p.Sample)
		err := skimfile.Read(ctx, path, s.cfg.TreeName, func(r *variables.Record) error {
			set.Fill(r)
			return nil
		})
		if err != nil {
			return rep, fmt.Errorf("book %s: %w", p.Label, err)
		}
		rep.Filled[p.Label] = set.Filled()
		s.logger.Info(ctx, "process booked",
			logger.String("label", p.Label),
			logger.String("sample", p.Sample),
			logger.Int("rows", set.Filled()),
		)

		all = append(all, set)
		byLabel[p.Label] = set
		switch p.Role {
		case histograms.RoleData:
			data = append(data, set)
		case histograms.RoleBackground:
			background = append(background, set)
		}
	}

	qcd := booker.EstimateQCD(data, background)
	all = append(all, qcd)
	if err := histfile.Write(hc.Output, all...); err != nil {
		return rep, err
	}
	s.logger.Info(ctx, "histograms written", logger.String("output", hc.Output), logger.Int("sets", len(all)))

	if plotDir == "" {
		return rep, nil
	}
	plots, err := s.plot(ctx, plotDir, booker, hc.Processes, byLabel, qcd, data)
	rep.Plots = plots
	return rep, err
}

type group struct {
	name string
	sets []*histograms.Set
}

// groupsOf collects the sets of role into plotted components, keeping the
// order in which each group first appears.
func groupsOf(processes []histograms.Process, role histograms.Role, byLabel map[string]*histograms.Set) []*group {
	var (
		out   []*group
		index = make(map[string]*group)
	)
	for _, p := range processes {
		if p.Role != role {
			continue
		}
		name := p.GroupName()
		g, ok := index[name]
		if !ok {
			g = &group{name: name}
			index[name] = g
			out = append(out, g)
		}
		g.sets = append(g.sets, byLabel[p.Label])
	}
	return out
}

func (s *Service) plot(ctx context.Context, dir string, booker *histograms.Booker, processes []histograms.Process, byLabel map[string]*histograms.Set, qcd *histograms.Set, data []*histograms.Set) ([]string, error) {
	merge := func(groups []*group) []*histograms.Set {
		out := make([]*histograms.Set, len(groups))
		for i, g := range groups {
			out[i] = booker.Merge(g.name, g.sets...)
		}
		return out
	}
	backgrounds := append(merge(groupsOf(processes, histograms.RoleBackground, byLabel)), qcd)
	signals := merge(groupsOf(processes, histograms.RoleSignal, byLabel))
	var merged *histograms.Set
	if len(data) > 0 {
		merged = booker.Merge(DataLabel, data...)
	}

	r := plot.New(plot.WithLogger(s.logger.Named("plot")))
	var paths []string
	for _, v := range booker.Variables() {
		fig := plot.Figure{Variable: v}
		for _, b := range backgrounds {
			fig.Backgrounds = append(fig.Backgrounds, plot.Series{Label: b.Label, Hist: b.Hist(v, histograms.SignalRegion)})
		}
		for _, sg := range signals {
			fig.Signals = append(fig.Signals, plot.Series{Label: sg.Label, Hist: sg.Hist(v, histograms.SignalRegion)})
		}
		if merged != nil {
			fig.Data = &plot.Series{Label: DataLabel, Hist: merged.Hist(v, histograms.SignalRegion)}
		}

		path := filepath.Join(dir, plot.FileName(v))
		if err := r.Save(ctx, path, fig); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	s.logger.Info(ctx, "plots written", logger.String("dir", dir), logger.Int("plots", len(paths)))
	return paths, nil
}
