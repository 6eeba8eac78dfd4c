package testevents

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/tauskim/internal/adapters/nanoaod"
	"github.com/okian/tauskim/internal/domain/model"
)

type collectionRow struct {
	n                  int32
	pt, eta, phi, mass []float32
	charge, decayMode  []int32
	iso, chIso, neIso  []float32
	btag               []float32
	flags              [][]bool
}

type eventRow struct {
	run     uint32
	npv     int32
	metPt   float32
	metPhi  float32
	trigger bool

	muons, taus, jets collectionRow
}

// Write stores events as a NanoAOD-style tree. Only the trigger and flag
// branches named by layout are written; every isolation column is written.
func Write(path, treeName string, events []model.Event, layout nanoaod.Layout) error {
	f, err := groot.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	var row eventRow
	wvars := []rtree.WriteVar{
		{Name: "run", Value: &row.run},
		{Name: "PV_npvs", Value: &row.npv},
		{Name: "MET_pt", Value: &row.metPt},
		{Name: "MET_phi", Value: &row.metPhi},
	}
	if layout.Trigger != "" {
		wvars = append(wvars, rtree.WriteVar{Name: layout.Trigger, Value: &row.trigger})
	}
	wvars = append(wvars, row.muons.vars("Muon", layout.MuonFlags,
		col{"charge", &row.muons.charge}, col{"pfRelIso03_all", &row.muons.iso})...)
	wvars = append(wvars, row.taus.vars("Tau", layout.TauFlags,
		col{"charge", &row.taus.charge}, col{"decayMode", &row.taus.decayMode},
		col{"relIso_all", &row.taus.iso}, col{"chargedIso", &row.taus.chIso}, col{"neutralIso", &row.taus.neIso})...)
	wvars = append(wvars, row.jets.vars("Jet", layout.JetFlags, col{"btag", &row.jets.btag})...)

	w, err := rtree.NewWriter(f, treeName, wvars)
	if err != nil {
		return fmt.Errorf("create tree %s: %w", treeName, err)
	}

	for i := range events {
		ev := &events[i]
		row.run = ev.Run
		row.npv = ev.NPV
		row.metPt = ev.METPt
		row.metPhi = ev.METPhi
		row.trigger = ev.Triggers[layout.Trigger]
		row.muons.fill(&ev.Muons, layout.MuonFlags)
		row.taus.fill(&ev.Taus, layout.TauFlags)
		row.jets.fill(&ev.Jets, layout.JetFlags)
		if _, err := w.Write(); err != nil {
			_ = w.Close()
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close tree: %w", err)
	}
	return f.Close()
}

type col struct {
	name string
	ptr  any
}

func (c *collectionRow) vars(kind string, flags []string, extra ...col) []rtree.WriteVar {
	count := "n" + kind
	vars := []rtree.WriteVar{
		{Name: count, Value: &c.n},
		{Name: kind + "_pt", Value: &c.pt, Count: count},
		{Name: kind + "_eta", Value: &c.eta, Count: count},
		{Name: kind + "_phi", Value: &c.phi, Count: count},
		{Name: kind + "_mass", Value: &c.mass, Count: count},
	}
	for _, e := range extra {
		vars = append(vars, rtree.WriteVar{Name: kind + "_" + e.name, Value: e.ptr, Count: count})
	}
	c.flags = make([][]bool, len(flags))
	for i, f := range flags {
		vars = append(vars, rtree.WriteVar{Name: kind + "_" + f, Value: &c.flags[i], Count: count})
	}
	return vars
}

func (c *collectionRow) fill(src *model.Collection, flags []string) {
	n := src.Len()
	c.n = int32(n)
	c.pt = src.Pt
	c.eta = src.Eta
	c.phi = src.Phi
	c.mass = pad(src.Mass, n)
	c.charge = pad(src.Charge, n)
	c.decayMode = pad(src.DecayMode, n)
	c.iso = pad(src.Iso, n)
	c.chIso = pad(src.ChargedIso, n)
	c.neIso = pad(src.NeutralIso, n)
	c.btag = pad(src.BTag, n)
	for i, f := range flags {
		c.flags[i] = pad(src.Flag(f), n)
	}
}

// pad returns s when it has n entries and a zero-filled column otherwise.
func pad[T any](s []T, n int) []T {
	if len(s) == n {
		return s
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
