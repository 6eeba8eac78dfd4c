package histograms

const defaultBins = 30

// Binning is a uniform axis.
type Binning struct {
	Bins int     `koanf:"bins" yaml:"bins"`
	Min  float64 `koanf:"min" yaml:"min"`
	Max  float64 `koanf:"max" yaml:"max"`
}

// DefaultBinning returns the axis of every histogrammed output column.
func DefaultBinning() map[string]Binning {
	u := func(lo, hi float64) Binning { return Binning{Bins: defaultBins, Min: lo, Max: hi} }
	return map[string]Binning{
		"pt_1":    u(17, 70),
		"pt_2":    u(20, 70),
		"eta_1":   u(-2.1, 2.1),
		"eta_2":   u(-2.3, 2.3),
		"phi_1":   u(-3.14, 3.14),
		"phi_2":   u(-3.14, 3.14),
		"iso_1":   u(0, 0.10),
		"iso_2":   u(0, 0.10),
		"q_1":     {Bins: 2, Min: -2, Max: 2},
		"q_2":     {Bins: 2, Min: -2, Max: 2},
		"met":     u(0, 60),
		"met_phi": u(-3.14, 3.14),
		"m_1":     u(0, 0.2),
		"m_2":     u(0, 2),
		"mt_1":    u(0, 100),
		"mt_2":    u(0, 100),
		"dm_2":    {Bins: 11, Min: 0, Max: 11},
		"m_vis":   u(40, 140),
		"pt_vis":  u(0, 60),
		"jpt_1":   u(30, 70),
		"jpt_2":   u(30, 70),
		"jeta_1":  u(-4.7, 4.7),
		"jeta_2":  u(-4.7, 4.7),
		"jphi_1":  u(-3.14, 3.14),
		"jphi_2":  u(-3.14, 3.14),
		"jm_1":    u(0, 20),
		"jm_2":    u(0, 20),
		"jbtag_1": u(0, 1.0),
		"jbtag_2": u(0, 1.0),
		"npv":     {Bins: 25, Min: 5, Max: 30},
		"njets":   {Bins: 5, Min: 0, Max: 5},
		"mjj":     u(0, 400),
		"ptjj":    u(0, 100),
		"jdeta":   u(-9.4, 9.4),
	}
}

// Role is how a process enters the final plot.
type Role string

const (
	RoleSignal     Role = "signal"
	RoleBackground Role = "background"
	RoleData       Role = "data"
)

// Process maps one skimmed sample onto a histogram label.
type Process struct {
	Sample string `koanf:"sample" yaml:"sample"`
	Label  string `koanf:"label" yaml:"label"`
	Role   Role   `koanf:"role" yaml:"role"`
	// Group merges several labels into one plotted component. Empty means Label.
	Group string `koanf:"group" yaml:"group"`
}

// DefaultProcesses returns the Run2012 mu-tau process list.
func DefaultProcesses() []Process {
	return []Process{
		{Sample: "GluGluToHToTauTau", Label: "ggH", Role: RoleSignal},
		{Sample: "VBF_HToTauTau", Label: "qqH", Role: RoleSignal},
		{Sample: "W1JetsToLNu", Label: "W1J", Role: RoleBackground, Group: "W"},
		{Sample: "W2JetsToLNu", Label: "W2J", Role: RoleBackground, Group: "W"},
		{Sample: "W3JetsToLNu", Label: "W3J", Role: RoleBackground, Group: "W"},
		{Sample: "TTbar", Label: "TT", Role: RoleBackground},
		{Sample: "DYJetsToLL", Label: "ZLL", Role: RoleBackground},
		{Sample: "Run2012B_SingleMu", Label: "dataRunB", Role: RoleData},
		{Sample: "Run2012C_SingleMu", Label: "dataRunC", Role: RoleData},
	}
}

// GroupName returns the plotted component the process belongs to.
func (p Process) GroupName() string {
	if p.Group != "" {
		return p.Group
	}
	return p.Label
}
