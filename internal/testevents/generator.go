package testevents

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/okian/tauskim/internal/domain/model"
)

// Flag names written for each collection.
var (
	MuonFlags = []string{"tightId"}
	TauFlags  = []string{"idDecayMode", "idIsoTight", "idAntiEleTight", "idAntiMuTight"}
	JetFlags  = []string{"puId"}
)

const (
	muonMass = 0.105
	minPt    = 15.0
)

var tauDecayModes = []int32{0, 1, 10}

// Generator draws NanoAOD-shaped events.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator seeds a generator for one sample.
func NewGenerator(cfg Config, sample string) *Generator {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sample))
	return &Generator{cfg: cfg, rng: rand.New(rand.NewPCG(cfg.Seed, h.Sum64()))}
}

// Generate returns cfg.Events events.
func (g *Generator) Generate() []model.Event {
	events := make([]model.Event, g.cfg.Events)
	for i := range events {
		events[i] = g.event(int64(i))
	}
	return events
}

func (g *Generator) event(entry int64) model.Event {
	ev := model.Event{
		Entry:  entry,
		Run:    g.cfg.Run,
		NPV:    int32(5 + g.rng.IntN(25)),
		METPt:  float32(g.rng.ExpFloat64() * 20),
		METPhi: g.phi(),
		Muons:  g.collection(g.rng.IntN(g.cfg.MaxMuons+1), 30, 2.5, MuonFlags),
		Taus:   g.collection(g.rng.IntN(g.cfg.MaxTaus+1), 25, 2.5, TauFlags),
		Jets:   g.collection(g.rng.IntN(g.cfg.MaxJets+1), 30, 4.7, JetFlags),
	}
	if g.cfg.Trigger != "" {
		ev.Triggers = map[string]bool{g.cfg.Trigger: g.rng.Float64() < g.cfg.TriggerRate}
	}

	for i := range ev.Muons.Pt {
		ev.Muons.Mass[i] = muonMass
		ev.Muons.Iso[i] = float32(g.rng.Float64() * 0.3)
	}
	for i := range ev.Taus.Pt {
		ev.Taus.Mass[i] = float32(0.5 + g.rng.Float64()*1.3)
		ev.Taus.DecayMode[i] = tauDecayModes[g.rng.IntN(len(tauDecayModes))]
		ev.Taus.ChargedIso[i] = float32(g.rng.Float64() * 5)
		ev.Taus.NeutralIso[i] = float32(g.rng.Float64() * 5)
		ev.Taus.Iso[i] = (ev.Taus.ChargedIso[i] + ev.Taus.NeutralIso[i]) / ev.Taus.Pt[i]
		if g.rng.Float64() < 0.05 {
			ev.Taus.Charge[i] = 0
		}
	}
	for i := range ev.Jets.Pt {
		ev.Jets.Mass[i] = float32(2 + g.rng.Float64()*13)
		ev.Jets.BTag[i] = float32(g.rng.Float64())
	}
	return ev
}

func (g *Generator) collection(n int, ptScale, maxEta float64, flags []string) model.Collection {
	c := model.Collection{
		Pt:         make([]float32, n),
		Eta:        make([]float32, n),
		Phi:        make([]float32, n),
		Mass:       make([]float32, n),
		Charge:     make([]int32, n),
		DecayMode:  make([]int32, n),
		Iso:        make([]float32, n),
		ChargedIso: make([]float32, n),
		NeutralIso: make([]float32, n),
		BTag:       make([]float32, n),
		Flags:      make(map[string][]bool, len(flags)),
	}
	for _, f := range flags {
		c.Flags[f] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		c.Pt[i] = float32(minPt + g.rng.ExpFloat64()*ptScale)
		c.Eta[i] = float32((2*g.rng.Float64() - 1) * maxEta)
		c.Phi[i] = g.phi()
		c.Charge[i] = int32(1 - 2*g.rng.IntN(2))
		for _, f := range flags {
			c.Flags[f][i] = g.rng.Float64() < g.cfg.IDRate
		}
	}
	return c
}

func (g *Generator) phi() float32 {
	return float32((2*g.rng.Float64() - 1) * math.Pi)
}
