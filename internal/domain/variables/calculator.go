package variables

import (
	"github.com/okian/tauskim/internal/domain/kinematics"
	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/domain/selection"
)

// GetFirst returns attr at the first true index of mask, or Sentinel.
func GetFirst(attr []float32, mask selection.Mask) float32 {
	return at(attr, selection.Index(mask, 0))
}

// GetSecond returns attr at the second true index of mask, or Sentinel.
func GetSecond(attr []float32, mask selection.Mask) float32 {
	return at(attr, selection.Index(mask, 1))
}

func at(attr []float32, i int) float32 {
	if i < 0 || i >= len(attr) {
		return Sentinel
	}
	return attr[i]
}

// Calculator derives the output row for an event with a valid pair.
type Calculator struct {
	Jets selection.Cuts
}

// Compute fills every column except Weight. The pair's First indexes the
// muons and Second the taus; iso2 is the tau isolation the pair was chosen
// with. Compute must not be called with an invalid pair, nor with collections
// lacking the mass, charge, isolation, decay mode or b-tag columns it reads.
func (c Calculator) Compute(ev *model.Event, p pairing.Pair, iso2 float32) Record {
	mu, tau := &ev.Muons, &ev.Taus
	i, j := p.First, p.Second

	r := Record{
		NPV: ev.NPV,
		Run: ev.Run,

		Pt1:  mu.Pt[i],
		Eta1: mu.Eta[i],
		Phi1: mu.Phi[i],
		M1:   mu.Mass[i],
		Iso1: mu.Iso[i],
		Q1:   mu.Charge[i],

		Pt2:  tau.Pt[j],
		Eta2: tau.Eta[j],
		Phi2: tau.Phi[j],
		M2:   tau.Mass[j],
		Iso2: iso2,
		Q2:   tau.Charge[j],
		DM2:  tau.DecayMode[j],

		MET:    ev.METPt,
		METPhi: ev.METPhi,
	}

	vis := kinematics.Sum(
		float64(r.Pt1), float64(r.Eta1), float64(r.Phi1), float64(r.M1),
		float64(r.Pt2), float64(r.Eta2), float64(r.Phi2), float64(r.M2),
	)
	r.MVis = float32(vis.M())
	r.PtVis = float32(vis.Pt())
	r.MT1 = float32(kinematics.TransverseMass(float64(r.Pt1), float64(r.Phi1), float64(r.MET), float64(r.METPhi)))
	r.MT2 = float32(kinematics.TransverseMass(float64(r.Pt2), float64(r.Phi2), float64(r.MET), float64(r.METPhi)))

	c.fillJets(&r, &ev.Jets)
	return r
}

func (c Calculator) fillJets(r *Record, jets *model.Collection) {
	mask := c.Jets.Mask(jets)
	r.NJets = int32(selection.Count(mask))

	r.JPt1 = GetFirst(jets.Pt, mask)
	r.JEta1 = GetFirst(jets.Eta, mask)
	r.JPhi1 = GetFirst(jets.Phi, mask)
	r.JM1 = GetFirst(jets.Mass, mask)
	r.JBTag1 = GetFirst(jets.BTag, mask)

	r.JPt2 = GetSecond(jets.Pt, mask)
	r.JEta2 = GetSecond(jets.Eta, mask)
	r.JPhi2 = GetSecond(jets.Phi, mask)
	r.JM2 = GetSecond(jets.Mass, mask)
	r.JBTag2 = GetSecond(jets.BTag, mask)

	if r.NJets < 2 {
		r.Mjj, r.Ptjj, r.JDeta = Sentinel, Sentinel, Sentinel
		return
	}
	jj := kinematics.Sum(
		float64(r.JPt1), float64(r.JEta1), float64(r.JPhi1), float64(r.JM1),
		float64(r.JPt2), float64(r.JEta2), float64(r.JPhi2), float64(r.JM2),
	)
	r.Mjj = float32(jj.M())
	r.Ptjj = float32(jj.Pt())
	r.JDeta = r.JEta1 - r.JEta2
}
