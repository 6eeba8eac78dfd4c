// Package variables computes the per-event output row of the skim.
package variables

import "sync"

// Sentinel marks a value that cannot be computed for the event.
const Sentinel float32 = -999

// Record is one output row. Field order follows Columns.
type Record struct {
	NJets int32
	NPV   int32

	Pt1  float32
	Eta1 float32
	Phi1 float32
	M1   float32
	Iso1 float32
	Q1   int32

	Pt2  float32
	Eta2 float32
	Phi2 float32
	M2   float32
	Iso2 float32
	Q2   int32
	DM2  int32

	JPt1   float32
	JEta1  float32
	JPhi1  float32
	JM1    float32
	JBTag1 float32

	JPt2   float32
	JEta2  float32
	JPhi2  float32
	JM2    float32
	JBTag2 float32

	MET    float32
	METPhi float32
	MT1    float32
	MT2    float32
	MVis   float32
	PtVis  float32
	Mjj    float32
	Ptjj   float32
	JDeta  float32

	Run    uint32
	Weight float32
}

// Column binds an output column name to its Record field.
type Column struct {
	Name string
	// Field returns a pointer to the column's field in r.
	Field func(r *Record) any
}

// Columns is the output schema in write order.
var Columns = []Column{
	{"njets", func(r *Record) any { return &r.NJets }},
	{"npv", func(r *Record) any { return &r.NPV }},
	{"pt_1", func(r *Record) any { return &r.Pt1 }},
	{"eta_1", func(r *Record) any { return &r.Eta1 }},
	{"phi_1", func(r *Record) any { return &r.Phi1 }},
	{"m_1", func(r *Record) any { return &r.M1 }},
	{"iso_1", func(r *Record) any { return &r.Iso1 }},
	{"q_1", func(r *Record) any { return &r.Q1 }},
	{"pt_2", func(r *Record) any { return &r.Pt2 }},
	{"eta_2", func(r *Record) any { return &r.Eta2 }},
	{"phi_2", func(r *Record) any { return &r.Phi2 }},
	{"m_2", func(r *Record) any { return &r.M2 }},
	{"iso_2", func(r *Record) any { return &r.Iso2 }},
	{"q_2", func(r *Record) any { return &r.Q2 }},
	{"dm_2", func(r *Record) any { return &r.DM2 }},
	{"jpt_1", func(r *Record) any { return &r.JPt1 }},
	{"jeta_1", func(r *Record) any { return &r.JEta1 }},
	{"jphi_1", func(r *Record) any { return &r.JPhi1 }},
	{"jm_1", func(r *Record) any { return &r.JM1 }},
	{"jbtag_1", func(r *Record) any { return &r.JBTag1 }},
	{"jpt_2", func(r *Record) any { return &r.JPt2 }},
	{"jeta_2", func(r *Record) any { return &r.JEta2 }},
	{"jphi_2", func(r *Record) any { return &r.JPhi2 }},
	{"jm_2", func(r *Record) any { return &r.JM2 }},
	{"jbtag_2", func(r *Record) any { return &r.JBTag2 }},
	{"met", func(r *Record) any { return &r.MET }},
	{"met_phi", func(r *Record) any { return &r.METPhi }},
	{"mt_1", func(r *Record) any { return &r.MT1 }},
	{"mt_2", func(r *Record) any { return &r.MT2 }},
	{"m_vis", func(r *Record) any { return &r.MVis }},
	{"pt_vis", func(r *Record) any { return &r.PtVis }},
	{"mjj", func(r *Record) any { return &r.Mjj }},
	{"ptjj", func(r *Record) any { return &r.Ptjj }},
	{"jdeta", func(r *Record) any { return &r.JDeta }},
	{"run", func(r *Record) any { return &r.Run }},
	{"weight", func(r *Record) any { return &r.Weight }},
}

var (
	indexOnce sync.Once
	index     map[string]int
)

func columnIndex() map[string]int {
	indexOnce.Do(func() {
		index = make(map[string]int, len(Columns))
		for i, c := range Columns {
			index[c.Name] = i
		}
	})
	return index
}

// HasColumn reports whether name is an output column.
func HasColumn(name string) bool {
	_, ok := columnIndex()[name]
	return ok
}

// Value returns the named column of r as float64.
func (r *Record) Value(name string) (float64, bool) {
	i, ok := columnIndex()[name]
	if !ok {
		return 0, false
	}
	switch v := Columns[i].Field(r).(type) {
	case *float32:
		return float64(*v), true
	case *int32:
		return float64(*v), true
	case *uint32:
		return float64(*v), true
	}
	return 0, false
}
