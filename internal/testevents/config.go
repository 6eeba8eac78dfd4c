package testevents

// Config holds configuration for synthetic sample generation.
type Config struct {
	// Events is the number of events written per sample.
	Events int
	// Seed makes generation reproducible; each sample mixes in its name.
	Seed uint64
	// Run is stamped on every event.
	Run uint32
	// Trigger is the trigger branch written for every event.
	Trigger string
	// TriggerRate is the probability the trigger fired.
	TriggerRate float64
	// IDRate is the probability each identification flag is true.
	IDRate float64
	// MaxMuons, MaxTaus and MaxJets bound the collection sizes.
	MaxMuons int
	MaxTaus  int
	MaxJets  int
}

// DefaultConfig returns a configuration yielding a useful fraction of
// selected mu-tau events.
func DefaultConfig() Config {
	return Config{
		Events:      10_000,
		Seed:        1,
		Run:         1,
		Trigger:     "HLT_IsoMu17_eta2p1_LooseIsoPFTau20",
		TriggerRate: 0.9,
		IDRate:      0.85,
		MaxMuons:    3,
		MaxTaus:     3,
		MaxJets:     5,
	}
}
