package runs

// OutputProgress is the derived completion state of a single output.
type OutputProgress struct {
	// Fraction is the completed share in [0,1]. Nil means the total
	// size cannot be resolved yet.
	Fraction *float64 `json:"fraction_complete"`
	// Complete is true iff Fraction is exactly 1.0.
	Complete bool `json:"complete"`
	// Bytes is the output's current storage footprint.
	Bytes int64 `json:"bytes"`
}

// Summary aggregates per-output progress for one run.
type Summary struct {
	Outputs map[string]OutputProgress `json:"outputs"`
	// AllComplete is the logical AND over every output's Complete flag.
	// A run with zero outputs is vacuously complete.
	AllComplete      bool `json:"all_complete"`
	TotalOutputs     int  `json:"total_outputs"`
	CompletedOutputs int  `json:"completed_outputs"`
}

// Counters is a live per-output progress snapshot supplied by a running
// execution, as opposed to the disk-derived OutputProgress.
type Counters struct {
	// NTotal is the number of units this output expects. Meaningful
	// only when TotalKnown is true.
	NTotal     int  `json:"n_total"`
	TotalKnown bool `json:"total_known"`
	NCompleted int  `json:"n_completed"`
	NFailed    int  `json:"n_failed"`
}

// Progress converts a live counter snapshot into the shared output model.
func (c Counters) Progress() OutputProgress {
	if !c.TotalKnown || c.NTotal <= 0 {
		return OutputProgress{}
	}
	fraction := float64(c.NCompleted) / float64(c.NTotal)
	return OutputProgress{
		Fraction: &fraction,
		Complete: c.NCompleted == c.NTotal,
	}
}

// NewSummary builds a Summary from already-inspected outputs.
func NewSummary(outputs map[string]OutputProgress) Summary {
	s := Summary{
		Outputs:      outputs,
		AllComplete:  true,
		TotalOutputs: len(outputs),
	}
	for _, p := range outputs {
		if p.Complete {
			s.CompletedOutputs++
		} else {
			s.AllComplete = false
		}
	}
	return s
}

// Summarize inspects every output named by the run descriptor and
// aggregates the results. It uses only persisted state.
func Summarize(runFolder string, meta *Metadata) (Summary, error) {
	outputs := make(map[string]OutputProgress, len(meta.Outputs))
	for name, desc := range meta.Outputs {
		p, err := InspectOutput(runFolder, desc)
		if err != nil {
			return Summary{}, err
		}
		outputs[name] = p
	}
	return NewSummary(outputs), nil
}
