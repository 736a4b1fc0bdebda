package generator

// Artifact is the output produced for one item. The set of implementations
// is closed: TestEntries, ScenarioArtifact and Script.
type Artifact interface {
	isArtifact()
}

// TestEntries are the planned tests for one operation.
type TestEntries []TestEntry

// ScenarioArtifact is the planned scenario for one outline.
type ScenarioArtifact struct {
	Scenario Scenario
}

// Script is generated k6 code for one test or scenario.
type Script struct {
	Name string
	Code string
}

func (TestEntries) isArtifact()      {}
func (ScenarioArtifact) isArtifact() {}
func (Script) isArtifact()           {}

// Status is the outcome of one item.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of one item, keyed by its submission index.
type Result struct {
	Index    int
	Name     string
	Artifact Artifact
	Err      *Error
	Skipped  bool
}

// Status derives the outcome from Err and Skipped.
func (r Result) Status() Status {
	switch {
	case r.Err != nil:
		return StatusFailed
	case r.Skipped:
		return StatusSkipped
	default:
		return StatusSucceeded
	}
}

// Report summarizes a run.
type Report struct {
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
}

// Failures returns the failed results in submission order.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func newReport(results []Result) Report {
	rep := Report{Results: results}
	for _, res := range results {
		switch res.Status() {
		case StatusSucceeded:
			rep.Succeeded++
		case StatusFailed:
			rep.Failed++
		case StatusSkipped:
			rep.Skipped++
		}
	}
	return rep
}
