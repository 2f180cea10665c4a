package gridbin

import "fmt"

// CutterKind identifies which cutter family a Result belongs to.
type CutterKind string

const (
	CutterMagnet CutterKind = "magnet"
	CutterPocket CutterKind = "pocket"
	CutterFinger CutterKind = "finger_hole"
	CutterText   CutterKind = "text_label"
)

// Result records the outcome of building one cutter. Failed cutters are
// skipped, never fatal; the batch continues without them.
type Result struct {
	Kind CutterKind
	// ID names the source entity: polygon id, finger hole id or label text.
	ID       string
	Built    bool
	Repaired bool // pocket only: ring needed self-intersection repair
	Opened   bool // pocket only: morphological open applied
	Err      error
}

func (r Result) String() string {
	status := "ok"
	if !r.Built {
		status = "dropped"
	}
	if r.Err != nil {
		return fmt.Sprintf("%s %q: %s (%v)", r.Kind, r.ID, status, r.Err)
	}
	return fmt.Sprintf("%s %q: %s", r.Kind, r.ID, status)
}

// Report collects per-cutter results for a generation run. It is
// surfaced to the caller as non-fatal warnings.
type Report struct {
	Results []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Dropped returns the results for cutters that did not build.
func (r *Report) Dropped() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Built {
			out = append(out, res)
		}
	}
	return out
}

// Warnings renders dropped cutters as strings for logging or API payloads.
func (r *Report) Warnings() []string {
	var out []string
	for _, res := range r.Dropped() {
		out = append(out, res.String())
	}
	return out
}
