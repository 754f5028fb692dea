package runner

// Stage is one step of the build pipeline. Expand is always the first (and
// only required) stage; later stages only run when everything before them
// succeeded.
type Stage int

const (
	StageExpand Stage = iota
	StageCheck
	StageRun
	StageRunTests
)

func (s Stage) String() string {
	switch s {
	case StageExpand:
		return "expand"
	case StageCheck:
		return "check"
	case StageRun:
		return "run"
	case StageRunTests:
		return "test"
	default:
		return "unknown"
	}
}

// Subcommand returns the cargo subcommand implementing the stage.
func (s Stage) Subcommand() string {
	return s.String()
}
