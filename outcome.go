package expandtest

// FileStatus is the aggregate verdict for one test file across all of its
// pipeline stages and snapshot artifacts.
type FileStatus int

const (
	// FilePass: expectation met, every snapshot matched.
	FilePass FileStatus = iota

	// FileUpdated: expectation met, at least one snapshot was written in
	// overwrite mode. Counts as passing.
	FileUpdated

	// FileMissing: expectation met but a required snapshot does not exist
	// and the run was not allowed to write it. Fails the suite.
	FileMissing

	// FileFail: expectation diverged, a snapshot mismatched, a stale
	// artifact was found, or the tool could not be invoked.
	FileFail
)

func (s FileStatus) String() string {
	switch s {
	case FilePass:
		return "pass"
	case FileUpdated:
		return "updated"
	case FileMissing:
		return "missing"
	case FileFail:
		return "fail"
	default:
		return "unknown"
	}
}

// SuiteOutcome tallies file statuses for one executed suite.
type SuiteOutcome struct {
	Pass    int
	Fail    int
	Updated int
	Missing int

	// Failures lists the paths of files counted under Fail or Missing.
	Failures []string
}

func (o *SuiteOutcome) record(path string, status FileStatus) {
	switch status {
	case FilePass:
		o.Pass++
	case FileUpdated:
		o.Updated++
	case FileMissing:
		o.Missing++
		o.Failures = append(o.Failures, path)
	case FileFail:
		o.Fail++
		o.Failures = append(o.Failures, path)
	}
}

// Failed reports whether the suite as a whole must fail the invoking test.
func (o SuiteOutcome) Failed() bool {
	return o.Fail > 0 || o.Missing > 0
}

// Files returns the total number of files the suite evaluated.
func (o SuiteOutcome) Files() int {
	return o.Pass + o.Fail + o.Updated + o.Missing
}
