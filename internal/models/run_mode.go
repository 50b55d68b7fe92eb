package models

import "fmt"

// RunMode selects which report generation a batch job performs.
type RunMode int

const (
	RunModeContinuousEvaluation RunMode = iota
	RunModeCurrentCohort
	RunModeArchivedCohort
)

// Job type codes carried by report jobs. Any other code, including the
// empty string, selects continuous evaluation.
const (
	JobTypeCurrentCohort  = "1"
	JobTypeArchivedCohort = "2"
	JobTypeCCE            = "3"
)

// ParseRunMode maps a job type code onto a run mode.
func ParseRunMode(jobType string) RunMode {
	switch jobType {
	case JobTypeCurrentCohort:
		return RunModeCurrentCohort
	case JobTypeArchivedCohort:
		return RunModeArchivedCohort
	default:
		return RunModeContinuousEvaluation
	}
}

func (m RunMode) String() string {
	switch m {
	case RunModeCurrentCohort:
		return "current_cohort"
	case RunModeArchivedCohort:
		return "archived_cohort"
	default:
		return "continuous_evaluation"
	}
}

// MarkerKey is the configuration key under which the completion time of a
// run is stored for the given job type code.
func MarkerKey(jobType string) string {
	return fmt.Sprintf("job/%s/%s", JobObjectBatch, jobType)
}
