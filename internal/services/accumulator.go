package services

type subjectKey struct {
	studentID uint
	subjectID uint
}

type examGroupKey struct {
	studentID   uint
	examGroupID uint
}

type examGroupValues struct {
	raw          []float64
	denominators []float64
}

// cohortAccumulator collects per exam contributions of a cohort run. Keys
// are iterated in first insertion order so writes are deterministic.
type cohortAccumulator struct {
	subjectOrder []subjectKey
	subjects     map[subjectKey][]float64

	groupOrder []examGroupKey
	groups     map[examGroupKey]*examGroupValues

	studentOrder []uint
	cohort       map[uint][]float64
}

func newCohortAccumulator() *cohortAccumulator {
	return &cohortAccumulator{
		subjects: make(map[subjectKey][]float64),
		groups:   make(map[examGroupKey]*examGroupValues),
		cohort:   make(map[uint][]float64),
	}
}

func (a *cohortAccumulator) empty() bool {
	return len(a.subjectOrder) == 0 && len(a.groupOrder) == 0
}

func (a *cohortAccumulator) addSubject(studentID, subjectID uint, percentage float64) {
	key := subjectKey{studentID: studentID, subjectID: subjectID}
	if _, ok := a.subjects[key]; !ok {
		a.subjectOrder = append(a.subjectOrder, key)
	}
	a.subjects[key] = append(a.subjects[key], percentage)
}

func (a *cohortAccumulator) addExamGroup(studentID, examGroupID uint, raw, denominator float64) {
	key := examGroupKey{studentID: studentID, examGroupID: examGroupID}
	values, ok := a.groups[key]
	if !ok {
		values = &examGroupValues{}
		a.groups[key] = values
		a.groupOrder = append(a.groupOrder, key)
	}
	values.raw = append(values.raw, raw)
	values.denominators = append(values.denominators, denominator)
}

func (a *cohortAccumulator) addCohort(studentID uint, contribution float64) {
	if _, ok := a.cohort[studentID]; !ok {
		a.studentOrder = append(a.studentOrder, studentID)
	}
	a.cohort[studentID] = append(a.cohort[studentID], contribution)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
