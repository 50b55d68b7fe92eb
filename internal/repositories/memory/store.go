// Package memory is an in-process implementation of the repositories used by
// tests and local runs without a database. Transactions are emulated with a
// snapshot of the derived tables that is restored when the callback fails.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

// Operations that can be made to fail with FailOn / FailAfter.
const (
	OpDeleteStudentReports      = "report.DeleteStudentReports"
	OpUpsertReport              = "report.UpsertReport"
	OpDeleteScholasticReports   = "cce.DeleteScholasticReports"
	OpDeleteCoScholasticReports = "cce.DeleteCoScholasticReports"
	OpCreateCceReports          = "cce.CreateReports"
	OpRecordRunMarker           = "configuration.RecordRunMarker"
	OpUpdateReportJob           = "reportJob.Update"
)

type failure struct {
	after int
	err   error
}

// Store holds every table in memory. The zero value is not usable; call
// NewStore.
type Store struct {
	mutex   sync.RWMutex
	txMutex sync.Mutex
	pkCount uint

	// Source data
	courses           map[uint]*models.Course
	batches           map[uint]*models.Batch
	students          map[uint]*models.Student
	batchStudents     []models.BatchStudent
	subjects          map[uint]*models.Subject
	studentsSubjects  []models.StudentsSubject
	examGroups        map[uint]*models.ExamGroup
	groupedExams      []models.GroupedExam
	exams             map[uint]*models.Exam
	scores            map[uint]*models.ExamScore
	gradingLevels     map[uint]*models.GradingLevel
	faGroupSubjects   map[uint][]uint // fa group id -> subject ids
	faCriterias       map[uint]*models.FaCriteria
	observationGroups map[uint]*models.ObservationGroup
	courseObsGroups   map[uint][]uint // course id -> observation group ids
	indicators        map[uint]*models.DescriptiveIndicator
	assessmentScores  map[uint]*models.AssessmentScore

	// Derived data, covered by transactions
	reports        map[uint]*models.GroupedExamReport
	cceReports     map[uint]*models.CceReport
	configurations map[string]*models.Configuration
	jobs           map[string]*models.ReportJob

	failures map[string]*failure

	batch         *batchRepository
	report        *reportRepository
	cce           *cceRepository
	configuration *configurationRepository
	reportJob     *reportJobRepository
}

func NewStore() *Store {
	s := &Store{
		courses:           make(map[uint]*models.Course),
		batches:           make(map[uint]*models.Batch),
		students:          make(map[uint]*models.Student),
		subjects:          make(map[uint]*models.Subject),
		examGroups:        make(map[uint]*models.ExamGroup),
		exams:             make(map[uint]*models.Exam),
		scores:            make(map[uint]*models.ExamScore),
		gradingLevels:     make(map[uint]*models.GradingLevel),
		faGroupSubjects:   make(map[uint][]uint),
		faCriterias:       make(map[uint]*models.FaCriteria),
		observationGroups: make(map[uint]*models.ObservationGroup),
		courseObsGroups:   make(map[uint][]uint),
		indicators:        make(map[uint]*models.DescriptiveIndicator),
		assessmentScores:  make(map[uint]*models.AssessmentScore),
		reports:           make(map[uint]*models.GroupedExamReport),
		cceReports:        make(map[uint]*models.CceReport),
		configurations:    make(map[string]*models.Configuration),
		jobs:              make(map[string]*models.ReportJob),
		failures:          make(map[string]*failure),
	}
	s.batch = &batchRepository{store: s}
	s.report = &reportRepository{store: s}
	s.cce = &cceRepository{store: s}
	s.configuration = &configurationRepository{store: s}
	s.reportJob = &reportJobRepository{store: s}
	return s
}

var _ repositories.Repository = (*Store)(nil)

func (s *Store) Batch() repositories.BatchRepository                 { return s.batch }
func (s *Store) Report() repositories.ReportRepository               { return s.report }
func (s *Store) Cce() repositories.CceRepository                     { return s.cce }
func (s *Store) Configuration() repositories.ConfigurationRepository { return s.configuration }
func (s *Store) ReportJob() repositories.ReportJobRepository         { return s.reportJob }

// Transaction serializes callers and restores the derived tables when fn
// returns an error or panics. fn always receives a nil *gorm.DB.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMutex.Lock()
	defer s.txMutex.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
	}()

	if err = fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// FailOn makes every call of op return err until ClearFailures.
func (s *Store) FailOn(op string, err error) {
	s.FailAfter(op, 0, err)
}

// FailAfter lets op succeed calls times and then fail with err.
func (s *Store) FailAfter(op string, calls int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failures[op] = &failure{after: calls, err: err}
}

func (s *Store) ClearFailures() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failures = make(map[string]*failure)
}

// fail must be called with the write lock held.
func (s *Store) fail(op string) error {
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.after > 0 {
		f.after--
		return nil
	}
	return fmt.Errorf("%s: %w", op, f.err)
}

func (s *Store) nextID() uint {
	s.pkCount++
	return s.pkCount
}

type snapshot struct {
	pkCount        uint
	reports        map[uint]*models.GroupedExamReport
	cceReports     map[uint]*models.CceReport
	configurations map[string]*models.Configuration
	jobs           map[string]*models.ReportJob
}

func (s *Store) snapshot() snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := snapshot{
		pkCount:        s.pkCount,
		reports:        make(map[uint]*models.GroupedExamReport, len(s.reports)),
		cceReports:     make(map[uint]*models.CceReport, len(s.cceReports)),
		configurations: make(map[string]*models.Configuration, len(s.configurations)),
		jobs:           make(map[string]*models.ReportJob, len(s.jobs)),
	}
	for id, r := range s.reports {
		c := *r
		snap.reports[id] = &c
	}
	for id, r := range s.cceReports {
		c := *r
		snap.cceReports[id] = &c
	}
	for key, cfg := range s.configurations {
		c := *cfg
		snap.configurations[key] = &c
	}
	for id, job := range s.jobs {
		c := *job
		snap.jobs[id] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pkCount = snap.pkCount
	s.reports = snap.reports
	s.cceReports = snap.cceReports
	s.configurations = snap.configurations
	s.jobs = snap.jobs
}

func sortedIDs[T any](table map[uint]T) []uint {
	ids := make([]uint, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
