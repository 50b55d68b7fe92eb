package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories/memory"
	"github.com/SAP-F-2025/report-service/internal/services"
	"github.com/SAP-F-2025/report-service/internal/utils"
	"github.com/SAP-F-2025/report-service/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t         *testing.T
	router    *gin.Engine
	manager   services.ServiceManager
	publisher *events.MockEventPublisher
	batch     models.Batch
}

// newTestServer wires the full router over an in-memory store seeded with
// one batch of two scored students.
func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	logger := utils.NewDiscardLogger()

	store := memory.NewStore()
	course := store.AddCourse(models.Course{CourseName: "Grade 8", Code: "G8"})
	batch := store.AddBatch(models.Batch{Name: "2026 A", CourseID: course.ID, IsActive: true})
	asha := store.AddStudent(models.Student{BatchID: batch.ID, FirstName: "Asha", AdmissionNo: "ADM-1"})
	bo := store.AddStudent(models.Student{BatchID: batch.ID, FirstName: "Bo", AdmissionNo: "ADM-2"})
	maths := store.AddSubject(models.Subject{BatchID: batch.ID, Name: "Maths"})
	group := store.AddExamGroup(models.ExamGroup{BatchID: batch.ID, Name: "Term 1", Weightage: 100})
	store.LinkExamGroup(batch.ID, group.ID, 100)
	exam := store.AddExam(models.Exam{ExamGroupID: group.ID, SubjectID: maths.ID, MaximumMarks: 100})
	for student, marks := range map[uint]float64{asha.ID: 70, bo.ID: 90} {
		m := marks
		store.AddScore(models.ExamScore{ExamID: exam.ID, StudentID: student, Marks: &m})
	}

	publisher := events.NewMockEventPublisher(logger.Slog())
	manager := services.NewServiceManager(store, cache.NewMemoryCache(), cache.NewMemoryRunLocker(), publisher, validator.New(),
		services.ServiceManagerConfig{
			Reports: services.ReportServiceConfig{RankingCacheTTL: time.Minute},
			Jobs:    services.ReportJobServiceConfig{LockTTL: time.Minute},
		}, logger.Slog())

	router := gin.New()
	router.Use(utils.RequestID())
	NewHandlerManager(manager, logger).SetupRoutes(router)

	return &testServer{t: t, router: router, manager: manager, publisher: publisher, batch: batch}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// runJob enqueues and processes a job so report rows exist.
func (s *testServer) runJob(jobType string) *models.ReportJob {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/report-jobs", map[string]interface{}{"batch_id": s.batch.ID, "job_type": jobType})
	require.Equal(s.t, http.StatusAccepted, w.Code, w.Body.String())

	var job models.ReportJob
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &job))
	processed, err := s.manager.ReportJobs().Process(testContext(s.t), services.ReportJobMessage{JobID: job.ID})
	require.NoError(s.t, err)
	return processed
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "report-service", body["service"])
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestEnqueueJob(t *testing.T) {
	s := newTestServer(t)

	t.Run("accepted", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/report-jobs", map[string]interface{}{
			"batch_id": s.batch.ID,
			"job_type": models.JobTypeCurrentCohort,
			"trigger":  "schedule",
		})
		require.Equal(t, http.StatusAccepted, w.Code)
		job := decode[models.ReportJob](t, w)
		assert.Equal(t, models.ReportJobQueued, job.Status)
		assert.Equal(t, services.TriggerAPI, job.Trigger)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/report-jobs", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid job type", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/report-jobs", map[string]interface{}{"batch_id": s.batch.ID, "job_type": "7"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown batch", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/report-jobs", map[string]interface{}{"batch_id": s.batch.ID + 100, "job_type": "1"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("broker down", func(t *testing.T) {
		s.publisher.Err = assert.AnError
		defer func() { s.publisher.Err = nil }()
		w := s.do(http.MethodPost, "/api/v1/report-jobs", map[string]interface{}{"batch_id": s.batch.ID, "job_type": "1"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGetAndListJobs(t *testing.T) {
	s := newTestServer(t)
	job := s.runJob(models.JobTypeCurrentCohort)

	w := s.do(http.MethodGet, "/api/v1/report-jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportJobCompleted, decode[models.ReportJob](t, w).Status)

	w = s.do(http.MethodGet, "/api/v1/report-jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/report-jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[services.ReportJobListResponse](t, w)
	assert.Equal(t, int64(1), list.Total)

	w = s.do(http.MethodGet, "/api/v1/report-jobs?status=paused", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/report-jobs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMarkers(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/report-jobs/markers?job_type=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.runJob(models.JobTypeCurrentCohort)

	w = s.do(http.MethodGet, "/api/v1/report-jobs/markers?job_type=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MarkerKey(models.JobTypeCurrentCohort), decode[models.Configuration](t, w).ConfigKey)

	w = s.do(http.MethodGet, "/api/v1/report-jobs/markers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Configuration](t, w), 1)
}

func TestGetReports(t *testing.T) {
	s := newTestServer(t)
	s.runJob(models.JobTypeCurrentCohort)
	base := fmt.Sprintf("/api/v1/batches/%d", s.batch.ID)

	w := s.do(http.MethodGet, base+"/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.GroupedExamReport](t, w), 6)

	w = s.do(http.MethodGet, base+"/reports?score_type=c", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.GroupedExamReport](t, w), 2)

	w = s.do(http.MethodGet, base+"/reports?score_type=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/batches/0/reports", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/batches/999/reports", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, base+"/cce-reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.CceReport](t, w))
}

func TestGetRanking(t *testing.T) {
	s := newTestServer(t)
	s.runJob(models.JobTypeCurrentCohort)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/batches/%d/ranking", s.batch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	ranking := decode[[]services.RankEntry](t, w)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Bo", ranking[0].StudentName)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.InDelta(t, 90.0, ranking[0].Marks, 1e-9)
	assert.Equal(t, 2, ranking[1].Rank)
}

func TestExportReports(t *testing.T) {
	s := newTestServer(t)
	s.runJob(models.JobTypeCurrentCohort)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/batches/%d/reports/export", s.batch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("batch_%d_reports.xlsx", s.batch.ID))
	assert.NotZero(t, w.Body.Len())
}

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
