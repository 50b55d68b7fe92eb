package services

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/report-service/internal/models"
	"gorm.io/gorm"
)

// generateCceReports replaces the batch's CCE reports in four phases. The
// caller runs it inside one transaction so a failure in any phase leaves the
// previous reports untouched.
func (s *reportService) generateCceReports(ctx context.Context, tx *gorm.DB, batch *models.Batch, summary *RunSummary) error {
	cce := s.repo.Cce()

	deleted, err := cce.DeleteScholasticReports(ctx, tx, batch.ID)
	if err != nil {
		return err
	}
	summary.RowsDeleted += deleted

	scholastic, err := s.buildScholasticReports(ctx, tx, batch)
	if err != nil {
		return err
	}
	if err := cce.CreateReports(ctx, tx, scholastic); err != nil {
		return err
	}
	summary.ScholasticRows = len(scholastic)

	deleted, err = cce.DeleteCoScholasticReports(ctx, tx, batch.ID)
	if err != nil {
		return err
	}
	summary.RowsDeleted += deleted

	coScholastic, err := s.buildCoScholasticReports(ctx, tx, batch)
	if err != nil {
		return err
	}
	if err := cce.CreateReports(ctx, tx, coScholastic); err != nil {
		return err
	}
	summary.CoScholasticRows = len(coScholastic)
	return nil
}

// buildScholasticReports averages the grade points of every FA criteria per
// exam and student.
func (s *reportService) buildScholasticReports(ctx context.Context, tx *gorm.DB, batch *models.Batch) ([]*models.CceReport, error) {
	criterias, err := s.repo.Cce().FindFaCriteriasForBatch(ctx, tx, batch.ID)
	if err != nil {
		return nil, err
	}

	var reports []*models.CceReport
	for _, criteria := range criterias {
		scores, err := s.repo.Cce().FindAssessmentScores(ctx, tx, models.DescribableFaCriteria, criteria.ID, batch.ID, true)
		if err != nil {
			return nil, err
		}

		var examOrder []uint
		byExam := make(map[uint]*gradePointGroup)
		for _, score := range scores {
			examID := *score.ExamID
			group, ok := byExam[examID]
			if !ok {
				group = newGradePointGroup()
				byExam[examID] = group
				examOrder = append(examOrder, examID)
			}
			group.add(score.StudentID, score.GradePoints)
		}

		for _, examID := range examOrder {
			group := byExam[examID]
			for _, studentID := range group.order {
				reports = append(reports, &models.CceReport{
					BatchID:        batch.ID,
					StudentID:      studentID,
					ExamID:         &examID,
					ObservableID:   criteria.ID,
					ObservableType: models.DescribableFaCriteria,
					GradeString:    formatGradePoints(group.mean(studentID)),
				})
			}
		}
	}
	return reports, nil
}

// buildCoScholasticReports grades every observation of the course's
// observation groups per student through the group's grade set.
func (s *reportService) buildCoScholasticReports(ctx context.Context, tx *gorm.DB, batch *models.Batch) ([]*models.CceReport, error) {
	groups, err := s.repo.Cce().FindObservationGroupsForCourse(ctx, tx, batch.CourseID)
	if err != nil {
		return nil, err
	}

	var reports []*models.CceReport
	for _, og := range groups {
		for _, observation := range og.Observations {
			scores, err := s.repo.Cce().FindAssessmentScores(ctx, tx, models.DescribableObservation, observation.ID, batch.ID, false)
			if err != nil {
				return nil, err
			}

			byStudent := newGradePointGroup()
			for _, score := range scores {
				byStudent.add(score.StudentID, score.GradePoints)
			}

			for _, studentID := range byStudent.order {
				points := int(math.Round(byStudent.mean(studentID)))
				reports = append(reports, &models.CceReport{
					BatchID:        batch.ID,
					StudentID:      studentID,
					ObservableID:   observation.ID,
					ObservableType: models.DescribableObservation,
					GradeString:    og.CceGradeSet.GradeStringFor(points),
				})
			}
		}
	}
	return reports, nil
}

// gradePointGroup collects grade points per student in first seen order.
type gradePointGroup struct {
	order  []uint
	points map[uint][]float64
}

func newGradePointGroup() *gradePointGroup {
	return &gradePointGroup{points: make(map[uint][]float64)}
}

func (g *gradePointGroup) add(studentID uint, points float64) {
	if _, ok := g.points[studentID]; !ok {
		g.order = append(g.order, studentID)
	}
	g.points[studentID] = append(g.points[studentID], points)
}

func (g *gradePointGroup) mean(studentID uint) float64 {
	values := g.points[studentID]
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// formatGradePoints renders a mean grade point with the shortest exact
// decimal form, keeping one decimal for whole numbers ("3.0", "2.75").
func formatGradePoints(points float64) string {
	s := strconv.FormatFloat(points, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
