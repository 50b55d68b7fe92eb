package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSubjects   = "Subjects"
	SheetExamGroups = "Exam Groups"
	SheetOverall    = "Overall"
)

// ExportService renders batch reports as spreadsheets.
type ExportService interface {
	ExportBatchReport(ctx context.Context, batchID uint) ([]byte, error)
}

type exportService struct {
	repo    repositories.Repository
	reports ReportService
	logger  *slog.Logger
}

func NewExportService(repo repositories.Repository, reports ReportService, logger *slog.Logger) ExportService {
	return &exportService{
		repo:    repo,
		reports: reports,
		logger:  logger,
	}
}

// ExportBatchReport writes one workbook with the subject, exam group and
// overall scores of the batch's current students.
func (s *exportService) ExportBatchReport(ctx context.Context, batchID uint) ([]byte, error) {
	reports, err := s.reports.GetReports(ctx, batchID, nil)
	if err != nil {
		return nil, err
	}
	ranking, err := s.reports.BatchRanking(ctx, batchID)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Batch().ListStudents(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	subjects, err := s.repo.Report().FindSubjectsForBatch(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	groups, err := s.repo.Report().FindExamGroupsLinkedToBatch(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam groups: %w", err)
	}

	subjectMarks := make(map[subjectKey]float64)
	groupMarks := make(map[examGroupKey]float64)
	for _, r := range reports {
		switch {
		case r.ScoreType == models.ScoreTypeSubject && r.SubjectID != nil:
			subjectMarks[subjectKey{studentID: r.StudentID, subjectID: *r.SubjectID}] = r.Marks
		case r.ScoreType == models.ScoreTypeExamGroup && r.ExamGroupID != nil:
			groupMarks[examGroupKey{studentID: r.StudentID, examGroupID: *r.ExamGroupID}] = r.Marks
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSubjects); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	subjectHeaders := make([]string, len(subjects))
	for i, subject := range subjects {
		subjectHeaders[i] = subject.Name
	}
	if err := writeScoreSheet(f, SheetSubjects, students, subjectHeaders, func(student *models.Student, col int) (float64, bool) {
		v, ok := subjectMarks[subjectKey{studentID: student.ID, subjectID: subjects[col].ID}]
		return v, ok
	}); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetExamGroups); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	groupHeaders := make([]string, len(groups))
	for i, group := range groups {
		groupHeaders[i] = group.Name
	}
	if err := writeScoreSheet(f, SheetExamGroups, students, groupHeaders, func(student *models.Student, col int) (float64, bool) {
		v, ok := groupMarks[examGroupKey{studentID: student.ID, examGroupID: groups[col].ID}]
		return v, ok
	}); err != nil {
		return nil, err
	}

	index, err := f.NewSheet(SheetOverall)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeRankingSheet(f, SheetOverall, ranking); err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported batch report", "batch_id", batchID, "students", len(students), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// writeScoreSheet writes one row per student with a column per header. Cells
// without a report stay empty.
func writeScoreSheet(f *excelize.File, sheet string, students []*models.Student, headers []string, value func(*models.Student, int) (float64, bool)) error {
	row := []interface{}{"Admission No", "Student"}
	for _, header := range headers {
		row = append(row, header)
	}
	if err := writeRow(f, sheet, 1, row); err != nil {
		return err
	}

	for i, student := range students {
		row := []interface{}{student.AdmissionNo, student.FullName()}
		for col := range headers {
			if v, ok := value(student, col); ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRankingSheet(f *excelize.File, sheet string, ranking []RankEntry) error {
	if err := writeRow(f, sheet, 1, []interface{}{"Rank", "Admission No", "Student", "Total"}); err != nil {
		return err
	}
	for i, entry := range ranking {
		if err := writeRow(f, sheet, i+2, []interface{}{entry.Rank, entry.AdmissionNo, entry.StudentName, entry.Marks}); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("invalid cell reference: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
