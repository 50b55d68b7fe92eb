package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportBatchReport(t *testing.T) {
	ctx := context.Background()
	f := newBatchFixture(t, nil)
	asha := f.student("Asha")
	bo := f.student("Bo")
	maths := f.subject("Maths", nil)
	music := f.electiveSubject("Music")
	term := f.examGroup("Term 1", 100)
	mathsExam := f.exam(term, maths, 100)
	f.marks(mathsExam, asha, 80)
	f.marks(mathsExam, bo, 90)
	f.exam(term, music, 100)

	reports := f.service()
	_, err := reports.Run(ctx, f.batch.ID, models.JobTypeCurrentCohort)
	require.NoError(t, err)

	data, err := NewExportService(f.store, reports, testLogger()).ExportBatchReport(ctx, f.batch.ID)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	assert.Equal(t, []string{SheetSubjects, SheetExamGroups, SheetOverall}, workbook.GetSheetList())
	overall, err := workbook.GetSheetIndex(SheetOverall)
	require.NoError(t, err)
	assert.Equal(t, overall, workbook.GetActiveSheetIndex())

	subjects, err := workbook.GetRows(SheetSubjects)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, []string{"Admission No", "Student", "Maths", "Music"}, subjects[0])
	assert.Equal(t, []string{"ADM-Asha", "Asha", "80"}, subjects[1]) // no elective assignment, no Music cell
	assert.Equal(t, []string{"ADM-Bo", "Bo", "90"}, subjects[2])

	groups, err := workbook.GetRows(SheetExamGroups)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admission No", "Student", "Term 1"}, groups[0])
	assert.Equal(t, []string{"ADM-Asha", "Asha", "80"}, groups[1])

	ranking, err := workbook.GetRows(SheetOverall)
	require.NoError(t, err)
	require.Len(t, ranking, 3)
	assert.Equal(t, []string{"Rank", "Admission No", "Student", "Total"}, ranking[0])
	assert.Equal(t, []string{"1", "ADM-Bo", "Bo", "90"}, ranking[1])
	assert.Equal(t, []string{"2", "ADM-Asha", "Asha", "80"}, ranking[2])
}

func TestExportBatchReport_BatchNotFound(t *testing.T) {
	f := newBatchFixture(t, nil)
	_, err := NewExportService(f.store, f.service(), testLogger()).ExportBatchReport(context.Background(), f.batch.ID+1)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}
