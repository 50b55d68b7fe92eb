package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/models"
)

// BatchRanking ranks the current students of a batch by their cohort score.
// Equal scores share a rank and ranks are dense.
func (s *reportService) BatchRanking(ctx context.Context, batchID uint) ([]RankEntry, error) {
	key := cache.RankingKey(batchID)
	if s.cache != nil {
		var cached []RankEntry
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !isCacheMiss(err) {
			s.logger.Warn("Failed to read cached ranking", "batch_id", batchID, "error", err)
		}
	}

	if _, err := s.getBatch(ctx, batchID); err != nil {
		return nil, err
	}

	students, err := s.repo.Batch().ListStudents(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	cohort := models.ScoreTypeCohort
	reports, err := s.repo.Report().ListReports(ctx, nil, batchID, &cohort)
	if err != nil {
		return nil, fmt.Errorf("failed to list cohort reports: %w", err)
	}

	ranking := rankStudents(students, reports)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ranking, s.config.RankingCacheTTL); err != nil {
			s.logger.Warn("Failed to cache ranking", "batch_id", batchID, "error", err)
		}
	}
	return ranking, nil
}

func rankStudents(students []*models.Student, reports []*models.GroupedExamReport) []RankEntry {
	marks := make(map[uint]float64, len(reports))
	for _, report := range reports {
		marks[report.StudentID] = report.Marks
	}

	seen := make(map[float64]bool)
	var distinct []float64
	for _, student := range students {
		m := marks[student.ID]
		if !seen[m] {
			seen[m] = true
			distinct = append(distinct, m)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	rankOf := make(map[float64]int, len(distinct))
	for i, m := range distinct {
		rankOf[m] = i + 1
	}

	ranking := make([]RankEntry, 0, len(students))
	for _, student := range students {
		m := marks[student.ID]
		ranking = append(ranking, RankEntry{
			Rank:        rankOf[m],
			Marks:       m,
			StudentID:   student.ID,
			StudentName: student.FullName(),
			AdmissionNo: student.AdmissionNo,
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Marks != b.Marks {
			return a.Marks < b.Marks
		}
		return a.StudentID < b.StudentID
	})
	return ranking
}
