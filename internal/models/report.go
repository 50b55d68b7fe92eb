package models

import "time"

// ScoreType is the granularity of a grouped exam report row.
type ScoreType string

const (
	ScoreTypeSubject   ScoreType = "s"
	ScoreTypeExamGroup ScoreType = "e"
	ScoreTypeCohort    ScoreType = "c"
)

// GroupedExamReport is a derived score row. SubjectID is set for subject
// rows, ExamGroupID for exam group rows, neither for cohort rows.
type GroupedExamReport struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BatchID     uint      `json:"batch_id" gorm:"not null;index:idx_grouped_reports_lookup"`
	StudentID   uint      `json:"student_id" gorm:"not null;index:idx_grouped_reports_lookup"`
	ScoreType   ScoreType `json:"score_type" gorm:"not null;size:1;index:idx_grouped_reports_lookup"`
	SubjectID   *uint     `json:"subject_id,omitempty" gorm:"index"`
	ExamGroupID *uint     `json:"exam_group_id,omitempty" gorm:"index"`
	Marks       float64   `json:"marks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportKey is the natural uniqueness key of a report row.
type ReportKey struct {
	BatchID     uint
	StudentID   uint
	ScoreType   ScoreType
	SubjectID   uint
	ExamGroupID uint
}

// Key returns the natural key of the row. Exam group rows are unique per
// (student, exam group) regardless of batch.
func (r *GroupedExamReport) Key() ReportKey {
	key := ReportKey{StudentID: r.StudentID, ScoreType: r.ScoreType}
	switch r.ScoreType {
	case ScoreTypeSubject:
		key.BatchID = r.BatchID
		if r.SubjectID != nil {
			key.SubjectID = *r.SubjectID
		}
	case ScoreTypeExamGroup:
		if r.ExamGroupID != nil {
			key.ExamGroupID = *r.ExamGroupID
		}
	default:
		key.BatchID = r.BatchID
	}
	return key
}

// Configuration is a key/value setting row; report runs store their
// completion markers here.
type Configuration struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ConfigKey   string `json:"config_key" gorm:"not null;uniqueIndex;size:255"`
	ConfigValue string `json:"config_value" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
