package models

import "time"

type Subject struct {
	ID              uint     `json:"id" gorm:"primaryKey"`
	BatchID         uint     `json:"batch_id" gorm:"not null;index"`
	Name            string   `json:"name" gorm:"not null;size:100"`
	Code            string   `json:"code" gorm:"size:50"`
	CreditHours     *float64 `json:"credit_hours"`
	ElectiveGroupID *uint    `json:"elective_group_id" gorm:"index"`
	IsDeleted       bool     `json:"is_deleted" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FaGroups []FaGroup `json:"fa_groups,omitempty" gorm:"many2many:fa_groups_subjects"`
}

// IsElective reports whether the subject belongs to an elective group.
func (s *Subject) IsElective() bool {
	return s.ElectiveGroupID != nil
}

// Credits returns the credit hours, treating an unset value as zero.
func (s *Subject) Credits() float64 {
	if s.CreditHours == nil {
		return 0
	}
	return *s.CreditHours
}

// StudentsSubject assigns a student to an elective subject.
type StudentsSubject struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"not null;uniqueIndex:idx_students_subjects_student_subject"`
	SubjectID uint `json:"subject_id" gorm:"not null;uniqueIndex:idx_students_subjects_student_subject"`
	BatchID   uint `json:"batch_id" gorm:"index"`
}

type ExamGroup struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	BatchID   uint    `json:"batch_id" gorm:"not null;index"`
	Name      string  `json:"name" gorm:"not null;size:100"`
	Weightage float64 `json:"weightage" gorm:"default:0"` // percentage, 0-100
	ExamType  string  `json:"exam_type" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exams []Exam `json:"exams,omitempty" gorm:"foreignKey:ExamGroupID"`
}

// GroupedExam links an exam group into the batch's combined report.
type GroupedExam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	BatchID     uint    `json:"batch_id" gorm:"not null;index"`
	ExamGroupID uint    `json:"exam_group_id" gorm:"not null;index"`
	Weightage   float64 `json:"weightage"`
}

type Exam struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	ExamGroupID  uint    `json:"exam_group_id" gorm:"not null;index:idx_exams_group_subject"`
	SubjectID    uint    `json:"subject_id" gorm:"not null;index:idx_exams_group_subject"`
	MaximumMarks float64 `json:"maximum_marks"`
	MinimumMarks float64 `json:"minimum_marks"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExamScore struct {
	ID             uint     `json:"id" gorm:"primaryKey"`
	ExamID         uint     `json:"exam_id" gorm:"not null;index:idx_exam_scores_exam_student"`
	StudentID      uint     `json:"student_id" gorm:"not null;index:idx_exam_scores_exam_student"`
	Marks          *float64 `json:"marks"`
	GradingLevelID *uint    `json:"grading_level_id"`
	Remarks        string   `json:"remarks" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GradingLevel *GradingLevel `json:"grading_level,omitempty" gorm:"foreignKey:GradingLevelID"`
}

type GradingLevel struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	BatchID      *uint    `json:"batch_id" gorm:"index"`
	Name         string   `json:"name" gorm:"not null;size:20"`
	MinScore     float64  `json:"min_score"`
	CreditPoints *float64 `json:"credit_points"`
	IsDeleted    bool     `json:"is_deleted" gorm:"default:false"`
}
