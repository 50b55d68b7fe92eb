package models

import (
	"math"
	"time"
)

// Describable types for descriptive indicators and CCE reports.
const (
	DescribableFaCriteria  = "FaCriteria"
	DescribableObservation = "Observation"
)

// NoGrade is reported when a grade set has no grade for a point value.
const NoGrade = "No Grade"

type FaGroup struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:100"`
	IsDeleted bool   `json:"is_deleted" gorm:"default:false"`

	Subjects    []Subject    `json:"subjects,omitempty" gorm:"many2many:fa_groups_subjects"`
	FaCriterias []FaCriteria `json:"fa_criterias,omitempty" gorm:"foreignKey:FaGroupID"`
}

type FaCriteria struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FaGroupID uint   `json:"fa_group_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"not null;size:100"`
	IsDeleted bool   `json:"is_deleted" gorm:"default:false"`
}

func (FaCriteria) TableName() string {
	return "fa_criterias"
}

type ObservationGroup struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Name          string `json:"name" gorm:"not null;size:100"`
	CceGradeSetID uint   `json:"cce_grade_set_id" gorm:"index"`
	IsDeleted     bool   `json:"is_deleted" gorm:"default:false"`

	Observations []Observation `json:"observations,omitempty" gorm:"foreignKey:ObservationGroupID"`
	CceGradeSet  CceGradeSet   `json:"cce_grade_set" gorm:"foreignKey:CceGradeSetID"`
	Courses      []Course      `json:"courses,omitempty" gorm:"many2many:courses_observation_groups"`
}

type Observation struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	ObservationGroupID uint   `json:"observation_group_id" gorm:"not null;index"`
	Name               string `json:"name" gorm:"not null;size:100"`
	IsActive           bool   `json:"is_active" gorm:"default:true"`
}

// DescriptiveIndicator belongs either to an FA criteria or to an observation.
type DescriptiveIndicator struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"size:100"`
	DescribableID   uint   `json:"describable_id" gorm:"not null;index:idx_descriptive_indicators_describable"`
	DescribableType string `json:"describable_type" gorm:"not null;size:30;index:idx_descriptive_indicators_describable"`
}

// AssessmentScore is a CCE grade point given through a descriptive indicator.
// Scholastic scores carry an exam; co-scholastic scores do not.
type AssessmentScore struct {
	ID                     uint    `json:"id" gorm:"primaryKey"`
	StudentID              uint    `json:"student_id" gorm:"not null;index"`
	BatchID                uint    `json:"batch_id" gorm:"not null;index"`
	ExamID                 *uint   `json:"exam_id" gorm:"index"`
	DescriptiveIndicatorID uint    `json:"descriptive_indicator_id" gorm:"not null;index"`
	GradePoints            float64 `json:"grade_points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CceGradeSet struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:100"`

	CceGrades []CceGrade `json:"cce_grades,omitempty" gorm:"foreignKey:CceGradeSetID"`
}

// GradeStringFor maps a rounded grade point onto the grade set.
func (g *CceGradeSet) GradeStringFor(points int) string {
	for _, grade := range g.CceGrades {
		if int(math.Round(grade.GradePoint)) == points {
			return grade.Name
		}
	}
	return NoGrade
}

type CceGrade struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	CceGradeSetID uint    `json:"cce_grade_set_id" gorm:"not null;index"`
	Name          string  `json:"name" gorm:"not null;size:20"`
	GradePoint    float64 `json:"grade_point"`
}

// CceReport is a derived CCE grade. Scholastic rows carry an exam id and
// point at an FA criteria; co-scholastic rows have no exam and point at an
// observation.
type CceReport struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	BatchID        uint   `json:"batch_id" gorm:"not null;index"`
	StudentID      uint   `json:"student_id" gorm:"not null;index"`
	ExamID         *uint  `json:"exam_id,omitempty" gorm:"index"`
	ObservableID   uint   `json:"observable_id" gorm:"not null;index:idx_cce_reports_observable"`
	ObservableType string `json:"observable_type" gorm:"not null;size:30;index:idx_cce_reports_observable"`
	GradeString    string `json:"grade_string" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsScholastic reports whether the row belongs to an exam.
func (r *CceReport) IsScholastic() bool {
	return r.ExamID != nil && *r.ExamID > 0
}
