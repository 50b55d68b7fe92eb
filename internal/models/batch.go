package models

import (
	"time"

	"gorm.io/gorm"
)

// GradingType is the course-level grading scheme code.
type GradingType string

const (
	GradingTypeNormal GradingType = "0"
	GradingTypeGPA    GradingType = "1"
	GradingTypeCWA    GradingType = "2"
	GradingTypeCCE    GradingType = "3"
)

type Course struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	CourseName  string       `json:"course_name" gorm:"not null;size:100"`
	SectionName string       `json:"section_name" gorm:"size:100"`
	Code        string       `json:"code" gorm:"not null;size:50;index"`
	GradingType *GradingType `json:"grading_type" gorm:"size:1"` // nil means normal grading
	IsDeleted   bool         `json:"is_deleted" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Batches           []Batch            `json:"batches,omitempty" gorm:"foreignKey:CourseID"`
	ObservationGroups []ObservationGroup `json:"observation_groups,omitempty" gorm:"many2many:courses_observation_groups"`
}

// IsNormal reports whether the course uses plain percentage grading.
func (c *Course) IsNormal() bool {
	return c.GradingType == nil || *c.GradingType == GradingTypeNormal
}

// Is reports whether the course grading type equals t.
func (c *Course) Is(t GradingType) bool {
	return c.GradingType != nil && *c.GradingType == t
}

type Batch struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	CourseID  uint      `json:"course_id" gorm:"not null;index"`
	StartedOn time.Time `json:"started_on" gorm:"type:date;not null"`
	EndedOn   time.Time `json:"ended_on" gorm:"type:date;not null"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course     Course      `json:"course" gorm:"foreignKey:CourseID"`
	Students   []Student   `json:"students,omitempty" gorm:"foreignKey:BatchID"`
	Subjects   []Subject   `json:"subjects,omitempty" gorm:"foreignKey:BatchID"`
	ExamGroups []ExamGroup `json:"exam_groups,omitempty" gorm:"foreignKey:BatchID"`
}

func (b *Batch) FullName() string {
	return b.Course.Code + " - " + b.Name
}

func (Batch) TableName() string {
	return "batches"
}

type Student struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	BatchID     uint   `json:"batch_id" gorm:"not null;index"`
	AdmissionNo string `json:"admission_no" gorm:"size:50;index"`
	FirstName   string `json:"first_name" gorm:"not null;size:100"`
	LastName    string `json:"last_name" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// BatchStudent is the historical enrollment of a student in a batch the
// student has since left (graduated or transferred).
type BatchStudent struct {
	BatchID   uint `json:"batch_id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"primaryKey"`

	Student Student `json:"student" gorm:"foreignKey:StudentID"`
}

func (BatchStudent) TableName() string {
	return "batch_students"
}
