package services

import "github.com/SAP-F-2025/report-service/internal/models"

// GradingFeatures holds the institution level switches for credit based
// grading. A course asking for a disabled scheme is graded as plain.
type GradingFeatures struct {
	GPAEnabled bool
	CWAEnabled bool
}

// ScoreInput is everything a grading mode needs to score one student in one
// exam. Score may be nil.
type ScoreInput struct {
	Score     *models.ExamScore
	Exam      *models.Exam
	Subject   *models.Subject
	ExamGroup *models.ExamGroup
}

// Contribution is what one exam adds to the subject and exam group
// accumulators of a student.
type Contribution struct {
	Percentage  float64
	Raw         float64
	Denominator float64
}

// GradingMode computes exam contributions and exam group totals.
type GradingMode interface {
	Name() string
	Contribution(in ScoreInput) Contribution
	ExamGroupTotal(raw, denominator, weightage float64) (total, contribution float64)
}

// ResolveGradingMode picks the mode for a course.
func ResolveGradingMode(course *models.Course, features GradingFeatures) GradingMode {
	switch {
	case course != nil && course.Is(models.GradingTypeGPA) && features.GPAEnabled:
		return GPAMode{}
	case course != nil && course.Is(models.GradingTypeCWA) && features.CWAEnabled:
		return CWAMode{}
	default:
		return PlainMode{}
	}
}

// PlainMode grades on marks as a percentage of the exam maximum.
type PlainMode struct{}

func (PlainMode) Name() string { return "plain" }

func (PlainMode) Contribution(in ScoreInput) Contribution {
	c := Contribution{Denominator: in.Exam.MaximumMarks}
	marks, ok := scoreMarks(in.Score)
	if !ok {
		return c
	}
	c.Percentage = percentOf(marks, in.Exam.MaximumMarks) * weight(in.ExamGroup)
	c.Raw = marks
	return c
}

func (PlainMode) ExamGroupTotal(raw, denominator, weightage float64) (float64, float64) {
	if denominator == 0 {
		return 0, 0
	}
	total := raw / denominator * 100
	return total, total * weightage / 100
}

// GPAMode grades on the credit points of the awarded grading level.
type GPAMode struct{}

func (GPAMode) Name() string { return "gpa" }

func (GPAMode) Contribution(in ScoreInput) Contribution {
	c := Contribution{Denominator: in.Subject.Credits()}
	if in.Score == nil || in.Score.GradingLevel == nil || in.Score.GradingLevel.CreditPoints == nil {
		return c
	}
	points := *in.Score.GradingLevel.CreditPoints
	c.Percentage = points * weight(in.ExamGroup)
	c.Raw = points * in.Subject.Credits()
	return c
}

func (GPAMode) ExamGroupTotal(raw, denominator, weightage float64) (float64, float64) {
	return creditWeightedTotal(raw, denominator, weightage)
}

// CWAMode grades on the marks percentage weighted by subject credit hours.
type CWAMode struct{}

func (CWAMode) Name() string { return "cwa" }

func (CWAMode) Contribution(in ScoreInput) Contribution {
	c := Contribution{Denominator: in.Subject.Credits()}
	marks, ok := scoreMarks(in.Score)
	if !ok {
		return c
	}
	pct := percentOf(marks, in.Exam.MaximumMarks)
	c.Percentage = pct * weight(in.ExamGroup)
	c.Raw = pct * in.Subject.Credits()
	return c
}

// ExamGroupTotal for CWA is a credit weighted mean of percentages, so it is
// already on the percentage scale.
func (CWAMode) ExamGroupTotal(raw, denominator, weightage float64) (float64, float64) {
	return creditWeightedTotal(raw, denominator, weightage)
}

func creditWeightedTotal(raw, denominator, weightage float64) (float64, float64) {
	if denominator == 0 {
		return 0, 0
	}
	total := raw / denominator
	return total, total * weightage / 100
}

func scoreMarks(score *models.ExamScore) (float64, bool) {
	if score == nil || score.Marks == nil {
		return 0, false
	}
	return *score.Marks, true
}

func percentOf(marks, maximum float64) float64 {
	if maximum == 0 {
		return 0
	}
	return marks / maximum * 100
}

func weight(group *models.ExamGroup) float64 {
	return group.Weightage / 100
}
