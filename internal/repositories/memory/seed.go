package memory

import (
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
)

// Seed helpers copy the given value, assign an id when it has none and
// return the stored copy.

func (s *Store) AddCourse(course models.Course) models.Course {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if course.ID == 0 {
		course.ID = s.nextID()
	}
	course.Batches = nil
	course.ObservationGroups = nil
	s.courses[course.ID] = &course
	return course
}

// SetCourseGradingType changes the grading scheme of an existing course.
func (s *Store) SetCourseGradingType(courseID uint, gradingType *models.GradingType) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if course, ok := s.courses[courseID]; ok {
		course.GradingType = gradingType
	}
}

func (s *Store) AddBatch(batch models.Batch) models.Batch {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if batch.ID == 0 {
		batch.ID = s.nextID()
	}
	batch.Students, batch.Subjects, batch.ExamGroups = nil, nil, nil
	s.batches[batch.ID] = &batch
	return batch
}

func (s *Store) AddStudent(student models.Student) models.Student {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if student.ID == 0 {
		student.ID = s.nextID()
	}
	s.students[student.ID] = &student
	return student
}

// AddArchivedStudent stores the student and records a historical enrollment
// in batchID.
func (s *Store) AddArchivedStudent(batchID uint, student models.Student) models.Student {
	student = s.AddStudent(student)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.batchStudents = append(s.batchStudents, models.BatchStudent{BatchID: batchID, StudentID: student.ID})
	return student
}

// RemoveStudent deletes the student row only, leaving enrollments in place.
func (s *Store) RemoveStudent(studentID uint) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.students, studentID)
}

func (s *Store) AddSubject(subject models.Subject) models.Subject {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if subject.ID == 0 {
		subject.ID = s.nextID()
	}
	subject.FaGroups = nil
	s.subjects[subject.ID] = &subject
	return subject
}

func (s *Store) AssignElective(batchID, studentID, subjectID uint) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.studentsSubjects = append(s.studentsSubjects, models.StudentsSubject{
		ID:        s.nextID(),
		StudentID: studentID,
		SubjectID: subjectID,
		BatchID:   batchID,
	})
}

func (s *Store) AddExamGroup(group models.ExamGroup) models.ExamGroup {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if group.ID == 0 {
		group.ID = s.nextID()
	}
	group.Exams = nil
	s.examGroups[group.ID] = &group
	return group
}

// LinkExamGroup adds the grouped exam row that includes the exam group in
// the batch's combined report.
func (s *Store) LinkExamGroup(batchID, examGroupID uint, weightage float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.groupedExams = append(s.groupedExams, models.GroupedExam{
		ID:          s.nextID(),
		BatchID:     batchID,
		ExamGroupID: examGroupID,
		Weightage:   weightage,
	})
}

func (s *Store) AddExam(exam models.Exam) models.Exam {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if exam.ID == 0 {
		exam.ID = s.nextID()
	}
	s.exams[exam.ID] = &exam
	return exam
}

func (s *Store) AddGradingLevel(level models.GradingLevel) models.GradingLevel {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if level.ID == 0 {
		level.ID = s.nextID()
	}
	s.gradingLevels[level.ID] = &level
	return level
}

// AddScore stores or replaces the score of a student in an exam.
func (s *Store) AddScore(score models.ExamScore) models.ExamScore {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for id, existing := range s.scores {
		if existing.ExamID == score.ExamID && existing.StudentID == score.StudentID {
			delete(s.scores, id)
			if score.ID == 0 {
				score.ID = id
			}
		}
	}
	if score.ID == 0 {
		score.ID = s.nextID()
	}
	score.GradingLevel = nil
	score.UpdatedAt = time.Now()
	s.scores[score.ID] = &score
	return score
}

func (s *Store) AddFaGroup(group models.FaGroup, subjectIDs ...uint) models.FaGroup {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if group.ID == 0 {
		group.ID = s.nextID()
	}
	criterias := group.FaCriterias
	group.Subjects, group.FaCriterias = nil, nil
	s.faGroupSubjects[group.ID] = append(s.faGroupSubjects[group.ID], subjectIDs...)

	for _, criteria := range criterias {
		if criteria.ID == 0 {
			criteria.ID = s.nextID()
		}
		criteria.FaGroupID = group.ID
		c := criteria
		s.faCriterias[c.ID] = &c
		group.FaCriterias = append(group.FaCriterias, c)
	}
	return group
}

// AddObservationGroup stores the group with its observations and grade set
// and attaches it to the given courses.
func (s *Store) AddObservationGroup(group models.ObservationGroup, courseIDs ...uint) models.ObservationGroup {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if group.ID == 0 {
		group.ID = s.nextID()
	}
	if group.CceGradeSet.ID == 0 {
		group.CceGradeSet.ID = s.nextID()
	}
	group.CceGradeSetID = group.CceGradeSet.ID
	for i := range group.CceGradeSet.CceGrades {
		if group.CceGradeSet.CceGrades[i].ID == 0 {
			group.CceGradeSet.CceGrades[i].ID = s.nextID()
		}
		group.CceGradeSet.CceGrades[i].CceGradeSetID = group.CceGradeSet.ID
	}
	for i := range group.Observations {
		if group.Observations[i].ID == 0 {
			group.Observations[i].ID = s.nextID()
		}
		group.Observations[i].ObservationGroupID = group.ID
	}
	group.Courses = nil

	stored := copyObservationGroup(&group)
	s.observationGroups[group.ID] = &stored
	for _, courseID := range courseIDs {
		s.courseObsGroups[courseID] = append(s.courseObsGroups[courseID], group.ID)
	}
	return copyObservationGroup(&group)
}

func (s *Store) AddDescriptiveIndicator(indicator models.DescriptiveIndicator) models.DescriptiveIndicator {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if indicator.ID == 0 {
		indicator.ID = s.nextID()
	}
	s.indicators[indicator.ID] = &indicator
	return indicator
}

func (s *Store) AddAssessmentScore(score models.AssessmentScore) models.AssessmentScore {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if score.ID == 0 {
		score.ID = s.nextID()
	}
	s.assessmentScores[score.ID] = &score
	return score
}

func copyObservationGroup(group *models.ObservationGroup) models.ObservationGroup {
	c := *group
	c.Observations = append([]models.Observation(nil), group.Observations...)
	c.CceGradeSet.CceGrades = append([]models.CceGrade(nil), group.CceGradeSet.CceGrades...)
	return c
}
