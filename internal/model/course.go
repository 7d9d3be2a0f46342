package model

import "time"

type Course struct {
	ID          int64     `json:"id"`
	TutorID     int64     `json:"tutor_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Статусы записи на курс
const (
	EnrollmentStatusPending  = "pending"
	EnrollmentStatusApproved = "approved"
	EnrollmentStatusRejected = "rejected"
)

// Enrollment - запись студента на курс. Занятия можно запрашивать
// только по одобренной записи.
type Enrollment struct {
	ID        int64      `json:"id"`
	CourseID  int64      `json:"course_id"`
	StudentID int64      `json:"student_id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// IsApproved проверяет одобрена ли запись на курс
func (e *Enrollment) IsApproved() bool {
	return e.Status == EnrollmentStatusApproved
}
