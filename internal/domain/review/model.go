package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is unique per (doctor, patient) pair; re-submission updates the
// existing row in place.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	Verified  bool      `db:"verified" json:"verified"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorReviews is the listing shape for one doctor: the reviews plus the
// aggregate average rating.
type DoctorReviews struct {
	Reviews       []*Review `json:"reviews"`
	AverageRating float64   `json:"average_rating"`
	Total         int       `json:"total"`
}
