package hospital

import (
	"time"

	"github.com/google/uuid"
)

type Hospital struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Address       string    `db:"address" json:"address"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	Facilities    []string  `db:"facilities" json:"facilities"`
	HasPharmacy   bool      `db:"has_pharmacy" json:"has_pharmacy"`
	HasLaboratory bool      `db:"has_laboratory" json:"has_laboratory"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
