package profile

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type WorkShift string

const (
	ShiftMorning   WorkShift = "Morning"
	ShiftAfternoon WorkShift = "Afternoon"
	ShiftNight     WorkShift = "Night"
)

func (s WorkShift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type MedicalHistoryEntry struct {
	Condition   string    `json:"condition"`
	DiagnosedAt time.Time `json:"diagnosed_at"`
	Notes       string    `json:"notes,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// PatientProfile holds the patient-specific attributes of an identity. At
// most one exists per identity.
type PatientProfile struct {
	ID               uuid.UUID             `db:"id" json:"id"`
	UserID           uuid.UUID             `db:"user_id" json:"user_id"`
	DateOfBirth      time.Time             `db:"date_of_birth" json:"date_of_birth"`
	Gender           Gender                `db:"gender" json:"gender"`
	BloodType        *string               `db:"blood_type" json:"blood_type,omitempty"`
	Allergies        []string              `db:"allergies" json:"allergies"`
	MedicalHistory   []MedicalHistoryEntry `db:"medical_history" json:"medical_history"`
	EmergencyContact *EmergencyContact     `db:"emergency_contact" json:"emergency_contact,omitempty"`
	CreatedAt        time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time             `db:"updated_at" json:"updated_at"`
}

type HospitalAffiliation struct {
	HospitalID       uuid.UUID `json:"hospital_id"`
	IsAvailableToday bool      `json:"is_available_today"`
}

type Qualification struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

type DoctorProfile struct {
	ID                   uuid.UUID             `db:"id" json:"id"`
	UserID               uuid.UUID             `db:"user_id" json:"user_id"`
	Specialization       string                `db:"specialization" json:"specialization"`
	LicenseNumber        string                `db:"license_number" json:"license_number"`
	HospitalAffiliations []HospitalAffiliation `db:"hospital_affiliations" json:"hospital_affiliations"`
	ExperienceYears      int                   `db:"experience_years" json:"experience_years"`
	Qualifications       []Qualification       `db:"qualifications" json:"qualifications"`
	CreatedAt            time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time             `db:"updated_at" json:"updated_at"`
}

// DaySchedule is one weekday's opening window. Closed days carry no times.
type DaySchedule struct {
	Day    string `json:"day"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

type PharmacyProfile struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	UserID          uuid.UUID     `db:"user_id" json:"user_id"`
	Name            string        `db:"name" json:"name"`
	LicenseNumber   string        `db:"license_number" json:"license_number"`
	Address         string        `db:"address" json:"address"`
	HospitalID      *uuid.UUID    `db:"hospital_id" json:"hospital_id,omitempty"`
	IsHospitalOwned bool          `db:"is_hospital_owned" json:"is_hospital_owned"`
	OperatingHours  []DaySchedule `db:"operating_hours" json:"operating_hours"`
	ContactNumber   string        `db:"contact_number" json:"contact_number"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

type LaboratoryProfile struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	UserID          uuid.UUID     `db:"user_id" json:"user_id"`
	Name            string        `db:"name" json:"name"`
	LicenseNumber   string        `db:"license_number" json:"license_number"`
	Address         string        `db:"address" json:"address"`
	HospitalID      *uuid.UUID    `db:"hospital_id" json:"hospital_id,omitempty"`
	IsHospitalOwned bool          `db:"is_hospital_owned" json:"is_hospital_owned"`
	OperatingHours  []DaySchedule `db:"operating_hours" json:"operating_hours"`
	ContactNumber   string        `db:"contact_number" json:"contact_number"`
	ServicesOffered []string      `db:"services_offered" json:"services_offered"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

type AssignedTask struct {
	TaskName    string     `json:"task_name"`
	Description string     `json:"description,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	Status      TaskStatus `json:"status"`
}

type DataEntryProfile struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	WorkShift         WorkShift      `db:"work_shift" json:"work_shift"`
	SupervisorID      *uuid.UUID     `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Department        string         `db:"department" json:"department"`
	AssignedTasks     []AssignedTask `db:"assigned_tasks" json:"assigned_tasks"`
	PerformanceRating *int           `db:"performance_rating" json:"performance_rating,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
