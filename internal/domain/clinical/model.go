package clinical

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	PrescriptionActive    PrescriptionStatus = "active"
	PrescriptionCompleted PrescriptionStatus = "completed"
	PrescriptionCancelled PrescriptionStatus = "cancelled"
)

func (s PrescriptionStatus) Valid() bool {
	switch s {
	case PrescriptionActive, PrescriptionCompleted, PrescriptionCancelled:
		return true
	}
	return false
}

// PurchaseSource is a one-directional state: not_purchased moves to one of
// the purchased values and never back.
type PurchaseSource string

const (
	PurchaseNone     PurchaseSource = "not_purchased"
	PurchaseHospital PurchaseSource = "hospital_pharmacy"
	PurchaseOutside  PurchaseSource = "outside_pharmacy"
)

func (s PurchaseSource) Valid() bool {
	switch s {
	case PurchaseNone, PurchaseHospital, PurchaseOutside:
		return true
	}
	return false
}

type LabStatus string

const (
	LabPending   LabStatus = "pending"
	LabCompleted LabStatus = "completed"
	LabCancelled LabStatus = "cancelled"
)

func (s LabStatus) Valid() bool {
	switch s {
	case LabPending, LabCompleted, LabCancelled:
		return true
	}
	return false
}

// Diagnosis references the patient and doctor profiles by id. References are
// resolved at read time; a dangling reference surfaces as NotFound on read.
type Diagnosis struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	HospitalID    *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	Condition     string     `db:"condition" json:"condition"`
	Details       string     `db:"details" json:"details"`
	Symptoms      []string   `db:"symptoms" json:"symptoms"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	DiagnosisDate time.Time  `db:"diagnosis_date" json:"diagnosis_date"`
	FollowUpDate  *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// PharmacyDetails exists only once a prescription has been purchased.
type PharmacyDetails struct {
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	PurchaseDate  time.Time `json:"purchase_date"`
	InvoiceNumber string    `json:"invoice_number,omitempty"`
}

type Prescription struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	PatientID       uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	HospitalID      *uuid.UUID         `db:"hospital_id" json:"hospital_id,omitempty"`
	DiagnosisID     uuid.UUID          `db:"diagnosis_id" json:"diagnosis_id"`
	Date            time.Time          `db:"date" json:"date"`
	Medications     []Medication       `db:"medications" json:"medications"`
	Status          PrescriptionStatus `db:"status" json:"status"`
	PurchasedFrom   PurchaseSource     `db:"purchased_from" json:"purchased_from"`
	PharmacyDetails *PharmacyDetails   `db:"pharmacy_details" json:"pharmacy_details,omitempty"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

type ReportFile struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type LabReport struct {
	ID                 uuid.UUID   `db:"id" json:"id"`
	PatientID          uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	LaboratoryID       uuid.UUID   `db:"laboratory_id" json:"laboratory_id"`
	TestType           string      `db:"test_type" json:"test_type"`
	TestDate           time.Time   `db:"test_date" json:"test_date"`
	Results            string      `db:"results" json:"results"`
	ReferenceRange     string      `db:"reference_range" json:"reference_range,omitempty"`
	Interpretation     string      `db:"interpretation" json:"interpretation,omitempty"`
	ReportFile         *ReportFile `db:"report_file" json:"report_file,omitempty"`
	IsHospitalLab      bool        `db:"is_hospital_lab" json:"is_hospital_lab"`
	RelatedDiagnosisID *uuid.UUID  `db:"related_diagnosis_id" json:"related_diagnosis_id,omitempty"`
	Status             LabStatus   `db:"status" json:"status"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// -- joined shapes --

// PersonRef is a resolved patient reference: profile id plus the owning
// identity's display fields.
type PersonRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type DoctorRef struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
}

type FacilityRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type DiagnosisDetail struct {
	Diagnosis
	Patient  PersonRef    `json:"patient"`
	Doctor   DoctorRef    `json:"doctor"`
	Hospital *FacilityRef `json:"hospital,omitempty"`
}

type PrescriptionDetail struct {
	Prescription
	Patient   PersonRef    `json:"patient"`
	Doctor    DoctorRef    `json:"doctor"`
	Hospital  *FacilityRef `json:"hospital,omitempty"`
	Diagnosis *Diagnosis   `json:"diagnosis,omitempty"`
	Pharmacy  *FacilityRef `json:"pharmacy,omitempty"`
}

type LabReportDetail struct {
	LabReport
	Patient          PersonRef    `json:"patient"`
	Doctor           DoctorRef    `json:"doctor"`
	Laboratory       FacilityRef  `json:"laboratory"`
	RelatedDiagnosis *Diagnosis   `json:"related_diagnosis,omitempty"`
}
