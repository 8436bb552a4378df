package clinical

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/domain/hospital"
	"github.com/medvault/medvault/internal/domain/identity"
	"github.com/medvault/medvault/internal/domain/profile"
	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
	"github.com/medvault/medvault/internal/platform/report"
)

// ProfileDirectory is the slice of the profile service the clinical layer
// joins against. Every hop is a separate lookup by stored reference id.
type ProfileDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*profile.PatientProfile, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*profile.DoctorProfile, error)
	GetPharmacy(ctx context.Context, id uuid.UUID) (*profile.PharmacyProfile, error)
	GetLaboratory(ctx context.Context, id uuid.UUID) (*profile.LaboratoryProfile, error)
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	PharmacyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	LaboratoryIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type HospitalDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

type Service struct {
	diagnoses     DiagnosisRepository
	prescriptions PrescriptionRepository
	labReports    LabReportRepository
	profiles      ProfileDirectory
	users         UserDirectory
	hospitals     HospitalDirectory
}

func NewService(
	diagnoses DiagnosisRepository,
	prescriptions PrescriptionRepository,
	labReports LabReportRepository,
	profiles ProfileDirectory,
	users UserDirectory,
	hospitals HospitalDirectory,
) *Service {
	return &Service{
		diagnoses:     diagnoses,
		prescriptions: prescriptions,
		labReports:    labReports,
		profiles:      profiles,
		users:         users,
		hospitals:     hospitals,
	}
}

// authorizePatient is the record-level tier of the two-tier check. Patients
// may only touch records whose patient reference resolves to their own
// profile; a mismatch is Forbidden, never NotFound. Every other role that
// passed the route's role gate is unrestricted here.
func (s *Service) authorizePatient(ctx context.Context, principal *auth.Principal, recordPatientID uuid.UUID) error {
	if principal == nil {
		return apperr.ErrUnauthenticated
	}
	if principal.Role != auth.RolePatient {
		return nil
	}
	own, err := s.profiles.PatientIDForUser(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Forbiddenf("no patient profile for caller")
		}
		return err
	}
	if own != recordPatientID {
		return apperr.Forbiddenf("record belongs to another patient")
	}
	return nil
}

// callerPatientID resolves the caller's own patient profile for the /me
// reads. A caller without one has no standing on patient-scoped data, the
// same answer authorizePatient gives on record-level reads.
func (s *Service) callerPatientID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return uuid.Nil, apperr.Forbiddenf("no patient profile for caller")
		}
		return uuid.Nil, err
	}
	return id, nil
}

// -- join helpers --

func (s *Service) patientRef(ctx context.Context, patientID uuid.UUID) (PersonRef, error) {
	p, err := s.profiles.GetPatient(ctx, patientID)
	if err != nil {
		return PersonRef{}, err
	}
	u, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return PersonRef{}, err
	}
	return PersonRef{ID: p.ID, Name: u.FullName(), Email: u.Email}, nil
}

func (s *Service) doctorRef(ctx context.Context, doctorID uuid.UUID) (DoctorRef, error) {
	d, err := s.profiles.GetDoctor(ctx, doctorID)
	if err != nil {
		return DoctorRef{}, err
	}
	u, err := s.users.GetUser(ctx, d.UserID)
	if err != nil {
		return DoctorRef{}, err
	}
	return DoctorRef{ID: d.ID, Name: u.FullName(), Specialization: d.Specialization}, nil
}

func (s *Service) hospitalRef(ctx context.Context, hospitalID *uuid.UUID) (*FacilityRef, error) {
	if hospitalID == nil {
		return nil, nil
	}
	h, err := s.hospitals.Get(ctx, *hospitalID)
	if err != nil {
		return nil, err
	}
	return &FacilityRef{ID: h.ID, Name: h.Name}, nil
}

func (s *Service) joinDiagnosis(ctx context.Context, d *Diagnosis) (*DiagnosisDetail, error) {
	patient, err := s.patientRef(ctx, d.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctorRef(ctx, d.DoctorID)
	if err != nil {
		return nil, err
	}
	hosp, err := s.hospitalRef(ctx, d.HospitalID)
	if err != nil {
		return nil, err
	}
	return &DiagnosisDetail{Diagnosis: *d, Patient: patient, Doctor: doctor, Hospital: hosp}, nil
}

func (s *Service) joinPrescription(ctx context.Context, p *Prescription) (*PrescriptionDetail, error) {
	patient, err := s.patientRef(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctorRef(ctx, p.DoctorID)
	if err != nil {
		return nil, err
	}
	hosp, err := s.hospitalRef(ctx, p.HospitalID)
	if err != nil {
		return nil, err
	}
	diag, err := s.diagnoses.GetByID(ctx, p.DiagnosisID)
	if err != nil {
		return nil, err
	}
	detail := &PrescriptionDetail{
		Prescription: *p,
		Patient:      patient,
		Doctor:       doctor,
		Hospital:     hosp,
		Diagnosis:    diag,
	}
	if p.PharmacyDetails != nil {
		ph, err := s.profiles.GetPharmacy(ctx, p.PharmacyDetails.PharmacyID)
		if err != nil {
			return nil, err
		}
		detail.Pharmacy = &FacilityRef{ID: ph.ID, Name: ph.Name}
	}
	return detail, nil
}

func (s *Service) joinLabReport(ctx context.Context, lr *LabReport) (*LabReportDetail, error) {
	patient, err := s.patientRef(ctx, lr.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctorRef(ctx, lr.DoctorID)
	if err != nil {
		return nil, err
	}
	lab, err := s.profiles.GetLaboratory(ctx, lr.LaboratoryID)
	if err != nil {
		return nil, err
	}
	detail := &LabReportDetail{
		LabReport:  *lr,
		Patient:    patient,
		Doctor:     doctor,
		Laboratory: FacilityRef{ID: lab.ID, Name: lab.Name},
	}
	if lr.RelatedDiagnosisID != nil {
		diag, err := s.diagnoses.GetByID(ctx, *lr.RelatedDiagnosisID)
		if err != nil {
			return nil, err
		}
		detail.RelatedDiagnosis = diag
	}
	return detail, nil
}

// -- Diagnosis --

func (s *Service) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.Condition == "" {
		return apperr.Validationf("condition is required")
	}
	if _, err := s.profiles.GetPatient(ctx, d.PatientID); err != nil {
		return apperr.NotFoundf("patient %s", d.PatientID)
	}
	if _, err := s.profiles.GetDoctor(ctx, d.DoctorID); err != nil {
		return apperr.NotFoundf("doctor %s", d.DoctorID)
	}
	if d.HospitalID != nil {
		if _, err := s.hospitals.Get(ctx, *d.HospitalID); err != nil {
			return apperr.NotFoundf("hospital %s", *d.HospitalID)
		}
	}
	if d.DiagnosisDate.IsZero() {
		d.DiagnosisDate = time.Now()
	}
	return s.diagnoses.Create(ctx, d)
}

func (s *Service) GetDiagnosis(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*DiagnosisDetail, error) {
	d, err := s.diagnoses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatient(ctx, principal, d.PatientID); err != nil {
		return nil, err
	}
	return s.joinDiagnosis(ctx, d)
}

// MedicalHistory lists a patient's diagnoses newest first, joined.
func (s *Service) MedicalHistory(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DiagnosisDetail, int, error) {
	list, total, err := s.diagnoses.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*DiagnosisDetail, 0, len(list))
	for _, d := range list {
		detail, err := s.joinDiagnosis(ctx, d)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, detail)
	}
	return out, total, nil
}

// MyMedicalHistory derives the caller's patient profile and lists their own
// history.
func (s *Service) MyMedicalHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*DiagnosisDetail, int, error) {
	patientID, err := s.callerPatientID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.MedicalHistory(ctx, patientID, limit, offset)
}

// -- Prescription --

func (s *Service) validatePurchase(ctx context.Context, source PurchaseSource, details *PharmacyDetails) error {
	if !source.Valid() {
		return apperr.Validationf("purchased_from must be hospital_pharmacy, outside_pharmacy or not_purchased")
	}
	if source == PurchaseNone {
		return nil
	}
	if details == nil || details.PharmacyID == uuid.Nil {
		return apperr.Validationf("pharmacy_details.pharmacy_id is required when purchased_from is %s", source)
	}
	if _, err := s.profiles.GetPharmacy(ctx, details.PharmacyID); err != nil {
		return apperr.NotFoundf("pharmacy %s", details.PharmacyID)
	}
	return nil
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if len(p.Medications) == 0 {
		return apperr.Validationf("at least one medication is required")
	}
	if p.DiagnosisID == uuid.Nil {
		return apperr.Validationf("diagnosis_id is required")
	}
	if _, err := s.profiles.GetPatient(ctx, p.PatientID); err != nil {
		return apperr.NotFoundf("patient %s", p.PatientID)
	}
	if _, err := s.profiles.GetDoctor(ctx, p.DoctorID); err != nil {
		return apperr.NotFoundf("doctor %s", p.DoctorID)
	}
	if _, err := s.diagnoses.GetByID(ctx, p.DiagnosisID); err != nil {
		return apperr.NotFoundf("diagnosis %s", p.DiagnosisID)
	}
	if p.HospitalID != nil {
		if _, err := s.hospitals.Get(ctx, *p.HospitalID); err != nil {
			return apperr.NotFoundf("hospital %s", *p.HospitalID)
		}
	}
	if p.Status == "" {
		p.Status = PrescriptionActive
	}
	if !p.Status.Valid() {
		return apperr.Validationf("status must be active, completed or cancelled")
	}
	if p.PurchasedFrom == "" {
		p.PurchasedFrom = PurchaseNone
	}
	if err := s.validatePurchase(ctx, p.PurchasedFrom, p.PharmacyDetails); err != nil {
		return err
	}
	if p.PurchasedFrom == PurchaseNone {
		p.PharmacyDetails = nil
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*PrescriptionDetail, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatient(ctx, principal, p.PatientID); err != nil {
		return nil, err
	}
	return s.joinPrescription(ctx, p)
}

func (s *Service) PrescriptionsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PrescriptionDetail, int, error) {
	list, total, err := s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*PrescriptionDetail, 0, len(list))
	for _, p := range list {
		detail, err := s.joinPrescription(ctx, p)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, detail)
	}
	return out, total, nil
}

func (s *Service) MyPrescriptions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*PrescriptionDetail, int, error) {
	patientID, err := s.callerPatientID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.PrescriptionsForPatient(ctx, patientID, limit, offset)
}

func (s *Service) UpdatePrescriptionStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error {
	if !status.Valid() {
		return apperr.Validationf("status must be active, completed or cancelled")
	}
	return s.prescriptions.UpdateStatus(ctx, id, status)
}

// RecordPurchase moves a prescription out of not_purchased exactly once.
// Reverting is a validation error; re-purchasing is a conflict.
func (s *Service) RecordPurchase(ctx context.Context, principal *auth.Principal, id uuid.UUID, source PurchaseSource, details *PharmacyDetails) (*PrescriptionDetail, error) {
	if source == PurchaseNone {
		return nil, apperr.Validationf("a purchase cannot be reverted to not_purchased")
	}
	if err := s.validatePurchase(ctx, source, details); err != nil {
		return nil, err
	}
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatient(ctx, principal, p.PatientID); err != nil {
		return nil, err
	}
	if details.PurchaseDate.IsZero() {
		details.PurchaseDate = time.Now()
	}
	updated, err := s.prescriptions.RecordPurchase(ctx, id, source, details)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.Conflictf("prescription already purchased")
	}
	p, err = s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.joinPrescription(ctx, p)
}

// -- Lab report --

func (s *Service) CreateLabReport(ctx context.Context, lr *LabReport) error {
	if lr.TestType == "" {
		return apperr.Validationf("test_type is required")
	}
	if _, err := s.profiles.GetPatient(ctx, lr.PatientID); err != nil {
		return apperr.NotFoundf("patient %s", lr.PatientID)
	}
	if _, err := s.profiles.GetDoctor(ctx, lr.DoctorID); err != nil {
		return apperr.NotFoundf("doctor %s", lr.DoctorID)
	}
	lab, err := s.profiles.GetLaboratory(ctx, lr.LaboratoryID)
	if err != nil {
		return apperr.NotFoundf("laboratory %s", lr.LaboratoryID)
	}
	if lr.RelatedDiagnosisID != nil {
		if _, err := s.diagnoses.GetByID(ctx, *lr.RelatedDiagnosisID); err != nil {
			return apperr.NotFoundf("diagnosis %s", *lr.RelatedDiagnosisID)
		}
	}
	// snapshot of the lab's ownership at creation time
	lr.IsHospitalLab = lab.IsHospitalOwned
	if lr.Status == "" {
		lr.Status = LabPending
	}
	if !lr.Status.Valid() {
		return apperr.Validationf("status must be pending, completed or cancelled")
	}
	if lr.TestDate.IsZero() {
		lr.TestDate = time.Now()
	}
	return s.labReports.Create(ctx, lr)
}

func (s *Service) GetLabReport(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*LabReportDetail, error) {
	lr, err := s.labReports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatient(ctx, principal, lr.PatientID); err != nil {
		return nil, err
	}
	return s.joinLabReport(ctx, lr)
}

func (s *Service) LabReportsForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReportDetail, int, error) {
	list, total, err := s.labReports.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*LabReportDetail, 0, len(list))
	for _, lr := range list {
		detail, err := s.joinLabReport(ctx, lr)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, detail)
	}
	return out, total, nil
}

func (s *Service) MyLabReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*LabReportDetail, int, error) {
	patientID, err := s.callerPatientID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.LabReportsForPatient(ctx, patientID, limit, offset)
}

func (s *Service) UpdateLabReportStatus(ctx context.Context, id uuid.UUID, status LabStatus) error {
	if !status.Valid() {
		return apperr.Validationf("status must be pending, completed or cancelled")
	}
	return s.labReports.UpdateStatus(ctx, id, status)
}

// DownloadLabReport renders the fully joined report for an authorized caller
// and records the generated file's metadata on the report.
func (s *Service) DownloadLabReport(ctx context.Context, principal *auth.Principal, id uuid.UUID) ([]byte, string, error) {
	detail, err := s.GetLabReport(ctx, principal, id)
	if err != nil {
		return nil, "", err
	}
	doc := report.Document{
		ReportID:       detail.ID.String(),
		PatientName:    detail.Patient.Name,
		PatientEmail:   detail.Patient.Email,
		DoctorName:     detail.Doctor.Name,
		Specialization: detail.Doctor.Specialization,
		LaboratoryName: detail.Laboratory.Name,
		IssuedAt:       detail.TestDate,
	}
	if detail.RelatedDiagnosis != nil {
		doc.DiagnosisName = detail.RelatedDiagnosis.Condition
		doc.Symptoms = detail.RelatedDiagnosis.Symptoms
		doc.Description = detail.RelatedDiagnosis.Details
	}
	doc.Tests = []report.TestLine{{
		Name:   detail.TestType,
		Result: detail.Results,
		Remark: detail.Interpretation,
	}}
	body, err := report.Render(doc)
	if err != nil {
		return nil, "", err
	}
	filename := report.Filename(doc)
	file := &ReportFile{FileName: filename, ContentType: report.ContentType, Size: int64(len(body))}
	if err := s.labReports.SetReportFile(ctx, id, file); err != nil {
		return nil, "", err
	}
	return body, filename, nil
}
