package clinical

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/domain/hospital"
	"github.com/medvault/medvault/internal/domain/identity"
	"github.com/medvault/medvault/internal/domain/profile"
	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
)

// -- record repo mocks --

type mockDiagnosisRepo struct{ byID map[uuid.UUID]*Diagnosis }

func (m *mockDiagnosisRepo) Create(_ context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	m.byID[d.ID] = d
	return nil
}

func (m *mockDiagnosisRepo) GetByID(_ context.Context, id uuid.UUID) (*Diagnosis, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDiagnosisRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Diagnosis, int, error) {
	var out []*Diagnosis
	for _, d := range m.byID {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiagnosisDate.After(out[j].DiagnosisDate) })
	return out, len(out), nil
}

type mockPrescriptionRepo struct{ byID map[uuid.UUID]*Prescription }

func (m *mockPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return nil
}

func (m *mockPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPrescriptionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.byID {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, len(out), nil
}

func (m *mockPrescriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status PrescriptionStatus) error {
	p, ok := m.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockPrescriptionRepo) RecordPurchase(_ context.Context, id uuid.UUID, source PurchaseSource, details *PharmacyDetails) (bool, error) {
	p, ok := m.byID[id]
	if !ok {
		return false, apperr.ErrNotFound
	}
	if p.PurchasedFrom != PurchaseNone {
		return false, nil
	}
	p.PurchasedFrom = source
	p.PharmacyDetails = details
	return true, nil
}

type mockLabReportRepo struct{ byID map[uuid.UUID]*LabReport }

func (m *mockLabReportRepo) Create(_ context.Context, r *LabReport) error {
	r.ID = uuid.New()
	m.byID[r.ID] = r
	return nil
}

func (m *mockLabReportRepo) GetByID(_ context.Context, id uuid.UUID) (*LabReport, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockLabReportRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*LabReport, int, error) {
	var out []*LabReport
	for _, r := range m.byID {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestDate.After(out[j].TestDate) })
	return out, len(out), nil
}

func (m *mockLabReportRepo) UpdateStatus(_ context.Context, id uuid.UUID, status LabStatus) error {
	r, ok := m.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *mockLabReportRepo) SetReportFile(_ context.Context, id uuid.UUID, file *ReportFile) error {
	r, ok := m.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	r.ReportFile = file
	return nil
}

// -- directory mocks --

type mockDirectory struct {
	patients     map[uuid.UUID]*profile.PatientProfile
	doctors      map[uuid.UUID]*profile.DoctorProfile
	pharmacies   map[uuid.UUID]*profile.PharmacyProfile
	laboratories map[uuid.UUID]*profile.LaboratoryProfile
	users        map[uuid.UUID]*identity.User
	hospitals    map[uuid.UUID]*hospital.Hospital
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*profile.PatientProfile, error) {
	if p, ok := m.patients[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*profile.DoctorProfile, error) {
	if d, ok := m.doctors[id]; ok {
		return d, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDirectory) GetPharmacy(_ context.Context, id uuid.UUID) (*profile.PharmacyProfile, error) {
	if p, ok := m.pharmacies[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDirectory) GetLaboratory(_ context.Context, id uuid.UUID) (*profile.LaboratoryProfile, error) {
	if l, ok := m.laboratories[id]; ok {
		return l, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDirectory) PatientIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			return p.ID, nil
		}
	}
	return uuid.Nil, apperr.ErrNotFound
}

func (m *mockDirectory) DoctorIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return d.ID, nil
		}
	}
	return uuid.Nil, apperr.ErrNotFound
}

func (m *mockDirectory) PharmacyIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	for _, p := range m.pharmacies {
		if p.UserID == userID {
			return p.ID, nil
		}
	}
	return uuid.Nil, apperr.ErrNotFound
}

func (m *mockDirectory) LaboratoryIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	for _, l := range m.laboratories {
		if l.UserID == userID {
			return l.ID, nil
		}
	}
	return uuid.Nil, apperr.ErrNotFound
}

func (m *mockDirectory) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDirectory) Get(_ context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	if h, ok := m.hospitals[id]; ok {
		return h, nil
	}
	return nil, apperr.ErrNotFound
}

type world struct {
	svc        *Service
	dir        *mockDirectory
	diagnoses  *mockDiagnosisRepo
	patientID  uuid.UUID
	patientUID uuid.UUID
	doctorID   uuid.UUID
	doctorUID  uuid.UUID
	labID      uuid.UUID
	pharmacyID uuid.UUID
}

func newWorld() *world {
	dir := &mockDirectory{
		patients:     make(map[uuid.UUID]*profile.PatientProfile),
		doctors:      make(map[uuid.UUID]*profile.DoctorProfile),
		pharmacies:   make(map[uuid.UUID]*profile.PharmacyProfile),
		laboratories: make(map[uuid.UUID]*profile.LaboratoryProfile),
		users:        make(map[uuid.UUID]*identity.User),
		hospitals:    make(map[uuid.UUID]*hospital.Hospital),
	}
	w := &world{dir: dir}

	w.patientUID = uuid.New()
	dir.users[w.patientUID] = &identity.User{ID: w.patientUID, FirstName: "Jane", LastName: "Roe", Email: "jane@example.com", Role: auth.RolePatient}
	w.patientID = uuid.New()
	dir.patients[w.patientID] = &profile.PatientProfile{ID: w.patientID, UserID: w.patientUID}

	w.doctorUID = uuid.New()
	dir.users[w.doctorUID] = &identity.User{ID: w.doctorUID, FirstName: "Kim", LastName: "Park", Email: "kim@example.com", Role: auth.RoleDoctor}
	w.doctorID = uuid.New()
	dir.doctors[w.doctorID] = &profile.DoctorProfile{ID: w.doctorID, UserID: w.doctorUID, Specialization: "Cardiology"}

	labUID := uuid.New()
	w.labID = uuid.New()
	dir.laboratories[w.labID] = &profile.LaboratoryProfile{ID: w.labID, UserID: labUID, Name: "Central Labs", IsHospitalOwned: true}

	pharmacyUID := uuid.New()
	w.pharmacyID = uuid.New()
	dir.pharmacies[w.pharmacyID] = &profile.PharmacyProfile{ID: w.pharmacyID, UserID: pharmacyUID, Name: "Corner Pharmacy"}

	w.diagnoses = &mockDiagnosisRepo{byID: make(map[uuid.UUID]*Diagnosis)}
	w.svc = NewService(
		w.diagnoses,
		&mockPrescriptionRepo{byID: make(map[uuid.UUID]*Prescription)},
		&mockLabReportRepo{byID: make(map[uuid.UUID]*LabReport)},
		dir, dir, dir,
	)
	return w
}

func (w *world) patientPrincipal() *auth.Principal {
	return &auth.Principal{ID: w.patientUID, Role: auth.RolePatient}
}

func (w *world) doctorPrincipal() *auth.Principal {
	return &auth.Principal{ID: w.doctorUID, Role: auth.RoleDoctor}
}

func (w *world) foreignPatientPrincipal() *auth.Principal {
	uid := uuid.New()
	w.dir.users[uid] = &identity.User{ID: uid, FirstName: "Max", LastName: "Grey", Role: auth.RolePatient}
	pid := uuid.New()
	w.dir.patients[pid] = &profile.PatientProfile{ID: pid, UserID: uid}
	return &auth.Principal{ID: uid, Role: auth.RolePatient}
}

func (w *world) newDiagnosis(t *testing.T, date time.Time) *Diagnosis {
	t.Helper()
	d := &Diagnosis{
		PatientID:     w.patientID,
		DoctorID:      w.doctorID,
		Condition:     "Hypertension",
		Details:       "Stage 1",
		Symptoms:      []string{"headache"},
		DiagnosisDate: date,
	}
	if err := w.svc.CreateDiagnosis(context.Background(), d); err != nil {
		t.Fatalf("create diagnosis: %v", err)
	}
	return d
}

func (w *world) newPrescription(t *testing.T, diagnosisID uuid.UUID) *Prescription {
	t.Helper()
	p := &Prescription{
		PatientID:   w.patientID,
		DoctorID:    w.doctorID,
		DiagnosisID: diagnosisID,
		Medications: []Medication{{Name: "Lisinopril", Dosage: "10mg", Frequency: "daily", Duration: "30 days"}},
	}
	if err := w.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("create prescription: %v", err)
	}
	return p
}

// -- tests --

func TestCreateDiagnosis_DanglingRefs(t *testing.T) {
	w := newWorld()
	d := &Diagnosis{PatientID: uuid.New(), DoctorID: w.doctorID, Condition: "Flu"}
	if err := w.svc.CreateDiagnosis(context.Background(), d); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown patient must be NotFound, got %v", err)
	}
	d = &Diagnosis{PatientID: w.patientID, DoctorID: uuid.New(), Condition: "Flu"}
	if err := w.svc.CreateDiagnosis(context.Background(), d); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown doctor must be NotFound, got %v", err)
	}
}

func TestGetDiagnosis_Joined(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())

	detail, err := w.svc.GetDiagnosis(context.Background(), w.doctorPrincipal(), d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Patient.Name != "Jane Roe" {
		t.Errorf("patient name not joined, got %q", detail.Patient.Name)
	}
	if detail.Doctor.Name != "Kim Park" || detail.Doctor.Specialization != "Cardiology" {
		t.Errorf("doctor not joined, got %+v", detail.Doctor)
	}
}

func TestGetDiagnosis_BrokenJoinIsNotFound(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())

	// the patient profile disappears after the record was written
	delete(w.dir.patients, w.patientID)
	_, err := w.svc.GetDiagnosis(context.Background(), w.doctorPrincipal(), d.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("dangling hop must be NotFound, got %v", err)
	}
}

func TestOwnership(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())

	// own record
	if _, err := w.svc.GetDiagnosis(context.Background(), w.patientPrincipal(), d.ID); err != nil {
		t.Errorf("patient must read own record: %v", err)
	}

	// foreign patient: Forbidden, not NotFound
	_, err := w.svc.GetDiagnosis(context.Background(), w.foreignPatientPrincipal(), d.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign patient must be Forbidden, got %v", err)
	}

	// doctor and admin are never ownership-blocked
	if _, err := w.svc.GetDiagnosis(context.Background(), w.doctorPrincipal(), d.ID); err != nil {
		t.Errorf("doctor must not be ownership-blocked: %v", err)
	}
	admin := &auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}
	if _, err := w.svc.GetDiagnosis(context.Background(), admin, d.ID); err != nil {
		t.Errorf("admin must not be ownership-blocked: %v", err)
	}
}

func TestHistoryOrdering(t *testing.T) {
	w := newWorld()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	w.newDiagnosis(t, jan)
	w.newDiagnosis(t, mar)
	w.newDiagnosis(t, feb)

	history, total, err := w.svc.MyMedicalHistory(context.Background(), w.patientUID, 20, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 3 || len(history) != 3 {
		t.Fatalf("expected 3 entries, got total=%d len=%d", total, len(history))
	}
	want := []time.Time{mar, feb, jan}
	for i, detail := range history {
		if !detail.DiagnosisDate.Equal(want[i]) {
			t.Errorf("position %d: got %s, want %s", i, detail.DiagnosisDate, want[i])
		}
	}
}

func TestCreatePrescription_PurchaseInvariant(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())

	// purchased without pharmacy details is rejected
	p := &Prescription{
		PatientID:     w.patientID,
		DoctorID:      w.doctorID,
		DiagnosisID:   d.ID,
		Medications:   []Medication{{Name: "Aspirin"}},
		PurchasedFrom: PurchaseOutside,
	}
	err := w.svc.CreatePrescription(context.Background(), p)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("purchase without pharmacy_details must fail validation, got %v", err)
	}

	// with details it passes
	p.PharmacyDetails = &PharmacyDetails{PharmacyID: w.pharmacyID, PurchaseDate: time.Now()}
	if err := w.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Errorf("valid purchase at creation must pass: %v", err)
	}

	// not_purchased never stores stale details
	p2 := &Prescription{
		PatientID:       w.patientID,
		DoctorID:        w.doctorID,
		DiagnosisID:     d.ID,
		Medications:     []Medication{{Name: "Aspirin"}},
		PharmacyDetails: &PharmacyDetails{PharmacyID: w.pharmacyID},
	}
	if err := w.svc.CreatePrescription(context.Background(), p2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p2.PharmacyDetails != nil {
		t.Error("pharmacy details must be dropped while not_purchased")
	}
}

func TestRecordPurchase_OneDirectional(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())
	p := w.newPrescription(t, d.ID)
	details := &PharmacyDetails{PharmacyID: w.pharmacyID}

	detail, err := w.svc.RecordPurchase(context.Background(), w.patientPrincipal(), p.ID, PurchaseHospital, details)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if detail.PurchasedFrom != PurchaseHospital || detail.Pharmacy == nil {
		t.Errorf("purchase not recorded: %+v", detail.Prescription)
	}

	// second purchase is refused
	_, err = w.svc.RecordPurchase(context.Background(), w.patientPrincipal(), p.ID, PurchaseOutside, details)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("re-purchase must be Conflict, got %v", err)
	}

	// reverting is refused
	_, err = w.svc.RecordPurchase(context.Background(), w.patientPrincipal(), p.ID, PurchaseNone, nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("reverting must fail validation, got %v", err)
	}
}

func TestRecordPurchase_ForeignPatient(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())
	p := w.newPrescription(t, d.ID)

	_, err := w.svc.RecordPurchase(context.Background(), w.foreignPatientPrincipal(), p.ID,
		PurchaseOutside, &PharmacyDetails{PharmacyID: w.pharmacyID})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign patient purchase must be Forbidden, got %v", err)
	}
}

func TestCreateLabReport_SnapshotsHospitalFlag(t *testing.T) {
	w := newWorld()
	lr := &LabReport{
		PatientID:    w.patientID,
		DoctorID:     w.doctorID,
		LaboratoryID: w.labID,
		TestType:     "Blood Panel",
		Results:      "normal",
	}
	if err := w.svc.CreateLabReport(context.Background(), lr); err != nil {
		t.Fatalf("create lab report: %v", err)
	}
	if !lr.IsHospitalLab {
		t.Error("is_hospital_lab must be denormalized from the laboratory")
	}
	if lr.Status != LabPending {
		t.Errorf("status must default to pending, got %s", lr.Status)
	}
}

func TestDownloadLabReport(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Now())
	lr := &LabReport{
		PatientID:          w.patientID,
		DoctorID:           w.doctorID,
		LaboratoryID:       w.labID,
		TestType:           "Blood Panel",
		Results:            "elevated",
		Interpretation:     "follow up",
		RelatedDiagnosisID: &d.ID,
		TestDate:           time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
	}
	if err := w.svc.CreateLabReport(context.Background(), lr); err != nil {
		t.Fatal(err)
	}

	body, filename, err := w.svc.DownloadLabReport(context.Background(), w.patientPrincipal(), lr.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(body) == 0 || filename == "" {
		t.Fatal("empty download")
	}
	for _, want := range []string{"Jane Roe", "Central Labs", "Blood Panel", "Hypertension"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("rendered report missing %q", want)
		}
	}

	// file metadata is recorded on the report
	stored, err := w.svc.labReports.GetByID(context.Background(), lr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ReportFile == nil || stored.ReportFile.Size != int64(len(body)) {
		t.Errorf("report file metadata not recorded: %+v", stored.ReportFile)
	}

	// ownership applies to downloads too
	_, _, err = w.svc.DownloadLabReport(context.Background(), w.foreignPatientPrincipal(), lr.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign download must be Forbidden, got %v", err)
	}
}

func TestMissingRecordIsNotFound(t *testing.T) {
	w := newWorld()
	if _, err := w.svc.GetDiagnosis(context.Background(), w.doctorPrincipal(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing record must be NotFound, got %v", err)
	}
}

func TestNoProfileCallerIsForbiddenEverywhere(t *testing.T) {
	w := newWorld()
	d := w.newDiagnosis(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	// a registered user who never created a patient profile
	uid := uuid.New()
	w.dir.users[uid] = &identity.User{ID: uid, FirstName: "New", LastName: "User", Role: auth.RolePatient}
	p := &auth.Principal{ID: uid, Role: auth.RolePatient}

	if _, _, err := w.svc.MyMedicalHistory(context.Background(), uid, 20, 0); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("MyMedicalHistory without a profile: expected forbidden, got %v", err)
	}
	if _, _, err := w.svc.MyPrescriptions(context.Background(), uid, 20, 0); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("MyPrescriptions without a profile: expected forbidden, got %v", err)
	}
	if _, _, err := w.svc.MyLabReports(context.Background(), uid, 20, 0); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("MyLabReports without a profile: expected forbidden, got %v", err)
	}
	if _, err := w.svc.GetDiagnosis(context.Background(), p, d.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("GetDiagnosis without a profile: expected forbidden, got %v", err)
	}
}
