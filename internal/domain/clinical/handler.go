package clinical

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
	"github.com/medvault/medvault/internal/platform/report"
	"github.com/medvault/medvault/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Writes are staff operations. Reads carry the second, record-level
	// ownership tier inside the service.
	api.POST("/diagnoses", h.CreateDiagnosis, auth.RequireRole(auth.RoleDoctor, auth.RoleDataEntry))
	api.GET("/diagnoses/:id", h.GetDiagnosis)
	api.GET("/patients/me/medical-history", h.MyMedicalHistory, auth.RequireRole(auth.RolePatient))
	api.GET("/patients/:id/medical-history", h.MedicalHistory, auth.RequireRole(auth.RoleDoctor, auth.RoleDataEntry))

	api.POST("/prescriptions", h.CreatePrescription, auth.RequireRole(auth.RoleDoctor))
	api.GET("/prescriptions/me", h.MyPrescriptions, auth.RequireRole(auth.RolePatient))
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.PUT("/prescriptions/:id/status", h.UpdatePrescriptionStatus, auth.RequireRole(auth.RoleDoctor))
	api.PUT("/prescriptions/:id/purchase", h.RecordPurchase, auth.RequireRole(auth.RolePatient, auth.RolePharmacy))
	api.GET("/patients/:id/prescriptions", h.PrescriptionsForPatient, auth.RequireRole(auth.RoleDoctor, auth.RolePharmacy))

	api.POST("/lab-reports", h.CreateLabReport, auth.RequireRole(auth.RoleLaboratory, auth.RoleDataEntry))
	api.GET("/lab-reports/me", h.MyLabReports, auth.RequireRole(auth.RolePatient))
	api.GET("/lab-reports/:id", h.GetLabReport)
	api.GET("/lab-reports/:id/download", h.DownloadLabReport)
	api.PUT("/lab-reports/:id/status", h.UpdateLabReportStatus, auth.RequireRole(auth.RoleLaboratory, auth.RoleDoctor))
	api.GET("/patients/:id/lab-reports", h.LabReportsForPatient, auth.RequireRole(auth.RoleDoctor, auth.RoleLaboratory))
}

// -- Diagnosis --

func (h *Handler) CreateDiagnosis(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// a doctor always writes under their own profile
	if principal.Role == auth.RoleDoctor {
		own, err := h.svc.profiles.DoctorIDForUser(c.Request().Context(), principal.ID)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		d.DoctorID = own
	}
	if err := h.svc.CreateDiagnosis(c.Request().Context(), &d); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetDiagnosis(c.Request().Context(), principal, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) MedicalHistory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	history, total, err := h.svc.MedicalHistory(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(history, total, pg.Limit, pg.Offset))
}

func (h *Handler) MyMedicalHistory(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	history, total, err := h.svc.MyMedicalHistory(c.Request().Context(), principal.ID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(history, total, pg.Limit, pg.Offset))
}

// -- Prescription --

func (h *Handler) CreatePrescription(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	own, err := h.svc.profiles.DoctorIDForUser(c.Request().Context(), principal.ID)
	if err == nil {
		p.DoctorID = own
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetPrescription(c.Request().Context(), principal, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) MyPrescriptions(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	list, total, err := h.svc.MyPrescriptions(c.Request().Context(), principal.ID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) PrescriptionsForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	list, total, err := h.svc.PrescriptionsForPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdatePrescriptionStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdatePrescriptionStatus(c.Request().Context(), id, PrescriptionStatus(req.Status)); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type purchaseRequest struct {
	PurchasedFrom   PurchaseSource   `json:"purchased_from"`
	PharmacyDetails *PharmacyDetails `json:"pharmacy_details"`
}

func (h *Handler) RecordPurchase(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	detail, err := h.svc.RecordPurchase(c.Request().Context(), principal, id, req.PurchasedFrom, req.PharmacyDetails)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// -- Lab report --

func (h *Handler) CreateLabReport(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	var lr LabReport
	if err := c.Bind(&lr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// a laboratory always files under its own profile
	if principal.Role == auth.RoleLaboratory {
		own, err := h.svc.profiles.LaboratoryIDForUser(c.Request().Context(), principal.ID)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		lr.LaboratoryID = own
	}
	if err := h.svc.CreateLabReport(c.Request().Context(), &lr); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) GetLabReport(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	detail, err := h.svc.GetLabReport(c.Request().Context(), principal, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) MyLabReports(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	list, total, err := h.svc.MyLabReports(c.Request().Context(), principal.ID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) LabReportsForPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	list, total, err := h.svc.LabReportsForPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLabReportStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateLabReportStatus(c.Request().Context(), id, LabStatus(req.Status)); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DownloadLabReport(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	body, filename, err := h.svc.DownloadLabReport(c.Request().Context(), principal, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, report.ContentType, body)
}
