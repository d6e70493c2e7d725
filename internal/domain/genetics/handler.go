package genetics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/genosentinel/genomics/internal/platform/auth"
	"github.com/genosentinel/genomics/pkg/apperr"
	"github.com/genosentinel/genomics/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, geneticist, clinician
	readGroup := api.Group("", auth.RequireRole("admin", "geneticist", "clinician"))
	readGroup.GET("/genes", h.ListGenes)
	readGroup.GET("/genes/search", h.SearchGenes)
	readGroup.GET("/genes/stats", h.GeneStats)
	readGroup.GET("/genes/:id", h.GetGene)
	readGroup.GET("/variants", h.ListVariants)
	readGroup.GET("/variants/stats", h.VariantStats)
	readGroup.GET("/variants/by-gene/:gene_id", h.ListVariantsByGene)
	readGroup.GET("/variants/by-impact", h.ListVariantsByImpact)
	readGroup.GET("/variants/:id", h.GetVariant)
	readGroup.GET("/reports", h.ListReports)
	readGroup.GET("/reports/by-patient/:patient_id", h.ListReportsByPatient)
	readGroup.GET("/reports/:id", h.GetReport)
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)

	// Write endpoints – admin, geneticist
	writeGroup := api.Group("", auth.RequireRole("admin", "geneticist"))
	writeGroup.POST("/genes", h.CreateGene)
	writeGroup.POST("/genes/bulk", h.BulkCreateGenes)
	writeGroup.PUT("/genes/:id", h.UpdateGene)
	writeGroup.PATCH("/genes/:id", h.UpdateGene)
	writeGroup.DELETE("/genes/:id", h.DeleteGene)
	writeGroup.POST("/variants", h.CreateVariant)
	writeGroup.POST("/variants/bulk", h.BulkCreateVariants)
	writeGroup.PUT("/variants/:id", h.UpdateVariant)
	writeGroup.PATCH("/variants/:id", h.UpdateVariant)
	writeGroup.DELETE("/variants/:id", h.DeleteVariant)
	writeGroup.POST("/reports", h.CreateReport)
	writeGroup.PUT("/reports/:id", h.UpdateReport)
	writeGroup.PATCH("/reports/:id", h.UpdateReport)
	writeGroup.DELETE("/reports/:id", h.DeleteReport)
}

// writeError maps service errors onto the HTTP error envelope.
func (h *Handler) writeError(c echo.Context, err error) error {
	if ve := apperr.AsValidation(err); ve != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"errors": ve.Messages()})
	}
	if apperr.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": err.Error()})
	}
	if apperr.IsConflict(err) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"errors": []string{err.Error()}})
	}
	h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": "internal server error"})
}

func intParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// -- Gene Handlers --

func (h *Handler) CreateGene(c echo.Context) error {
	var req GeneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g, err := h.svc.CreateGene(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) BulkCreateGenes(c echo.Context) error {
	var reqs []GeneRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	genes, err := h.svc.BulkCreateGenes(c.Request().Context(), reqs)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, genes)
}

func (h *Handler) GetGene(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	g, err := h.svc.GetGene(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ListGenes(c echo.Context) error {
	p := pagination.FromContext(c)
	genes, total, err := h.svc.ListGenes(c.Request().Context(), p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(genes, total, p))
}

func (h *Handler) SearchGenes(c echo.Context) error {
	p := pagination.FromContext(c)
	genes, total, err := h.svc.SearchGenes(c.Request().Context(), c.QueryParam("symbol"), p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(genes, total, p))
}

func (h *Handler) GeneStats(c echo.Context) error {
	stats, err := h.svc.GetGeneStats(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) UpdateGene(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req GeneUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g, err := h.svc.UpdateGene(c.Request().Context(), id, req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) DeleteGene(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteGene(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Variant Handlers --

func (h *Handler) CreateVariant(c echo.Context) error {
	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.CreateVariant(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) BulkCreateVariants(c echo.Context) error {
	var reqs []VariantRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	variants, err := h.svc.BulkCreateVariants(c.Request().Context(), reqs)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, variants)
}

func (h *Handler) GetVariant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	v, err := h.svc.GetVariant(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ListVariants serves the plain listing plus the impact, chromosome and
// position-range filters from query parameters.
func (h *Handler) ListVariants(c echo.Context) error {
	p := pagination.FromContext(c)
	ctx := c.Request().Context()

	if impact := c.QueryParam("impact"); impact != "" {
		variants, total, err := h.svc.ListVariantsByImpact(ctx, impact, p.Limit(), p.Offset())
		if err != nil {
			return h.writeError(c, err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(variants, total, p))
	}

	if chromosome := c.QueryParam("chromosome"); chromosome != "" {
		from, err := positionParam(c, "from", 0)
		if err != nil {
			return err
		}
		to, err := positionParam(c, "to", int64(1)<<62)
		if err != nil {
			return err
		}
		variants, total, err := h.svc.ListVariantsByPositionRange(ctx, chromosome, from, to, p.Limit(), p.Offset())
		if err != nil {
			return h.writeError(c, err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(variants, total, p))
	}

	variants, total, err := h.svc.ListVariants(ctx, p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(variants, total, p))
}

func positionParam(c echo.Context, name string, fallback int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func (h *Handler) ListVariantsByGene(c echo.Context) error {
	geneID, err := intParam(c, "gene_id")
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	variants, total, err := h.svc.ListVariantsByGene(c.Request().Context(), geneID, p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(variants, total, p))
}

func (h *Handler) ListVariantsByImpact(c echo.Context) error {
	p := pagination.FromContext(c)
	impact := c.QueryParam("impact")
	if impact == "" {
		impact = ImpactUnknown
	}
	variants, total, err := h.svc.ListVariantsByImpact(c.Request().Context(), impact, p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(variants, total, p))
}

func (h *Handler) VariantStats(c echo.Context) error {
	stats, err := h.svc.GetVariantStats(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) UpdateVariant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	var req VariantUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.UpdateVariant(c.Request().Context(), id, req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVariant(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid variant id")
	}
	if err := h.svc.DeleteVariant(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Report Handlers --

func (h *Handler) CreateReport(c echo.Context) error {
	var req ReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	report, err := h.svc.CreateReport(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	report, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) ListReports(c echo.Context) error {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	reports, total, err := h.svc.ListReports(c.Request().Context(), filter, p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, p))
}

func reportFilterFromQuery(c echo.Context) (ReportFilter, error) {
	var filter ReportFilter
	filter.PatientID = c.QueryParam("patient_id")

	if raw := c.QueryParam("variant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid variant_id")
		}
		filter.VariantID = id
	}
	if raw := c.QueryParam("gene_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid gene_id")
		}
		filter.GeneID = id
	}
	if raw := c.QueryParam("from"); raw != "" {
		d, err := time.Parse(detectionDateLayout, raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		filter.From = d
	}
	if raw := c.QueryParam("to"); raw != "" {
		d, err := time.Parse(detectionDateLayout, raw)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		filter.To = d
	}
	return filter, nil
}

func (h *Handler) ListReportsByPatient(c echo.Context) error {
	patientID := c.Param("patient_id")
	p := pagination.FromContext(c)
	reports, total, err := h.svc.ListReportsByPatient(c.Request().Context(), patientID, p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reports, total, p))
}

func (h *Handler) UpdateReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	var req ReportUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	report, err := h.svc.UpdateReport(c.Request().Context(), id, req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) DeleteReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report id")
	}
	if err := h.svc.DeleteReport(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient Handlers --

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), p.Limit(), p.Offset())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, p))
}
