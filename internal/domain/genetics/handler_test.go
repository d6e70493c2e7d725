package genetics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler() (*Handler, *serviceFixture) {
	f := newTestService()
	return NewHandler(f.svc, zerolog.Nop()), f
}

func jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHandler_CreateGene(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodPost, "/api/v1/genes",
		`{"symbol":"BRCA1","full_name":"Breast cancer type 1"}`)

	if err := h.CreateGene(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var g Gene
	decodeBody(t, rec, &g)
	if g.ID == 0 || g.Symbol != "BRCA1" {
		t.Errorf("unexpected gene: %+v", g)
	}
}

func TestHandler_CreateGene_ValidationEnvelope(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodPost, "/api/v1/genes", `{}`)

	if err := h.CreateGene(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Errors []string `json:"errors"`
	}
	decodeBody(t, rec, &body)
	if len(body.Errors) != 1 || body.Errors[0] != "gene symbol is required" {
		t.Errorf("unexpected errors: %v", body.Errors)
	}
}

func TestHandler_CreateGene_MalformedBody(t *testing.T) {
	h, _ := newTestHandler()
	c, _ := jsonRequest(http.MethodPost, "/api/v1/genes", `{"symbol":`)

	err := h.CreateGene(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_GetGene_NotFound(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodGet, "/api/v1/genes/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := h.GetGene(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if body.Message != "gene 99 not found" {
		t.Errorf("unexpected message: %q", body.Message)
	}
}

func TestHandler_GetGene_InvalidID(t *testing.T) {
	h, _ := newTestHandler()
	c, _ := jsonRequest(http.MethodGet, "/api/v1/genes/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.GetGene(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_ListGenes_PaginationEnvelope(t *testing.T) {
	h, f := newTestHandler()
	for _, symbol := range []string{"BRCA1", "BRCA2", "TP53"} {
		f.seedGene(t, symbol)
	}

	c, rec := jsonRequest(http.MethodGet, "/api/v1/genes?page=1&page_size=2", "")
	if err := h.ListGenes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Data     []Gene `json:"data"`
		Total    int    `json:"total"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
		HasMore  bool   `json:"has_more"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 3 || body.Page != 1 || body.PageSize != 2 || !body.HasMore {
		t.Errorf("unexpected envelope: %+v", body)
	}
	if len(body.Data) != 2 || body.Data[0].Symbol != "BRCA1" {
		t.Errorf("unexpected data: %+v", body.Data)
	}
}

func TestHandler_SearchGenes(t *testing.T) {
	h, f := newTestHandler()
	f.seedGene(t, "BRCA1")
	f.seedGene(t, "TP53")

	c, rec := jsonRequest(http.MethodGet, "/api/v1/genes/search?symbol=brca", "")
	if err := h.SearchGenes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []Gene `json:"data"`
		Total int    `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 1 || body.Data[0].Symbol != "BRCA1" {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestHandler_DeleteGene_Conflict(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	f.seedVariant(t, g.ID, "17", 100, ImpactMissense)

	c, rec := jsonRequest(http.MethodDelete, "/api/v1/genes/"+strconv.Itoa(g.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(g.ID))

	if err := h.DeleteGene(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Errors []string `json:"errors"`
	}
	decodeBody(t, rec, &body)
	if len(body.Errors) != 1 || body.Errors[0] != "cannot delete gene: 1 variant(s) reference it" {
		t.Errorf("unexpected errors: %v", body.Errors)
	}
}

func TestHandler_DeleteGene(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")

	c, rec := jsonRequest(http.MethodDelete, "/api/v1/genes/"+strconv.Itoa(g.ID), "")
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(g.ID))

	if err := h.DeleteGene(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_CreateVariant_WithoutBases(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")

	payload := `{"gene_id":` + strconv.Itoa(g.ID) +
		`,"chromosome":"17","position":43044295,"impact":"Missense"}`
	c, rec := jsonRequest(http.MethodPost, "/api/v1/variants", payload)

	if err := h.CreateVariant(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var v GeneticVariant
	decodeBody(t, rec, &v)
	if strVal(v.Chromosome) != "17" || i64Val(v.Position) != 43044295 || v.Impact != ImpactMissense {
		t.Errorf("unexpected variant: %+v", v)
	}
	if v.ReferenceBase != nil || v.AlternateBase != nil {
		t.Errorf("expected bases omitted, got %+v", v)
	}
}

func TestHandler_GetVariant_InvalidUUID(t *testing.T) {
	h, _ := newTestHandler()
	c, _ := jsonRequest(http.MethodGet, "/api/v1/variants/nope", "")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.GetVariant(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_ListVariants_ImpactFilter(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	f.seedVariant(t, g.ID, "17", 100, ImpactMissense)
	f.seedVariant(t, g.ID, "17", 200, ImpactSilent)

	c, rec := jsonRequest(http.MethodGet, "/api/v1/variants?impact=Missense", "")
	if err := h.ListVariants(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []GeneticVariant `json:"data"`
		Total int              `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 1 || body.Data[0].Impact != ImpactMissense {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestHandler_ListVariants_InvalidImpact(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodGet, "/api/v1/variants?impact=Awful", "")
	if err := h.ListVariants(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_ListVariants_PositionRange(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	f.seedVariant(t, g.ID, "17", 100, ImpactMissense)
	f.seedVariant(t, g.ID, "17", 900, ImpactSilent)

	c, rec := jsonRequest(http.MethodGet, "/api/v1/variants?chromosome=17&from=50&to=500", "")
	if err := h.ListVariants(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []GeneticVariant `json:"data"`
		Total int              `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 1 || i64Val(body.Data[0].Position) != 100 {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestHandler_CreateReport(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	v := f.seedVariant(t, g.ID, "17", 100, ImpactMissense)
	f.seedClinicPatient("P-001", "Maria", "Lopez")

	payload := `{"patient_id":"P-001","variant_id":"` + v.ID.String() +
		`","detection_date":"2024-06-15","allele_frequency":42.5}`
	c, rec := jsonRequest(http.MethodPost, "/api/v1/reports", payload)

	if err := h.CreateReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var report PatientVariantReport
	decodeBody(t, rec, &report)
	if report.PatientName != "Maria Lopez" || report.GeneSymbol != "BRCA1" {
		t.Errorf("expected enriched response, got %+v", report)
	}
}

func TestHandler_CreateReport_FieldErrors(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	v := f.seedVariant(t, g.ID, "17", 100, ImpactMissense)

	payload := `{"patient_id":"P-404","variant_id":"` + v.ID.String() +
		`","detection_date":"2024-06-15","allele_frequency":42.5}`
	c, rec := jsonRequest(http.MethodPost, "/api/v1/reports", payload)

	if err := h.CreateReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Errors []string `json:"errors"`
	}
	decodeBody(t, rec, &body)
	if len(body.Errors) != 1 || body.Errors[0] != "patient_id: patient not found in clinic service" {
		t.Errorf("unexpected errors: %v", body.Errors)
	}
}

func TestHandler_ListReports_InvalidFilter(t *testing.T) {
	h, _ := newTestHandler()
	c, _ := jsonRequest(http.MethodGet, "/api/v1/reports?variant_id=nope", "")

	err := h.ListReports(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestHandler_ListReportsByPatient(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	v := f.seedVariant(t, g.ID, "17", 100, ImpactMissense)
	f.seedClinicPatient("P-001", "Maria", "Lopez")

	if _, err := f.svc.CreateReport(context.Background(), ReportRequest{
		PatientID:       "P-001",
		VariantID:       v.ID.String(),
		DetectionDate:   "2024-06-15",
		AlleleFrequency: f64Ptr(10),
	}); err != nil {
		t.Fatalf("seeding report: %v", err)
	}

	c, rec := jsonRequest(http.MethodGet, "/api/v1/reports/by-patient/P-001", "")
	c.SetParamNames("patient_id")
	c.SetParamValues("P-001")

	if err := h.ListReportsByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Data  []PatientVariantReport `json:"data"`
		Total int                    `json:"total"`
	}
	decodeBody(t, rec, &body)
	if body.Total != 1 || len(body.Data) != 1 {
		t.Errorf("unexpected result: %+v", body)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodGet, "/api/v1/patients/P-404", "")
	c.SetParamNames("id")
	c.SetParamValues("P-404")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_BulkCreateGenes(t *testing.T) {
	h, _ := newTestHandler()
	c, rec := jsonRequest(http.MethodPost, "/api/v1/genes/bulk",
		`[{"symbol":"BRCA1"},{"symbol":"TP53"}]`)

	if err := h.BulkCreateGenes(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var genes []Gene
	decodeBody(t, rec, &genes)
	if len(genes) != 2 {
		t.Errorf("expected 2 genes, got %d", len(genes))
	}
}

func TestHandler_GeneStats(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	f.seedVariant(t, g.ID, "17", 100, ImpactMissense)
	f.genes.top = []GeneVariantCount{{GeneID: g.ID, Symbol: "BRCA1", VariantCount: 1}}

	c, rec := jsonRequest(http.MethodGet, "/api/v1/genes/stats", "")
	if err := h.GeneStats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stats GeneStats
	decodeBody(t, rec, &stats)
	if stats.TotalGenes != 1 || stats.TotalVariants != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHandler_VariantStats(t *testing.T) {
	h, f := newTestHandler()
	g := f.seedGene(t, "BRCA1")
	f.seedVariant(t, g.ID, "17", 100, ImpactMissense)

	c, rec := jsonRequest(http.MethodGet, "/api/v1/variants/stats", "")
	if err := h.VariantStats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stats VariantStats
	decodeBody(t, rec, &stats)
	if stats.TotalVariants != 1 || stats.ByImpact[ImpactMissense] != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
