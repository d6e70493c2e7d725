package genetics

import (
	"strings"
	"testing"
)

func strPtr(s string) *string   { return &s }
func i64Ptr(v int64) *int64     { return &v }
func f64Ptr(v float64) *float64 { return &v }

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func i64Val(p *int64) int64 {
	if p == nil {
		return -1
	}
	return *p
}

func assertHasError(t *testing.T, errs []string, want string) {
	t.Helper()
	for _, e := range errs {
		if e == want {
			return
		}
	}
	t.Errorf("expected error %q in %v", want, errs)
}

func TestGeneRequest_Valid(t *testing.T) {
	req := GeneRequest{Symbol: "BRCA1", FullName: strPtr("Breast cancer type 1")}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestGeneRequest_MissingSymbol(t *testing.T) {
	req := GeneRequest{}
	errs := req.Validate()
	assertHasError(t, errs, "gene symbol is required")
}

func TestGeneRequest_SymbolTooLong(t *testing.T) {
	req := GeneRequest{Symbol: strings.Repeat("A", 51)}
	assertHasError(t, req.Validate(), "gene symbol cannot exceed 50 characters")
}

func TestGeneRequest_FullNameTooLong(t *testing.T) {
	req := GeneRequest{Symbol: "TP53", FullName: strPtr(strings.Repeat("x", 256))}
	assertHasError(t, req.Validate(), "gene full name cannot exceed 255 characters")
}

func TestGeneRequest_CollectsAllErrors(t *testing.T) {
	req := GeneRequest{FullName: strPtr(strings.Repeat("x", 256))}
	errs := req.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestVariantRequest_Valid(t *testing.T) {
	req := VariantRequest{
		GeneID:        1,
		Chromosome:    strPtr("17"),
		Position:      i64Ptr(43044295),
		ReferenceBase: strPtr("A"),
		AlternateBase: strPtr("G"),
		Impact:        ImpactMissense,
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestVariantRequest_LocusFieldsOptional(t *testing.T) {
	req := VariantRequest{
		GeneID:     1,
		Chromosome: strPtr("17"),
		Position:   i64Ptr(43044295),
		Impact:     ImpactMissense,
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors without bases, got %v", errs)
	}
}

func TestVariantRequest_OnlyGeneRequired(t *testing.T) {
	req := VariantRequest{GeneID: 1}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors for gene-only request, got %v", errs)
	}
}

func TestVariantRequest_EmptyStringsTreatedAsAbsent(t *testing.T) {
	req := VariantRequest{
		GeneID:        1,
		Chromosome:    strPtr(""),
		ReferenceBase: strPtr(""),
		AlternateBase: strPtr(""),
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if req.Chromosome != nil || req.ReferenceBase != nil || req.AlternateBase != nil {
		t.Errorf("expected empty fields collapsed to nil: %+v", req)
	}
}

func TestVariantRequest_ZeroPositionAllowed(t *testing.T) {
	req := VariantRequest{
		GeneID:        1,
		Chromosome:    strPtr("X"),
		Position:      i64Ptr(0),
		ReferenceBase: strPtr("C"),
		AlternateBase: strPtr("T"),
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors for position 0, got %v", errs)
	}
}

func TestVariantRequest_CollectsAllErrors(t *testing.T) {
	req := VariantRequest{
		Chromosome:    strPtr("chromosome17"),
		Position:      i64Ptr(-5),
		ReferenceBase: strPtr("AT"),
		Impact:        "Terrible",
	}
	errs := req.Validate()
	assertHasError(t, errs, "gene_id is required")
	assertHasError(t, errs, "chromosome cannot exceed 10 characters")
	assertHasError(t, errs, "position must be zero or greater")
	assertHasError(t, errs, "reference_base must be exactly one character")
	assertHasError(t, errs, "impact must be one of: Missense, Frameshift, Nonsense, Silent, Unknown")
	if len(errs) != 5 {
		t.Errorf("expected 5 errors, got %d: %v", len(errs), errs)
	}
}

func TestVariantRequest_NegativePosition(t *testing.T) {
	req := VariantRequest{
		GeneID:        1,
		Chromosome:    strPtr("1"),
		Position:      i64Ptr(-5),
		ReferenceBase: strPtr("A"),
		AlternateBase: strPtr("T"),
	}
	assertHasError(t, req.Validate(), "position must be zero or greater")
}

func TestVariantRequest_MultiBaseRejected(t *testing.T) {
	req := VariantRequest{
		GeneID:        1,
		Chromosome:    strPtr("2"),
		Position:      i64Ptr(100),
		ReferenceBase: strPtr("AT"),
		AlternateBase: strPtr("GC"),
	}
	errs := req.Validate()
	assertHasError(t, errs, "reference_base must be exactly one character")
	assertHasError(t, errs, "alternate_base must be exactly one character")
}

func TestReportRequest_Valid(t *testing.T) {
	req := ReportRequest{
		PatientID:       "P-001",
		VariantID:       "d6d98b88-c866-4496-9bd4-de7ba48d0f52",
		DetectionDate:   "2024-06-15",
		AlleleFrequency: f64Ptr(42.5),
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestReportRequest_CollectsAllErrors(t *testing.T) {
	req := ReportRequest{}
	errs := req.Validate()
	assertHasError(t, errs, "patient_id is required")
	assertHasError(t, errs, "variant_id is required")
	assertHasError(t, errs, "detection_date is required")
	if len(errs) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}

func TestReportRequest_AlleleFrequencyOptional(t *testing.T) {
	req := ReportRequest{
		PatientID:     "P-001",
		VariantID:     "d6d98b88-c866-4496-9bd4-de7ba48d0f52",
		DetectionDate: "2024-01-15",
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors without allele_frequency, got %v", errs)
	}
}

func TestReportRequest_BadVariantID(t *testing.T) {
	req := ReportRequest{
		PatientID:       "P-001",
		VariantID:       "not-a-uuid",
		DetectionDate:   "2024-06-15",
		AlleleFrequency: f64Ptr(50),
	}
	assertHasError(t, req.Validate(), "variant_id must be a valid UUID")
}

func TestReportRequest_BadDate(t *testing.T) {
	req := ReportRequest{
		PatientID:       "P-001",
		VariantID:       "d6d98b88-c866-4496-9bd4-de7ba48d0f52",
		DetectionDate:   "15/06/2024",
		AlleleFrequency: f64Ptr(50),
	}
	assertHasError(t, req.Validate(), "detection_date must be a valid date in YYYY-MM-DD format")
}

func TestReportRequest_AlleleFrequencyRange(t *testing.T) {
	for _, bad := range []float64{-0.1, 100.1} {
		req := ReportRequest{
			PatientID:       "P-001",
			VariantID:       "d6d98b88-c866-4496-9bd4-de7ba48d0f52",
			DetectionDate:   "2024-06-15",
			AlleleFrequency: f64Ptr(bad),
		}
		assertHasError(t, req.Validate(), "allele_frequency must be between 0 and 100")
	}
	for _, good := range []float64{0, 100} {
		req := ReportRequest{
			PatientID:       "P-001",
			VariantID:       "d6d98b88-c866-4496-9bd4-de7ba48d0f52",
			DetectionDate:   "2024-06-15",
			AlleleFrequency: f64Ptr(good),
		}
		if errs := req.Validate(); len(errs) != 0 {
			t.Errorf("expected %v to be accepted, got %v", good, errs)
		}
	}
}
