package genetics

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var validImpacts = map[string]bool{
	ImpactMissense:   true,
	ImpactFrameshift: true,
	ImpactNonsense:   true,
	ImpactSilent:     true,
	ImpactUnknown:    true,
}

const detectionDateLayout = "2006-01-02"

// GeneRequest is the payload for creating or replacing a gene.
type GeneRequest struct {
	Symbol          string  `json:"symbol"`
	FullName        *string `json:"full_name"`
	FunctionSummary *string `json:"function_summary"`
}

// Validate returns every rule violation in the payload, not just the first.
func (r *GeneRequest) Validate() []string {
	var errs []string
	if r.Symbol == "" {
		errs = append(errs, "gene symbol is required")
	} else if utf8.RuneCountInString(r.Symbol) > 50 {
		errs = append(errs, "gene symbol cannot exceed 50 characters")
	}
	if r.FullName != nil && utf8.RuneCountInString(*r.FullName) > 255 {
		errs = append(errs, "gene full name cannot exceed 255 characters")
	}
	return errs
}

// VariantRequest is the payload for creating or replacing a variant. Only
// the gene reference is required; the locus fields may be filled in later.
// Position is a pointer so that an explicit zero can be told apart from
// a missing field.
type VariantRequest struct {
	GeneID        int     `json:"gene_id"`
	Chromosome    *string `json:"chromosome"`
	Position      *int64  `json:"position"`
	ReferenceBase *string `json:"reference_base"`
	AlternateBase *string `json:"alternate_base"`
	Impact        string  `json:"impact"`
}

// Validate checks the rules for fields that are present. It also collapses
// empty locus strings to nil so that "" and an omitted field store the same
// way.
func (r *VariantRequest) Validate() []string {
	r.Chromosome = nilIfEmpty(r.Chromosome)
	r.ReferenceBase = nilIfEmpty(r.ReferenceBase)
	r.AlternateBase = nilIfEmpty(r.AlternateBase)

	var errs []string
	if r.GeneID <= 0 {
		errs = append(errs, "gene_id is required")
	}
	if r.Chromosome != nil && utf8.RuneCountInString(*r.Chromosome) > 10 {
		errs = append(errs, "chromosome cannot exceed 10 characters")
	}
	if r.Position != nil && *r.Position < 0 {
		errs = append(errs, "position must be zero or greater")
	}
	if r.ReferenceBase != nil && utf8.RuneCountInString(*r.ReferenceBase) != 1 {
		errs = append(errs, "reference_base must be exactly one character")
	}
	if r.AlternateBase != nil && utf8.RuneCountInString(*r.AlternateBase) != 1 {
		errs = append(errs, "alternate_base must be exactly one character")
	}
	if r.Impact != "" && !validImpacts[r.Impact] {
		errs = append(errs, "impact must be one of: Missense, Frameshift, Nonsense, Silent, Unknown")
	}
	return errs
}

func nilIfEmpty(p *string) *string {
	if p != nil && *p == "" {
		return nil
	}
	return p
}

// ReportRequest is the payload for creating or replacing a patient variant
// report. VariantID and DetectionDate come in as strings and are parsed
// during validation.
type ReportRequest struct {
	PatientID       string   `json:"patient_id"`
	VariantID       string   `json:"variant_id"`
	DetectionDate   string   `json:"detection_date"`
	AlleleFrequency *float64 `json:"allele_frequency"`
	Notes           *string  `json:"notes"`
}

func (r *ReportRequest) Validate() []string {
	var errs []string
	if r.PatientID == "" {
		errs = append(errs, "patient_id is required")
	}
	if r.VariantID == "" {
		errs = append(errs, "variant_id is required")
	} else if _, err := uuid.Parse(r.VariantID); err != nil {
		errs = append(errs, "variant_id must be a valid UUID")
	}
	if r.DetectionDate == "" {
		errs = append(errs, "detection_date is required")
	} else if _, err := time.Parse(detectionDateLayout, r.DetectionDate); err != nil {
		errs = append(errs, "detection_date must be a valid date in YYYY-MM-DD format")
	}
	if r.AlleleFrequency != nil && (*r.AlleleFrequency < 0 || *r.AlleleFrequency > 100) {
		errs = append(errs, "allele_frequency must be between 0 and 100")
	}
	return errs
}

// GeneUpdateRequest carries a partial gene update. Nil fields are left
// unchanged.
type GeneUpdateRequest struct {
	Symbol          *string `json:"symbol"`
	FullName        *string `json:"full_name"`
	FunctionSummary *string `json:"function_summary"`
}

// apply overlays the provided fields onto g and returns the merged payload
// for validation.
func (r *GeneUpdateRequest) apply(g *Gene) GeneRequest {
	if r.Symbol != nil {
		g.Symbol = *r.Symbol
	}
	if r.FullName != nil {
		g.FullName = r.FullName
	}
	if r.FunctionSummary != nil {
		g.FunctionSummary = r.FunctionSummary
	}
	return GeneRequest{Symbol: g.Symbol, FullName: g.FullName, FunctionSummary: g.FunctionSummary}
}

// VariantUpdateRequest carries a partial variant update.
type VariantUpdateRequest struct {
	GeneID        *int    `json:"gene_id"`
	Chromosome    *string `json:"chromosome"`
	Position      *int64  `json:"position"`
	ReferenceBase *string `json:"reference_base"`
	AlternateBase *string `json:"alternate_base"`
	Impact        *string `json:"impact"`
}

// apply overlays the provided fields onto v. Setting a locus field to ""
// clears it.
func (r *VariantUpdateRequest) apply(v *GeneticVariant) VariantRequest {
	if r.GeneID != nil {
		v.GeneID = *r.GeneID
	}
	if r.Chromosome != nil {
		v.Chromosome = nilIfEmpty(r.Chromosome)
	}
	if r.Position != nil {
		v.Position = r.Position
	}
	if r.ReferenceBase != nil {
		v.ReferenceBase = nilIfEmpty(r.ReferenceBase)
	}
	if r.AlternateBase != nil {
		v.AlternateBase = nilIfEmpty(r.AlternateBase)
	}
	if r.Impact != nil {
		v.Impact = *r.Impact
	}
	return VariantRequest{
		GeneID:        v.GeneID,
		Chromosome:    v.Chromosome,
		Position:      v.Position,
		ReferenceBase: v.ReferenceBase,
		AlternateBase: v.AlternateBase,
		Impact:        v.Impact,
	}
}

// ReportUpdateRequest carries a partial report update.
type ReportUpdateRequest struct {
	PatientID       *string  `json:"patient_id"`
	VariantID       *string  `json:"variant_id"`
	DetectionDate   *string  `json:"detection_date"`
	AlleleFrequency *float64 `json:"allele_frequency"`
	Notes           *string  `json:"notes"`
}

func (r *ReportUpdateRequest) apply(existing *PatientVariantReport) ReportRequest {
	merged := ReportRequest{
		PatientID:       existing.PatientID,
		VariantID:       existing.VariantID.String(),
		DetectionDate:   existing.DetectionDate.Format(detectionDateLayout),
		AlleleFrequency: existing.AlleleFrequency,
		Notes:           existing.Notes,
	}
	if r.PatientID != nil {
		merged.PatientID = *r.PatientID
	}
	if r.VariantID != nil {
		merged.VariantID = *r.VariantID
	}
	if r.DetectionDate != nil {
		merged.DetectionDate = *r.DetectionDate
	}
	if r.AlleleFrequency != nil {
		merged.AlleleFrequency = r.AlleleFrequency
	}
	if r.Notes != nil {
		merged.Notes = r.Notes
	}
	return merged
}

// variantID returns the parsed variant UUID. Call only after Validate.
func (r *ReportRequest) variantID() uuid.UUID {
	id, _ := uuid.Parse(r.VariantID)
	return id
}

// detectionDate returns the parsed detection date. Call only after Validate.
func (r *ReportRequest) detectionDate() time.Time {
	d, _ := time.Parse(detectionDateLayout, r.DetectionDate)
	return d
}
