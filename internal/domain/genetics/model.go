// Package genetics implements the gene catalog, the variant registry and
// patient variant reports, backed by Postgres and enriched from the clinic
// service's patient directory.
package genetics

import (
	"time"

	"github.com/google/uuid"
)

// Variant impact classifications.
const (
	ImpactMissense   = "Missense"
	ImpactFrameshift = "Frameshift"
	ImpactNonsense   = "Nonsense"
	ImpactSilent     = "Silent"
	ImpactUnknown    = "Unknown"
)

// Gene maps to the gene table.
type Gene struct {
	ID              int       `db:"id" json:"id"`
	Symbol          string    `db:"symbol" json:"symbol"`
	FullName        *string   `db:"full_name" json:"full_name,omitempty"`
	FunctionSummary *string   `db:"function_summary" json:"function_summary,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// GeneticVariant maps to the genetic_variant table. The locus columns are
// nullable; a variant may be registered before its exact coordinates are
// known. GeneSymbol is joined from the gene table on reads and never
// written directly.
type GeneticVariant struct {
	ID            uuid.UUID `db:"id" json:"id"`
	GeneID        int       `db:"gene_id" json:"gene_id"`
	GeneSymbol    string    `db:"-" json:"gene_symbol"`
	Chromosome    *string   `db:"chromosome" json:"chromosome,omitempty"`
	Position      *int64    `db:"position" json:"position,omitempty"`
	ReferenceBase *string   `db:"reference_base" json:"reference_base,omitempty"`
	AlternateBase *string   `db:"alternate_base" json:"alternate_base,omitempty"`
	Impact        string    `db:"impact" json:"impact"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Patient is the local shadow of a clinic-service patient. The clinic
// service owns demographics; rows here exist only to satisfy the report
// foreign key and to serve patient listings without a network round trip.
type Patient struct {
	ID        string     `db:"id" json:"id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender    string     `db:"gender" json:"gender"`
	Status    string     `db:"status" json:"status"`
	SyncedAt  time.Time  `db:"synced_at" json:"synced_at"`
}

// PatientVariantReport maps to the patient_variant_report table.
// Variant and patient fields after AlleleFrequency are joined on reads.
type PatientVariantReport struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       string    `db:"patient_id" json:"patient_id"`
	VariantID       uuid.UUID `db:"variant_id" json:"variant_id"`
	DetectionDate   time.Time `db:"detection_date" json:"detection_date"`
	AlleleFrequency *float64  `db:"allele_frequency" json:"allele_frequency,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	GeneSymbol  string  `db:"-" json:"gene_symbol"`
	Chromosome  *string `db:"-" json:"chromosome,omitempty"`
	Position    *int64  `db:"-" json:"position,omitempty"`
	Impact      string  `db:"-" json:"impact"`
	PatientName string  `db:"-" json:"patient_name,omitempty"`
}

// GeneVariantCount pairs a gene with the number of variants catalogued for it.
type GeneVariantCount struct {
	GeneID       int    `json:"gene_id"`
	Symbol       string `json:"symbol"`
	VariantCount int    `json:"variant_count"`
}

// GeneStats summarizes the gene catalog.
type GeneStats struct {
	TotalGenes    int                `json:"total_genes"`
	TotalVariants int                `json:"total_variants"`
	TopGenes      []GeneVariantCount `json:"top_genes"`
}

// VariantStats summarizes the variant registry.
type VariantStats struct {
	TotalVariants int            `json:"total_variants"`
	ByImpact      map[string]int `json:"by_impact"`
}

// ReportFilter narrows report listings. Zero values mean no constraint.
type ReportFilter struct {
	PatientID string
	VariantID uuid.UUID
	GeneID    int
	From      time.Time
	To        time.Time
}
