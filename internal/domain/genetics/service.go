package genetics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/genosentinel/genomics/internal/clinic"
	"github.com/genosentinel/genomics/internal/platform/db"
	"github.com/genosentinel/genomics/pkg/apperr"
)

// topGenesLimit bounds the per-gene variant ranking in gene stats.
const topGenesLimit = 5

// ClinicDirectory is the slice of the clinic client the service needs.
type ClinicDirectory interface {
	GetPatient(ctx context.Context, id string) (*clinic.Patient, bool)
	GetPatientsBatch(ctx context.Context, ids []string) map[string]*clinic.Patient
}

// Service implements the gene catalog, variant registry and report workflows.
type Service struct {
	genes    GeneRepository
	variants VariantRepository
	reports  ReportRepository
	patients PatientRepository
	clinic   ClinicDirectory
	runTx    func(ctx context.Context, fn func(ctx context.Context) error) error
	logger   zerolog.Logger
}

func NewService(pool *pgxpool.Pool, genes GeneRepository, variants VariantRepository,
	reports ReportRepository, patients PatientRepository, directory ClinicDirectory,
	logger zerolog.Logger) *Service {
	return &Service{
		genes:    genes,
		variants: variants,
		reports:  reports,
		patients: patients,
		clinic:   directory,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
		logger: logger,
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// =========== Genes ===========

func (s *Service) CreateGene(ctx context.Context, req GeneRequest) (*Gene, error) {
	ve := apperr.NewValidation(req.Validate()...)
	if req.Symbol != "" {
		exists, err := s.genes.ExistsBySymbol(ctx, req.Symbol)
		if err != nil {
			return nil, err
		}
		if exists {
			ve.Fields = map[string]string{"symbol": "a gene with this symbol already exists"}
		}
	}
	if len(ve.Errors) > 0 || len(ve.Fields) > 0 {
		return nil, ve
	}

	g := &Gene{Symbol: req.Symbol, FullName: req.FullName, FunctionSummary: req.FunctionSummary}
	if err := s.genes.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) GetGene(ctx context.Context, id int) (*Gene, error) {
	g, err := s.genes.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, apperr.NewNotFound("gene", strconv.Itoa(id))
	}
	return g, err
}

func (s *Service) ListGenes(ctx context.Context, limit, offset int) ([]*Gene, int, error) {
	return s.genes.List(ctx, limit, offset)
}

// SearchGenes matches genes whose symbol or full name contains the query.
// A blank query matches nothing rather than everything.
func (s *Service) SearchGenes(ctx context.Context, query string, limit, offset int) ([]*Gene, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Gene{}, 0, nil
	}
	return s.genes.Search(ctx, query, limit, offset)
}

func (s *Service) UpdateGene(ctx context.Context, id int, req GeneUpdateRequest) (*Gene, error) {
	g, err := s.GetGene(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSymbol := g.Symbol
	merged := req.apply(g)
	ve := apperr.NewValidation(merged.Validate()...)
	if g.Symbol != oldSymbol && g.Symbol != "" {
		exists, err := s.genes.ExistsBySymbol(ctx, g.Symbol)
		if err != nil {
			return nil, err
		}
		if exists {
			ve.Fields = map[string]string{"symbol": "a gene with this symbol already exists"}
		}
	}
	if len(ve.Errors) > 0 || len(ve.Fields) > 0 {
		return nil, ve
	}

	if err := s.genes.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGene refuses to delete a gene that still has variants. The count and
// the delete run in one transaction so a concurrent variant insert cannot
// slip between them.
func (s *Service) DeleteGene(ctx context.Context, id int) error {
	if _, err := s.GetGene(ctx, id); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		n, err := s.variants.CountByGene(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.NewConflict("cannot delete gene: %d variant(s) reference it", n)
		}
		return s.genes.Delete(ctx, id)
	})
}

func (s *Service) GetGeneStats(ctx context.Context) (*GeneStats, error) {
	totalGenes, err := s.genes.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalVariants, err := s.variants.Count(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.genes.TopByVariantCount(ctx, topGenesLimit)
	if err != nil {
		return nil, err
	}
	return &GeneStats{TotalGenes: totalGenes, TotalVariants: totalVariants, TopGenes: top}, nil
}

// BulkCreateGenes creates all genes or none. Validation failures are
// prefixed with the item index so callers can tell which entry is bad.
func (s *Service) BulkCreateGenes(ctx context.Context, reqs []GeneRequest) ([]*Gene, error) {
	if len(reqs) == 0 {
		return nil, apperr.NewValidation("at least one gene is required")
	}

	var errs []string
	seen := make(map[string]bool, len(reqs))
	for i, req := range reqs {
		for _, msg := range req.Validate() {
			errs = append(errs, fmt.Sprintf("item %d: %s", i, msg))
		}
		if req.Symbol == "" {
			continue
		}
		if seen[req.Symbol] {
			errs = append(errs, fmt.Sprintf("item %d: symbol: a gene with this symbol already exists", i))
			continue
		}
		seen[req.Symbol] = true
		exists, err := s.genes.ExistsBySymbol(ctx, req.Symbol)
		if err != nil {
			return nil, err
		}
		if exists {
			errs = append(errs, fmt.Sprintf("item %d: symbol: a gene with this symbol already exists", i))
		}
	}
	if len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}

	genes := make([]*Gene, 0, len(reqs))
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, req := range reqs {
			g := &Gene{Symbol: req.Symbol, FullName: req.FullName, FunctionSummary: req.FunctionSummary}
			if err := s.genes.Create(ctx, g); err != nil {
				return err
			}
			genes = append(genes, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return genes, nil
}

// =========== Variants ===========

// resolveGene confirms the referenced gene exists and returns it. A miss
// surfaces as a field error rather than a bare 404 because the gene is a
// reference inside the payload, not the addressed resource.
func (s *Service) resolveGene(ctx context.Context, geneID int) (*Gene, error) {
	g, err := s.genes.GetByID(ctx, geneID)
	if isNoRows(err) {
		return nil, apperr.NewFieldError("gene_id", "gene not found")
	}
	return g, err
}

func (s *Service) CreateVariant(ctx context.Context, req VariantRequest) (*GeneticVariant, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}
	g, err := s.resolveGene(ctx, req.GeneID)
	if err != nil {
		return nil, err
	}

	impact := req.Impact
	if impact == "" {
		impact = ImpactUnknown
	}
	v := &GeneticVariant{
		GeneID:        g.ID,
		GeneSymbol:    g.Symbol,
		Chromosome:    req.Chromosome,
		Position:      req.Position,
		ReferenceBase: req.ReferenceBase,
		AlternateBase: req.AlternateBase,
		Impact:        impact,
	}
	if err := s.variants.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetVariant(ctx context.Context, id uuid.UUID) (*GeneticVariant, error) {
	v, err := s.variants.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, apperr.NewNotFound("variant", id.String())
	}
	return v, err
}

func (s *Service) ListVariants(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error) {
	return s.variants.List(ctx, limit, offset)
}

func (s *Service) ListVariantsByGene(ctx context.Context, geneID, limit, offset int) ([]*GeneticVariant, int, error) {
	if _, err := s.GetGene(ctx, geneID); err != nil {
		return nil, 0, err
	}
	return s.variants.ListByGene(ctx, geneID, limit, offset)
}

func (s *Service) ListVariantsByImpact(ctx context.Context, impact string, limit, offset int) ([]*GeneticVariant, int, error) {
	if !validImpacts[impact] {
		return nil, 0, apperr.NewValidation("impact must be one of: Missense, Frameshift, Nonsense, Silent, Unknown")
	}
	return s.variants.ListByImpact(ctx, impact, limit, offset)
}

func (s *Service) ListVariantsByPositionRange(ctx context.Context, chromosome string, from, to int64, limit, offset int) ([]*GeneticVariant, int, error) {
	if chromosome == "" {
		return nil, 0, apperr.NewValidation("chromosome is required")
	}
	return s.variants.ListByPositionRange(ctx, chromosome, from, to, limit, offset)
}

func (s *Service) UpdateVariant(ctx context.Context, id uuid.UUID, req VariantUpdateRequest) (*GeneticVariant, error) {
	v, err := s.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}

	oldGeneID := v.GeneID
	merged := req.apply(v)
	if errs := merged.Validate(); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}
	if v.GeneID != oldGeneID {
		g, err := s.resolveGene(ctx, v.GeneID)
		if err != nil {
			return nil, err
		}
		v.GeneSymbol = g.Symbol
	}
	if v.Impact == "" {
		v.Impact = ImpactUnknown
	}

	if err := s.variants.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVariant is guarded the same way as DeleteGene: reports referencing
// the variant block the delete inside one transaction.
func (s *Service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetVariant(ctx, id); err != nil {
		return err
	}
	return s.runTx(ctx, func(ctx context.Context) error {
		n, err := s.reports.CountByVariant(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.NewConflict("cannot delete variant: %d report(s) reference it", n)
		}
		return s.variants.Delete(ctx, id)
	})
}

func (s *Service) GetVariantStats(ctx context.Context) (*VariantStats, error) {
	total, err := s.variants.Count(ctx)
	if err != nil {
		return nil, err
	}
	byImpact, err := s.variants.CountByImpact(ctx)
	if err != nil {
		return nil, err
	}
	return &VariantStats{TotalVariants: total, ByImpact: byImpact}, nil
}

func (s *Service) BulkCreateVariants(ctx context.Context, reqs []VariantRequest) ([]*GeneticVariant, error) {
	if len(reqs) == 0 {
		return nil, apperr.NewValidation("at least one variant is required")
	}

	var errs []string
	symbols := make(map[int]string)
	for i := range reqs {
		req := &reqs[i]
		for _, msg := range req.Validate() {
			errs = append(errs, fmt.Sprintf("item %d: %s", i, msg))
		}
		if req.GeneID <= 0 {
			continue
		}
		if _, ok := symbols[req.GeneID]; ok {
			continue
		}
		g, err := s.genes.GetByID(ctx, req.GeneID)
		if isNoRows(err) {
			errs = append(errs, fmt.Sprintf("item %d: gene_id: gene not found", i))
			symbols[req.GeneID] = ""
			continue
		}
		if err != nil {
			return nil, err
		}
		symbols[req.GeneID] = g.Symbol
	}
	if len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}

	variants := make([]*GeneticVariant, 0, len(reqs))
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, req := range reqs {
			impact := req.Impact
			if impact == "" {
				impact = ImpactUnknown
			}
			v := &GeneticVariant{
				GeneID:        req.GeneID,
				GeneSymbol:    symbols[req.GeneID],
				Chromosome:    req.Chromosome,
				Position:      req.Position,
				ReferenceBase: req.ReferenceBase,
				AlternateBase: req.AlternateBase,
				Impact:        impact,
			}
			if err := s.variants.Create(ctx, v); err != nil {
				return err
			}
			variants = append(variants, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// =========== Reports ===========

func (s *Service) CreateReport(ctx context.Context, req ReportRequest) (*PatientVariantReport, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}

	variant, err := s.variants.GetByID(ctx, req.variantID())
	if isNoRows(err) {
		return nil, apperr.NewFieldError("variant_id", "variant not found")
	}
	if err != nil {
		return nil, err
	}

	clinicPatient, ok := s.clinic.GetPatient(ctx, req.PatientID)
	if !ok {
		return nil, apperr.NewFieldError("patient_id", "patient not found in clinic service")
	}

	report := &PatientVariantReport{
		PatientID:       req.PatientID,
		VariantID:       variant.ID,
		DetectionDate:   req.detectionDate(),
		AlleleFrequency: req.AlleleFrequency,
		Notes:           req.Notes,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.patients.Upsert(ctx, shadowFromClinic(clinicPatient)); err != nil {
			return err
		}
		return s.reports.Create(ctx, report)
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", req.PatientID).
			Str("variant_id", variant.ID.String()).
			Msg("report insert failed")
		return nil, apperr.NewValidation("error creating report")
	}

	report.GeneSymbol = variant.GeneSymbol
	report.Chromosome = variant.Chromosome
	report.Position = variant.Position
	report.Impact = variant.Impact
	report.PatientName = patientName(clinicPatient)
	return report, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, apperr.NewNotFound("report", id.String())
	}
	if err != nil {
		return nil, err
	}
	s.enrichReports(ctx, []*PatientVariantReport{report})
	return report, nil
}

func (s *Service) ListReports(ctx context.Context, filter ReportFilter, limit, offset int) ([]*PatientVariantReport, int, error) {
	reports, total, err := s.reports.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.enrichReports(ctx, reports)
	return reports, total, nil
}

func (s *Service) ListReportsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*PatientVariantReport, int, error) {
	reports, total, err := s.reports.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.enrichReports(ctx, reports)
	return reports, total, nil
}

func (s *Service) UpdateReport(ctx context.Context, id uuid.UUID, req ReportUpdateRequest) (*PatientVariantReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, apperr.NewNotFound("report", id.String())
	}
	if err != nil {
		return nil, err
	}

	merged := req.apply(report)
	if errs := merged.Validate(); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}

	variant := &GeneticVariant{
		ID:         report.VariantID,
		GeneSymbol: report.GeneSymbol,
		Chromosome: report.Chromosome,
		Position:   report.Position,
		Impact:     report.Impact,
	}
	if merged.variantID() != report.VariantID {
		variant, err = s.variants.GetByID(ctx, merged.variantID())
		if isNoRows(err) {
			return nil, apperr.NewFieldError("variant_id", "variant not found")
		}
		if err != nil {
			return nil, err
		}
	}

	var clinicPatient *clinic.Patient
	if merged.PatientID != report.PatientID {
		var ok bool
		clinicPatient, ok = s.clinic.GetPatient(ctx, merged.PatientID)
		if !ok {
			return nil, apperr.NewFieldError("patient_id", "patient not found in clinic service")
		}
	}

	report.PatientID = merged.PatientID
	report.VariantID = variant.ID
	report.DetectionDate = merged.detectionDate()
	report.AlleleFrequency = merged.AlleleFrequency
	report.Notes = merged.Notes

	err = s.runTx(ctx, func(ctx context.Context) error {
		if clinicPatient != nil {
			if err := s.patients.Upsert(ctx, shadowFromClinic(clinicPatient)); err != nil {
				return err
			}
		}
		return s.reports.Update(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	report.GeneSymbol = variant.GeneSymbol
	report.Chromosome = variant.Chromosome
	report.Position = variant.Position
	report.Impact = variant.Impact
	s.enrichReports(ctx, []*PatientVariantReport{report})
	return report, nil
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	if _, err := s.reports.GetByID(ctx, id); err != nil {
		if isNoRows(err) {
			return apperr.NewNotFound("report", id.String())
		}
		return err
	}
	return s.reports.Delete(ctx, id)
}

// enrichReports attaches patient display names from the clinic service.
// Lookup failures leave the name empty and never fail the read.
func (s *Service) enrichReports(ctx context.Context, reports []*PatientVariantReport) {
	if len(reports) == 0 {
		return
	}
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.PatientID)
	}
	found := s.clinic.GetPatientsBatch(ctx, ids)
	for _, r := range reports {
		if p, ok := found[r.PatientID]; ok {
			r.PatientName = patientName(p)
		}
	}
}

// =========== Patients ===========

func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if isNoRows(err) {
		return nil, apperr.NewNotFound("patient", id)
	}
	return p, err
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func shadowFromClinic(p *clinic.Patient) *Patient {
	shadow := &Patient{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender,
		Status:    p.Status,
	}
	if d, err := time.Parse(detectionDateLayout, p.BirthDate); err == nil {
		shadow.BirthDate = &d
	}
	return shadow
}

func patientName(p *clinic.Patient) string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
