package genetics

import (
	"context"

	"github.com/google/uuid"
)

type GeneRepository interface {
	Create(ctx context.Context, g *Gene) error
	GetByID(ctx context.Context, id int) (*Gene, error)
	ExistsBySymbol(ctx context.Context, symbol string) (bool, error)
	Update(ctx context.Context, g *Gene) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, limit, offset int) ([]*Gene, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*Gene, int, error)
	Count(ctx context.Context) (int, error)
	TopByVariantCount(ctx context.Context, limit int) ([]GeneVariantCount, error)
}

type VariantRepository interface {
	Create(ctx context.Context, v *GeneticVariant) error
	GetByID(ctx context.Context, id uuid.UUID) (*GeneticVariant, error)
	Update(ctx context.Context, v *GeneticVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error)
	ListByGene(ctx context.Context, geneID int, limit, offset int) ([]*GeneticVariant, int, error)
	ListByImpact(ctx context.Context, impact string, limit, offset int) ([]*GeneticVariant, int, error)
	ListByPositionRange(ctx context.Context, chromosome string, from, to int64, limit, offset int) ([]*GeneticVariant, int, error)
	Count(ctx context.Context) (int, error)
	CountByGene(ctx context.Context, geneID int) (int, error)
	CountByImpact(ctx context.Context) (map[string]int, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *PatientVariantReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error)
	Update(ctx context.Context, r *PatientVariantReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ReportFilter, limit, offset int) ([]*PatientVariantReport, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*PatientVariantReport, int, error)
	CountByVariant(ctx context.Context, variantID uuid.UUID) (int, error)
}

type PatientRepository interface {
	Upsert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
