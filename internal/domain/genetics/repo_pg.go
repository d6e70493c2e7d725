package genetics

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genosentinel/genomics/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Gene Repository ===========

type geneRepoPG struct{ pool *pgxpool.Pool }

func NewGeneRepoPG(pool *pgxpool.Pool) GeneRepository {
	return &geneRepoPG{pool: pool}
}

func (r *geneRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const geneCols = `id, symbol, full_name, function_summary, created_at, updated_at`

func (r *geneRepoPG) scanGene(row pgx.Row) (*Gene, error) {
	var g Gene
	err := row.Scan(&g.ID, &g.Symbol, &g.FullName, &g.FunctionSummary, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *geneRepoPG) Create(ctx context.Context, g *Gene) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO gene (symbol, full_name, function_summary)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		g.Symbol, g.FullName, g.FunctionSummary).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
}

func (r *geneRepoPG) GetByID(ctx context.Context, id int) (*Gene, error) {
	return r.scanGene(r.conn(ctx).QueryRow(ctx, `SELECT `+geneCols+` FROM gene WHERE id = $1`, id))
}

func (r *geneRepoPG) ExistsBySymbol(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM gene WHERE symbol = $1)`, symbol).Scan(&exists)
	return exists, err
}

func (r *geneRepoPG) Update(ctx context.Context, g *Gene) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE gene SET symbol=$2, full_name=$3, function_summary=$4, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Symbol, g.FullName, g.FunctionSummary)
	return err
}

func (r *geneRepoPG) Delete(ctx context.Context, id int) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM gene WHERE id = $1`, id)
	return err
}

func (r *geneRepoPG) List(ctx context.Context, limit, offset int) ([]*Gene, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM gene`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+geneCols+` FROM gene ORDER BY symbol LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	genes, err := collectGenes(rows)
	return genes, total, err
}

func (r *geneRepoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Gene, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM gene WHERE symbol ILIKE $1 OR full_name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+geneCols+` FROM gene
		WHERE symbol ILIKE $1 OR full_name ILIKE $1
		ORDER BY symbol LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	genes, err := collectGenes(rows)
	return genes, total, err
}

func (r *geneRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM gene`).Scan(&total)
	return total, err
}

func (r *geneRepoPG) TopByVariantCount(ctx context.Context, limit int) ([]GeneVariantCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT g.id, g.symbol, COUNT(v.id) AS variant_count
		FROM gene g
		LEFT JOIN genetic_variant v ON v.gene_id = g.id
		GROUP BY g.id, g.symbol
		ORDER BY variant_count DESC, g.symbol
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []GeneVariantCount
	for rows.Next() {
		var c GeneVariantCount
		if err := rows.Scan(&c.GeneID, &c.Symbol, &c.VariantCount); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func collectGenes(rows pgx.Rows) ([]*Gene, error) {
	var genes []*Gene
	for rows.Next() {
		var g Gene
		if err := rows.Scan(&g.ID, &g.Symbol, &g.FullName, &g.FunctionSummary, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		genes = append(genes, &g)
	}
	return genes, rows.Err()
}

// =========== Variant Repository ===========

type variantRepoPG struct{ pool *pgxpool.Pool }

func NewVariantRepoPG(pool *pgxpool.Pool) VariantRepository {
	return &variantRepoPG{pool: pool}
}

func (r *variantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const variantCols = `v.id, v.gene_id, g.symbol, v.chromosome, v."position",
	v.reference_base, v.alternate_base, v.impact, v.created_at, v.updated_at`

const variantFrom = ` FROM genetic_variant v JOIN gene g ON g.id = v.gene_id`

func scanVariant(row pgx.Row) (*GeneticVariant, error) {
	var v GeneticVariant
	err := row.Scan(&v.ID, &v.GeneID, &v.GeneSymbol, &v.Chromosome, &v.Position,
		&v.ReferenceBase, &v.AlternateBase, &v.Impact, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func collectVariants(rows pgx.Rows) ([]*GeneticVariant, error) {
	var variants []*GeneticVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *variantRepoPG) Create(ctx context.Context, v *GeneticVariant) error {
	v.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO genetic_variant (id, gene_id, chromosome, "position",
			reference_base, alternate_base, impact)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		v.ID, v.GeneID, v.Chromosome, v.Position,
		v.ReferenceBase, v.AlternateBase, v.Impact).
		Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *variantRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*GeneticVariant, error) {
	return scanVariant(r.conn(ctx).QueryRow(ctx,
		`SELECT `+variantCols+variantFrom+` WHERE v.id = $1`, id))
}

func (r *variantRepoPG) Update(ctx context.Context, v *GeneticVariant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE genetic_variant SET gene_id=$2, chromosome=$3, "position"=$4,
			reference_base=$5, alternate_base=$6, impact=$7, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.GeneID, v.Chromosome, v.Position,
		v.ReferenceBase, v.AlternateBase, v.Impact)
	return err
}

func (r *variantRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM genetic_variant WHERE id = $1`, id)
	return err
}

func (r *variantRepoPG) List(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM genetic_variant`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+variantFrom+`
		ORDER BY v.chromosome, v."position" LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	variants, err := collectVariants(rows)
	return variants, total, err
}

func (r *variantRepoPG) ListByGene(ctx context.Context, geneID int, limit, offset int) ([]*GeneticVariant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM genetic_variant WHERE gene_id = $1`, geneID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+variantFrom+`
		WHERE v.gene_id = $1
		ORDER BY v.chromosome, v."position" LIMIT $2 OFFSET $3`, geneID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	variants, err := collectVariants(rows)
	return variants, total, err
}

func (r *variantRepoPG) ListByImpact(ctx context.Context, impact string, limit, offset int) ([]*GeneticVariant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM genetic_variant WHERE impact = $1`, impact).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+variantFrom+`
		WHERE v.impact = $1
		ORDER BY v.chromosome, v."position" LIMIT $2 OFFSET $3`, impact, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	variants, err := collectVariants(rows)
	return variants, total, err
}

func (r *variantRepoPG) ListByPositionRange(ctx context.Context, chromosome string, from, to int64, limit, offset int) ([]*GeneticVariant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM genetic_variant
		WHERE chromosome = $1 AND "position" BETWEEN $2 AND $3`,
		chromosome, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+variantCols+variantFrom+`
		WHERE v.chromosome = $1 AND v."position" BETWEEN $2 AND $3
		ORDER BY v."position" LIMIT $4 OFFSET $5`,
		chromosome, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	variants, err := collectVariants(rows)
	return variants, total, err
}

func (r *variantRepoPG) Count(ctx context.Context) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM genetic_variant`).Scan(&total)
	return total, err
}

func (r *variantRepoPG) CountByGene(ctx context.Context, geneID int) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM genetic_variant WHERE gene_id = $1`, geneID).Scan(&total)
	return total, err
}

func (r *variantRepoPG) CountByImpact(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT impact, COUNT(*) FROM genetic_variant GROUP BY impact`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var impact string
		var n int
		if err := rows.Scan(&impact, &n); err != nil {
			return nil, err
		}
		counts[impact] = n
	}
	return counts, rows.Err()
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `r.id, r.patient_id, r.variant_id, r.detection_date,
	r.allele_frequency, r.notes, r.created_at, r.updated_at,
	g.symbol, v.chromosome, v."position", v.impact`

const reportFrom = ` FROM patient_variant_report r
	JOIN genetic_variant v ON v.id = r.variant_id
	JOIN gene g ON g.id = v.gene_id`

func scanReport(row pgx.Row) (*PatientVariantReport, error) {
	var rep PatientVariantReport
	err := row.Scan(&rep.ID, &rep.PatientID, &rep.VariantID, &rep.DetectionDate,
		&rep.AlleleFrequency, &rep.Notes, &rep.CreatedAt, &rep.UpdatedAt,
		&rep.GeneSymbol, &rep.Chromosome, &rep.Position, &rep.Impact)
	return &rep, err
}

func collectReports(rows pgx.Rows) ([]*PatientVariantReport, error) {
	var reports []*PatientVariantReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *reportRepoPG) Create(ctx context.Context, rep *PatientVariantReport) error {
	rep.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_variant_report (id, patient_id, variant_id,
			detection_date, allele_frequency, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		rep.ID, rep.PatientID, rep.VariantID,
		rep.DetectionDate, rep.AlleleFrequency, rep.Notes).
		Scan(&rep.CreatedAt, &rep.UpdatedAt)
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientVariantReport, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+reportFrom+` WHERE r.id = $1`, id))
}

func (r *reportRepoPG) Update(ctx context.Context, rep *PatientVariantReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_variant_report SET patient_id=$2, variant_id=$3,
			detection_date=$4, allele_frequency=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.PatientID, rep.VariantID,
		rep.DetectionDate, rep.AlleleFrequency, rep.Notes)
	return err
}

func (r *reportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_variant_report WHERE id = $1`, id)
	return err
}

// filterClause builds the WHERE clause and arguments for a report filter.
func filterClause(filter ReportFilter) (string, []interface{}) {
	clause := ` WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}

	if filter.PatientID != "" {
		clause += ` AND r.patient_id = ` + arg(filter.PatientID)
	}
	if filter.VariantID != uuid.Nil {
		clause += ` AND r.variant_id = ` + arg(filter.VariantID)
	}
	if filter.GeneID != 0 {
		clause += ` AND v.gene_id = ` + arg(filter.GeneID)
	}
	if !filter.From.IsZero() {
		clause += ` AND r.detection_date >= ` + arg(filter.From)
	}
	if !filter.To.IsZero() {
		clause += ` AND r.detection_date <= ` + arg(filter.To)
	}
	return clause, args
}

func (r *reportRepoPG) List(ctx context.Context, filter ReportFilter, limit, offset int) ([]*PatientVariantReport, int, error) {
	clause, args := filterClause(filter)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*)`+reportFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + reportCols + reportFrom + clause +
		` ORDER BY r.detection_date DESC, r.created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	return reports, total, err
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*PatientVariantReport, int, error) {
	return r.List(ctx, ReportFilter{PatientID: patientID}, limit, offset)
}

func (r *reportRepoPG) CountByVariant(ctx context.Context, variantID uuid.UUID) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_variant_report WHERE variant_id = $1`, variantID).Scan(&total)
	return total, err
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, first_name, last_name, birth_date, gender, status, synced_at`

func (r *patientRepoPG) Upsert(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, first_name, last_name, birth_date, gender, status, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			birth_date = EXCLUDED.birth_date,
			gender = EXCLUDED.gender,
			status = EXCLUDED.status,
			synced_at = NOW()`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.Status)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.Status, &p.SyncedAt)
	return &p, err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.Status, &p.SyncedAt); err != nil {
			return nil, 0, err
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}
