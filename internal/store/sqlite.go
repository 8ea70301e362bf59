package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amishk599/jobharvest/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	id                    TEXT PRIMARY KEY,
	company               TEXT NOT NULL DEFAULT '',
	sector                TEXT NOT NULL DEFAULT '',
	company_size          TEXT NOT NULL DEFAULT '',
	job_title             TEXT NOT NULL,
	description           TEXT NOT NULL,
	work_location         TEXT NOT NULL DEFAULT '',
	job_type              TEXT NOT NULL DEFAULT '',
	availability          TEXT NOT NULL DEFAULT '',
	published_date        TEXT,
	reference             TEXT NOT NULL DEFAULT '',
	experience_text       TEXT NOT NULL DEFAULT '',
	education             TEXT NOT NULL DEFAULT '',
	languages_mentioned   TEXT NOT NULL DEFAULT '',
	proposed_remuneration TEXT NOT NULL DEFAULT '',
	source                TEXT NOT NULL,
	search_term           TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL DEFAULT '',
	scraped_at            TEXT NOT NULL,
	seq                   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS job_postings_dedup AS SELECT * FROM job_postings WHERE 0;
CREATE TABLE IF NOT EXISTS job_enrichment (
	job_id              TEXT PRIMARY KEY,
	company_sector      TEXT,
	company_size_class  TEXT,
	contract_type       TEXT,
	job_category        TEXT NOT NULL,
	years_of_experience REAL,
	education_level     TEXT,
	enriched_at         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS job_skills (
	job_id     TEXT NOT NULL,
	skill_type TEXT NOT NULL,
	position   INTEGER NOT NULL,
	skill_name TEXT NOT NULL,
	PRIMARY KEY (job_id, skill_type, position)
);
CREATE INDEX IF NOT EXISTS idx_job_postings_source ON job_postings(source);
`

const postingColumns = `id, company, sector, company_size, job_title, description,
	work_location, job_type, availability, published_date, reference,
	experience_text, education, languages_mentioned, proposed_remuneration,
	source, search_term, source_url, scraped_at, seq`

const dateLayout = "2006-01-02"

// SQLiteStore persists raw, enriched and deduplicated job records in a
// SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ model.RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// AppendRaw inserts crawled records into job_postings. Records whose id is
// already stored are left untouched.
func (s *SQLiteStore) AppendRaw(ctx context.Context, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM job_postings").Scan(&next); err != nil {
			return fmt.Errorf("reading sequence: %w", err)
		}
		return insertPostings(ctx, tx, "job_postings", records, next)
	})
}

// LoadRaw returns every stored raw record in insertion order with any saved
// enrichment attached.
func (s *SQLiteStore) LoadRaw(ctx context.Context) ([]model.Record, error) {
	return s.load(ctx, "job_postings")
}

// SaveEnrichment upserts the enrichment of every record that carries one and
// replaces its skill rows.
func (s *SQLiteStore) SaveEnrichment(ctx context.Context, records []model.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.saveEnrichment(ctx, tx, records)
	})
}

// ReplaceDeduplicated swaps the contents of job_postings_dedup for records in
// one transaction. Enrichment carried by the records is saved alongside.
func (s *SQLiteStore) ReplaceDeduplicated(ctx context.Context, records []model.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM job_postings_dedup"); err != nil {
			return fmt.Errorf("clearing job_postings_dedup: %w", err)
		}
		if err := insertPostings(ctx, tx, "job_postings_dedup", records, 0); err != nil {
			return err
		}
		return s.saveEnrichment(ctx, tx, records)
	})
}

// LoadDeduplicated returns the current deduplicated set in the order it was
// written.
func (s *SQLiteStore) LoadDeduplicated(ctx context.Context) ([]model.Record, error) {
	return s.load(ctx, "job_postings_dedup")
}

// CountBySource returns the number of deduplicated records per source.
func (s *SQLiteStore) CountBySource(ctx context.Context) (map[model.Source]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT source, COUNT(*) FROM job_postings_dedup GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("counting records by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Source]int)
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		counts[model.Source(src)] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertPostings(ctx context.Context, tx *sql.Tx, table string, records []model.Record, seq int64) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)", table, postingColumns))
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range records {
		seq++
		var published sql.NullString
		if r.PublishedDate != nil {
			published = sql.NullString{String: r.PublishedDate.Format(dateLayout), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Company, r.Sector, r.CompanySize, r.JobTitle, r.Description,
			r.WorkLocation, r.JobType, r.Availability, published, r.Reference,
			r.ExperienceText, r.Education, r.LanguagesMentioned, r.ProposedRemuneration,
			string(r.Source), r.SearchTerm, r.SourceURL, r.ScrapedAt.UTC().Format(time.RFC3339Nano), seq,
		)
		if err != nil {
			return fmt.Errorf("inserting job %s into %s: %w", r.ID, table, err)
		}
	}
	return nil
}

func (s *SQLiteStore) saveEnrichment(ctx context.Context, tx *sql.Tx, records []model.Record) error {
	enrichedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		a := r.Enrichment
		if a == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO job_enrichment
			(job_id, company_sector, company_size_class, contract_type, job_category,
			 years_of_experience, education_level, enriched_at)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT(job_id) DO UPDATE SET
				company_sector = excluded.company_sector,
				company_size_class = excluded.company_size_class,
				contract_type = excluded.contract_type,
				job_category = excluded.job_category,
				years_of_experience = excluded.years_of_experience,
				education_level = excluded.education_level,
				enriched_at = excluded.enriched_at`,
			r.ID, nullable(a.CompanySector), nullable(a.CompanySizeClass), nullable(a.ContractType),
			a.JobCategory, nullFloat(a.YearsOfExperience), nullable(a.EducationLevel), enrichedAt,
		)
		if err != nil {
			return fmt.Errorf("saving enrichment for job %s: %w", r.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM job_skills WHERE job_id = ?", r.ID); err != nil {
			return fmt.Errorf("clearing skills for job %s: %w", r.ID, err)
		}
		for _, g := range a.SkillGroups() {
			for i, name := range g.Items {
				_, err := tx.ExecContext(ctx,
					"INSERT INTO job_skills (job_id, skill_type, position, skill_name) VALUES (?,?,?,?)",
					r.ID, g.Type, i, name)
				if err != nil {
					return fmt.Errorf("saving %s for job %s: %w", g.Type, r.ID, err)
				}
			}
		}
	}
	return nil
}

func (s *SQLiteStore) load(ctx context.Context, table string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT p.id, p.company, p.sector, p.company_size,
		p.job_title, p.description, p.work_location, p.job_type, p.availability,
		p.published_date, p.reference, p.experience_text, p.education,
		p.languages_mentioned, p.proposed_remuneration, p.source, p.search_term,
		p.source_url, p.scraped_at,
		e.job_id, e.company_sector, e.company_size_class, e.contract_type,
		e.job_category, e.years_of_experience, e.education_level
		FROM %s p LEFT JOIN job_enrichment e ON e.job_id = p.id
		ORDER BY p.seq, p.rowid`, table))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.Record
	index := make(map[string]int)
	for rows.Next() {
		var (
			r                                model.Record
			published, source, scrapedAt     sql.NullString
			enrichID, sector, size, contract sql.NullString
			category, education              sql.NullString
			years                            sql.NullFloat64
		)
		err := rows.Scan(&r.ID, &r.Company, &r.Sector, &r.CompanySize,
			&r.JobTitle, &r.Description, &r.WorkLocation, &r.JobType, &r.Availability,
			&published, &r.Reference, &r.ExperienceText, &r.Education,
			&r.LanguagesMentioned, &r.ProposedRemuneration, &source, &r.SearchTerm,
			&r.SourceURL, &scrapedAt,
			&enrichID, &sector, &size, &contract, &category, &years, &education)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		r.Source = model.Source(source.String)
		if r.ScrapedAt, err = time.Parse(time.RFC3339Nano, scrapedAt.String); err != nil {
			return nil, fmt.Errorf("parsing scraped_at of job %s: %w", r.ID, err)
		}
		if published.Valid {
			d, err := time.Parse(dateLayout, published.String)
			if err != nil {
				return nil, fmt.Errorf("parsing published_date of job %s: %w", r.ID, err)
			}
			r.PublishedDate = &d
		}
		if enrichID.Valid {
			a := &model.Attributes{JobCategory: category.String}
			if sector.Valid {
				a.CompanySector = &sector.String
			}
			if size.Valid {
				v := model.SizeClass(size.String)
				a.CompanySizeClass = &v
			}
			if contract.Valid {
				v := model.ContractType(contract.String)
				a.ContractType = &v
			}
			if years.Valid {
				a.YearsOfExperience = &years.Float64
			}
			if education.Valid {
				v := model.EducationLevel(education.String)
				a.EducationLevel = &v
			}
			if err := checkClosedSets(a); err != nil {
				return nil, fmt.Errorf("enrichment of job %s: %w", r.ID, err)
			}
			r.Enrichment = a
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}

	if err := s.attachSkills(ctx, table, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) attachSkills(ctx context.Context, table string, records []model.Record, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT k.job_id, k.skill_type, k.skill_name
		FROM job_skills k JOIN %s p ON p.id = k.job_id
		ORDER BY k.job_id, k.skill_type, k.position`, table))
	if err != nil {
		return fmt.Errorf("loading skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind, name string
		if err := rows.Scan(&id, &kind, &name); err != nil {
			return fmt.Errorf("scanning skill row: %w", err)
		}
		i, ok := index[id]
		if !ok || records[i].Enrichment == nil {
			continue
		}
		a := records[i].Enrichment
		switch kind {
		case "technical_skills":
			a.TechnicalSkills = append(a.TechnicalSkills, name)
		case "behavioral_skills":
			a.BehavioralSkills = append(a.BehavioralSkills, name)
		case "certifications":
			a.Certifications = append(a.Certifications, name)
		case "languages":
			a.SpokenLanguages = append(a.SpokenLanguages, name)
		}
	}
	return rows.Err()
}

// checkClosedSets rejects stored closed-set values outside their canonical
// spelling.
func checkClosedSets(a *model.Attributes) error {
	switch {
	case a.CompanySizeClass != nil && !a.CompanySizeClass.Valid():
		return fmt.Errorf("invalid company_size_class %q", *a.CompanySizeClass)
	case a.ContractType != nil && !a.ContractType.Valid():
		return fmt.Errorf("invalid contract_type %q", *a.ContractType)
	case a.EducationLevel != nil && !a.EducationLevel.Valid():
		return fmt.Errorf("invalid education_level %q", *a.EducationLevel)
	}
	return nil
}

func nullable[T ~string](v *T) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
