package cvs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// querier is satisfied by *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// maxRowsPerInsert keeps multi-row inserts well below the 65535 bind parameter limit.
const maxRowsPerInsert = 1000

// childTables lists the tables holding rows owned by a cvs row.
var childTables = []string{"skills", "experiences", "education", "reference_list"}

func insertParent(ctx context.Context, q querier, p Personal, profile string) (int64, error) {
	const query = `
INSERT INTO cvs (full_name, title, phone, email, location, profile)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	var id int64
	err := q.QueryRowContext(ctx, query,
		p.FullName,
		p.Title,
		p.Phone,
		p.Email,
		p.Location,
		profile,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert cv: %w", err)
	}
	return id, nil
}

// updateParent rewrites the root fields and bumps updated_at. It reports the
// number of rows matched so callers can detect a missing id.
func updateParent(ctx context.Context, q querier, id int64, p Personal, profile string) (int64, error) {
	const query = `
UPDATE cvs
SET full_name = $1, title = $2, phone = $3, email = $4, location = $5,
    profile = $6, updated_at = now()
WHERE id = $7`
	res, err := q.ExecContext(ctx, query,
		p.FullName,
		p.Title,
		p.Phone,
		p.Email,
		p.Location,
		profile,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("update cv: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update cv rows affected: %w", err)
	}
	return n, nil
}

func deleteParent(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM cvs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cv: %w", err)
	}
	return nil
}

// replaceChildren drops every child row of id and inserts the given, already
// filtered collections.
func replaceChildren(ctx context.Context, q querier, id int64, cv CVAggregate) error {
	for _, table := range childTables {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE cv_id = $1`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return insertChildren(ctx, q, id, cv)
}

// insertChildren writes each non-empty collection in input order so that an
// ascending id read reproduces it.
func insertChildren(ctx context.Context, q querier, id int64, cv CVAggregate) error {
	skills := make([][]any, 0, len(cv.Skills))
	for _, s := range cv.Skills {
		skills = append(skills, []any{id, s})
	}
	if err := bulkInsert(ctx, q, "skills", []string{"cv_id", "skill"}, skills); err != nil {
		return err
	}

	experiences := make([][]any, 0, len(cv.Experiences))
	for _, e := range cv.Experiences {
		experiences = append(experiences, []any{id, e.Company, e.Role, e.Period, e.Details})
	}
	if err := bulkInsert(ctx, q, "experiences", []string{"cv_id", "company", "role", "period", "details"}, experiences); err != nil {
		return err
	}

	education := make([][]any, 0, len(cv.Education))
	for _, e := range cv.Education {
		education = append(education, []any{id, e.Institution, e.Qualification, e.Period})
	}
	if err := bulkInsert(ctx, q, "education", []string{"cv_id", "institution", "qualification", "period"}, education); err != nil {
		return err
	}

	references := make([][]any, 0, len(cv.References))
	for _, r := range cv.References {
		references = append(references, []any{id, r})
	}
	return bulkInsert(ctx, q, "reference_list", []string{"cv_id", "reference"}, references)
}

func bulkInsert(ctx context.Context, q querier, table string, columns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += maxRowsPerInsert {
		end := min(start+maxRowsPerInsert, len(rows))
		query, args := buildInsert(table, columns, rows[start:end])
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// buildInsert renders a single multi-row INSERT with positional parameters.
func buildInsert(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

// fetchAggregate loads the CV and its children. The bool is false when no
// cvs row matches id.
func fetchAggregate(ctx context.Context, q querier, id int64) (CVAggregate, bool, error) {
	const query = `
SELECT id, full_name, title, phone, email, location, profile, created_at, updated_at
FROM cvs
WHERE id = $1`
	var cv CVAggregate
	var title, phone, email, location, profile sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&cv.ID,
		&cv.Personal.FullName,
		&title,
		&phone,
		&email,
		&location,
		&profile,
		&cv.CreatedAt,
		&cv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CVAggregate{}, false, nil
		}
		return CVAggregate{}, false, fmt.Errorf("select cv: %w", err)
	}
	cv.Personal.Title = title.String
	cv.Personal.Phone = phone.String
	cv.Personal.Email = email.String
	cv.Personal.Location = location.String
	cv.Profile = profile.String

	if cv.Skills, err = fetchStrings(ctx, q, `SELECT skill FROM skills WHERE cv_id = $1 ORDER BY id`, id); err != nil {
		return CVAggregate{}, false, fmt.Errorf("select skills: %w", err)
	}
	if cv.Experiences, err = fetchExperiences(ctx, q, id); err != nil {
		return CVAggregate{}, false, fmt.Errorf("select experiences: %w", err)
	}
	if cv.Education, err = fetchEducation(ctx, q, id); err != nil {
		return CVAggregate{}, false, fmt.Errorf("select education: %w", err)
	}
	if cv.References, err = fetchStrings(ctx, q, `SELECT reference FROM reference_list WHERE cv_id = $1 ORDER BY id`, id); err != nil {
		return CVAggregate{}, false, fmt.Errorf("select references: %w", err)
	}
	return cv, true, nil
}

func fetchStrings(ctx context.Context, q querier, query string, id int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func fetchExperiences(ctx context.Context, q querier, id int64) ([]Experience, error) {
	const query = `
SELECT company, role, period, details
FROM experiences
WHERE cv_id = $1
ORDER BY id`
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Experience{}
	for rows.Next() {
		var company, role, period, details sql.NullString
		if err := rows.Scan(&company, &role, &period, &details); err != nil {
			return nil, err
		}
		out = append(out, Experience{
			Company: company.String,
			Role:    role.String,
			Period:  period.String,
			Details: details.String,
		})
	}
	return out, rows.Err()
}

func fetchEducation(ctx context.Context, q querier, id int64) ([]Education, error) {
	const query = `
SELECT institution, qualification, period
FROM education
WHERE cv_id = $1
ORDER BY id`
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Education{}
	for rows.Next() {
		var institution, qualification, period sql.NullString
		if err := rows.Scan(&institution, &qualification, &period); err != nil {
			return nil, err
		}
		out = append(out, Education{
			Institution:   institution.String,
			Qualification: qualification.String,
			Period:        period.String,
		})
	}
	return out, rows.Err()
}

func fetchSummaries(ctx context.Context, q querier) ([]Summary, error) {
	const query = `
SELECT id, full_name, title, email, created_at, updated_at
FROM cvs
ORDER BY updated_at DESC, id DESC`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select summaries: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var title, email sql.NullString
		if err := rows.Scan(&s.ID, &s.FullName, &title, &email, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Title = title.String
		s.Email = email.String
		out = append(out, s)
	}
	return out, rows.Err()
}
