package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var pgColumns = map[Field]string{
	FieldStudentName:       "student_name",
	FieldSchoolName:        "school_name",
	FieldClass:             "class",
	FieldDOB:               "dob",
	FieldEmail:             "email",
	FieldMobileNumber:      "mobile_number",
	FieldAltMobileNumber:   "alt_mobile_number",
	FieldCreatedAt:         "created_at",
	FieldIsAttended:        "is_attended",
	FieldCertificateIssued: "certificate_issued",
}

const selectColumns = `id, student_name, school_name, class, dob, email, mobile_number,
	alt_mobile_number, id_card_url, is_attended, certificate_issued, created_at`

// PostgresRepository persists registrations in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the registrations table and its indexes.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registrations (
			id                 TEXT PRIMARY KEY,
			student_name       TEXT NOT NULL,
			school_name        TEXT NOT NULL,
			class              TEXT NOT NULL,
			dob                TIMESTAMPTZ NOT NULL,
			email              TEXT NOT NULL DEFAULT '',
			mobile_number      TEXT NOT NULL,
			alt_mobile_number  TEXT NOT NULL DEFAULT '',
			id_card_url        TEXT NOT NULL DEFAULT '',
			is_attended        BOOLEAN NOT NULL DEFAULT FALSE,
			certificate_issued BOOLEAN NOT NULL DEFAULT FALSE,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS registrations_identity_idx
			ON registrations (student_name, school_name, class, dob);
		CREATE INDEX IF NOT EXISTS registrations_created_at_idx ON registrations (created_at DESC);
		CREATE INDEX IF NOT EXISTS registrations_class_idx ON registrations (class);
	`)
	if err != nil {
		return fmt.Errorf("migrate registrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, reg Registration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO registrations (id, student_name, school_name, class, dob, email, mobile_number,
			alt_mobile_number, id_card_url, is_attended, certificate_issued, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, reg.ID, reg.StudentName, reg.SchoolName, string(reg.Class), reg.DOB, reg.Email, reg.MobileNumber,
		reg.AltMobileNumber, reg.IDCardURL, reg.IsAttended, reg.CertificateIssued, reg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, key DuplicateKey) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE student_name = $1 AND school_name = $2 AND class = $3 AND dob = $4
		)
	`, key.StudentName, key.SchoolName, string(key.Class), key.DOB).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Find(ctx context.Context, f Filter) ([]Registration, int64, error) {
	where, args := pgWhere(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM registrations" + where
	if col, ok := pgColumns[f.SortBy]; ok {
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s, id", col, dir)
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Skip > 0 {
		args = append(args, f.Skip)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	regs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Registration, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM registrations WHERE id = $1", id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (r *PostgresRepository) SetFlag(ctx context.Context, id string, flag Field, value bool) error {
	col, ok := pgColumns[flag]
	if !ok || (flag != FieldIsAttended && flag != FieldCertificateIssued) {
		return fmt.Errorf("unknown flag %q", flag)
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("UPDATE registrations SET %s = $2 WHERE id = $1", col), id, value)
	return affected(res, err)
}

func (r *PostgresRepository) UpdateContact(ctx context.Context, id string, u ContactUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET student_name = $2, mobile_number = $3, alt_mobile_number = COALESCE($4, alt_mobile_number)
		WHERE id = $1
	`, id, u.StudentName, u.MobileNumber, u.AltMobileNumber)
	return affected(res, err)
}

func (r *PostgresRepository) All(ctx context.Context) ([]Registration, error) {
	return r.query(ctx, "SELECT "+selectColumns+" FROM registrations")
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	regs := []Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(s scanner) (Registration, error) {
	var reg Registration
	var class string
	err := s.Scan(&reg.ID, &reg.StudentName, &reg.SchoolName, &class, &reg.DOB, &reg.Email, &reg.MobileNumber,
		&reg.AltMobileNumber, &reg.IDCardURL, &reg.IsAttended, &reg.CertificateIssued, &reg.CreatedAt)
	reg.Class = Class(class)
	reg.DOB = reg.DOB.UTC()
	reg.CreatedAt = reg.CreatedAt.UTC()
	return reg, err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// pgWhere renders the filter as a WHERE clause with positional arguments.
func pgWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Text != "" && len(f.TextFields) > 0 {
		p := arg("%" + likeEscaper.Replace(f.Text) + "%")
		var or []string
		for _, field := range f.TextFields {
			if col, ok := pgColumns[field]; ok {
				or = append(or, fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, col, p))
			}
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}
	if f.Class != "" {
		conds = append(conds, "class = "+arg(string(f.Class)))
	}
	if f.Attended != nil {
		conds = append(conds, "is_attended = "+arg(*f.Attended))
	}
	if f.CertificateIssued != nil {
		conds = append(conds, "certificate_issued = "+arg(*f.CertificateIssued))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
