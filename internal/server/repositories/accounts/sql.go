package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

const accountColumns = `id, handle, password_hash, display_name, phone, role, is_active, created_at, updated_at`

// SQLRepository implements Repository over dbx.DBTX for any dbx.Dialect.
// Queries are written with '?' placeholders and rebound per dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var role string
	err := row.Scan(&a.ID, &a.Handle, &a.PasswordHash, &a.DisplayName, &a.Phone,
		&role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	return a, nil
}

func (r *SQLRepository) Create(ctx context.Context, a *models.Account) error {
	query := r.dialect.Rebind(
		`INSERT INTO accounts (` + accountColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Handle, a.PasswordHash, a.DisplayName, a.Phone,
		string(a.Role), a.IsActive, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateHandle
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE ` + where + ` = ?`)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *SQLRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	return r.getOne(ctx, "handle", handle)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, "id", id)
}

func (r *SQLRepository) Update(ctx context.Context, a *models.Account) error {
	query := r.dialect.Rebind(
		`UPDATE accounts
		 SET password_hash = ?, display_name = ?, phone = ?, role = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		a.PasswordHash, a.DisplayName, a.Phone, string(a.Role), a.IsActive, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := r.dialect.Rebind(
		`SELECT ` + accountColumns + ` FROM accounts
		 ORDER BY created_at DESC, id
		 LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
