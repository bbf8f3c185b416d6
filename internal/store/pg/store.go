// Package pg persists the admin account registry in Postgres.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fraxion.org/internal/account"
	"fraxion.org/internal/auth"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ account.Store = (*Store)(nil)

// Open connects to Postgres through the pgx stdlib driver with pooled
// connections shared across concurrent requests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle (used by tests and cmd wiring).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const accountColumns = `id, address, name, email, description, referral, role, status,
	created_by, updated_by, deactivated_by, status_reason, created_at, updated_at, deactivated_at`

func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into admin_accounts
			(id, address, name, email, description, referral, role, status,
			 created_by, updated_by, status_reason, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'',$11,$12)
	`, acc.ID, acc.Address, acc.Name, acc.Email, acc.Description, acc.Referral,
		int(acc.Role), acc.Status, acc.CreatedBy, acc.UpdatedBy, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: address %s", auth.ErrConflict, acc.Address)
		}
		return err
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from admin_accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *Store) FindByAddress(ctx context.Context, address string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from admin_accounts where address=$1`, address)
	return scanAccount(row)
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from admin_accounts order by created_at desc limit $1 offset $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, id string, upd account.Update, actor string) (*account.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`select `+accountColumns+` from admin_accounts where id=$1 for update`, id)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		acc.Name = *upd.Name
	}
	if upd.Email != nil {
		acc.Email = *upd.Email
	}
	if upd.Description != nil {
		acc.Description = *upd.Description
	}
	if upd.Referral != nil {
		acc.Referral = *upd.Referral
	}
	if upd.Role != nil {
		acc.Role = *upd.Role
	}
	acc.UpdatedBy = actor
	acc.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		update admin_accounts
		set name=$2, email=$3, description=$4, referral=$5, role=$6, updated_by=$7, updated_at=$8
		where id=$1
	`, acc.ID, acc.Name, acc.Email, acc.Description, acc.Referral, int(acc.Role), acc.UpdatedBy, acc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Store) SetStatus(ctx context.Context, id, status, actor, reason string) (*account.Account, error) {
	var (
		deactivatedBy string
		deactivatedAt sql.NullTime
	)
	if status == account.StatusDeactivated {
		deactivatedBy = actor
		deactivatedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		update admin_accounts
		set status=$2, status_reason=$3, updated_by=$4, updated_at=now(),
		    deactivated_by=$5, deactivated_at=$6
		where id=$1
		returning `+accountColumns+`
	`, id, status, reason, actor, deactivatedBy, deactivatedAt)
	return scanAccount(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		acc           account.Account
		role          int
		deactivatedAt sql.NullTime
	)
	err := row.Scan(&acc.ID, &acc.Address, &acc.Name, &acc.Email, &acc.Description,
		&acc.Referral, &role, &acc.Status, &acc.CreatedBy, &acc.UpdatedBy,
		&acc.DeactivatedBy, &acc.StatusReason, &acc.CreatedAt, &acc.UpdatedAt, &deactivatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.Role = auth.Role(role)
	if deactivatedAt.Valid {
		t := deactivatedAt.Time
		acc.DeactivatedAt = &t
	}
	return &acc, nil
}
