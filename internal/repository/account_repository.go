package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// AccountFilter captures user administration search parameters.
type AccountFilter struct {
	Role     *domain.Role
	IsActive *bool
	Search   string
	Page     Page
}

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, int, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) (*domain.Account, error)
	AppendProfileNote(ctx context.Context, id string, note domain.CustomerNote) ([]domain.CustomerNote, error)
	RoleStats(ctx context.Context) ([]domain.RoleStat, error)
}

type accountRepository struct {
	db DB
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(db DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, first_name, last_name, email, password_hash, role, phone, country,
               is_active, email_verified, preferences, profile, last_login, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (first_name, last_name, email, password_hash, role, phone, country,
                              is_active, email_verified, preferences, profile)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	err := r.db.QueryRow(ctx, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Phone,
		account.Country,
		account.IsActive,
		account.EmailVerified,
		account.Preferences,
		account.Profile,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return translateError(err)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET first_name=$1, last_name=$2, email=$3, password_hash=$4, role=$5,
            phone=$6, country=$7, is_active=$8, email_verified=$9, preferences=$10, profile=$11,
            updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	err := r.db.QueryRow(ctx, query,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Phone,
		account.Country,
		account.IsActive,
		account.EmailVerified,
		account.Preferences,
		account.Profile,
		account.ID,
	).Scan(&account.UpdatedAt)
	return translateError(err)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	return scanAccount(r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, int, error) {
	where := &whereBuilder{}
	if filter.Role != nil {
		where.add("role=$%d", *filter.Role)
	}
	if filter.IsActive != nil {
		where.add("is_active=$%d", *filter.IsActive)
	}
	where.search(filter.Search, "first_name", "last_name", "email")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.withDefault(20)
	query := fmt.Sprintf(`SELECT %s FROM accounts%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		accountColumns, where.sql(), where.next(), where.next()+1)
	args := append(where.args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, total, rows.Err()
}

func (r *accountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET last_login=$1 WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) SetActive(ctx context.Context, id string, active bool) (*domain.Account, error) {
	query := `UPDATE accounts SET is_active=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, active, id))
}

// AppendProfileNote adds a note in place so concurrent notes are never lost.
func (r *accountRepository) AppendProfileNote(ctx context.Context, id string, note domain.CustomerNote) ([]domain.CustomerNote, error) {
	const query = `
        UPDATE accounts
        SET profile = jsonb_set(profile, '{notes}', COALESCE(profile->'notes', '[]'::jsonb) || jsonb_build_array($1::jsonb)),
            updated_at = NOW()
        WHERE id=$2
        RETURNING COALESCE(profile->'notes', '[]'::jsonb)`

	var notes []domain.CustomerNote
	if err := r.db.QueryRow(ctx, query, note, id).Scan(&notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *accountRepository) RoleStats(ctx context.Context) ([]domain.RoleStat, error) {
	const query = `
        SELECT role, COUNT(*), COUNT(*) FILTER (WHERE is_active), COUNT(*) FILTER (WHERE NOT is_active)
        FROM accounts GROUP BY role ORDER BY role`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.RoleStat
	for rows.Next() {
		var stat domain.RoleStat
		if err := rows.Scan(&stat.Role, &stat.Total, &stat.Active, &stat.Inactive); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(accountDest(&account)...); err != nil {
		return nil, err
	}
	return &account, nil
}

// accountDest lists scan targets in accountColumns order.
func accountDest(account *domain.Account) []any {
	return []any{
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Phone,
		&account.Country,
		&account.IsActive,
		&account.EmailVerified,
		&account.Preferences,
		&account.Profile,
		&account.LastLogin,
		&account.CreatedAt,
		&account.UpdatedAt,
	}
}

// prefixedAccountColumns qualifies accountColumns with a table alias.
func prefixedAccountColumns(alias string) string {
	cols := strings.Split(accountColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
