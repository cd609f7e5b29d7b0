package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/pkg/database"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(pool database.DBTX) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, full_name, phone, role, avatar_url, is_active, email_verified, oauth_provider, oauth_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.ID,
		a.Email,
		a.PasswordHash,
		a.FullName,
		a.Phone,
		a.Role,
		a.AvatarURL,
		a.IsActive,
		a.EmailVerified,
		a.OAuthProvider,
		a.OAuthID,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, full_name, phone, role, avatar_url, is_active, email_verified, oauth_provider, oauth_id, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	return r.scanAccount(ctx, query, id)
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, full_name, phone, role, avatar_url, is_active, email_verified, oauth_provider, oauth_id, created_at, updated_at
		FROM accounts
		WHERE email = $1`

	return r.scanAccount(ctx, query, email)
}

// GetByOAuth retrieves an account by its OAuth provider and subject ID.
func (r *AccountRepository) GetByOAuth(ctx context.Context, provider, oauthID string) (*domain.Account, error) {
	query := `
		SELECT id, email, password_hash, full_name, phone, role, avatar_url, is_active, email_verified, oauth_provider, oauth_id, created_at, updated_at
		FROM accounts
		WHERE oauth_provider = $1 AND oauth_id = $2`

	return r.scanAccount(ctx, query, provider, oauthID)
}

// Update modifies an existing account in the database.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE accounts
		SET email = $1, password_hash = $2, full_name = $3, phone = $4, role = $5,
		    avatar_url = $6, is_active = $7, email_verified = $8, oauth_provider = $9, oauth_id = $10, updated_at = $11
		WHERE id = $12`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.Email,
		a.PasswordHash,
		a.FullName,
		a.Phone,
		a.Role,
		a.AvatarURL,
		a.IsActive,
		a.EmailVerified,
		a.OAuthProvider,
		a.OAuthID,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("update account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.ID)
	}

	return nil
}

// Delete removes an account from the database by its ID.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// scanAccount is a helper that executes a query expected to return a single account row.
func (r *AccountRepository) scanAccount(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var a domain.Account

	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FullName,
		&a.Phone,
		&a.Role,
		&a.AvatarURL,
		&a.IsActive,
		&a.EmailVerified,
		&a.OAuthProvider,
		&a.OAuthID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

// --- Address Repository ---

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	pool database.DBTX
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool database.DBTX) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts a new address into the database.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) error {
	query := `
		INSERT INTO addresses (id, account_id, full_name, phone, street, ward, district, city, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.ID,
		a.AccountID,
		a.FullName,
		a.Phone,
		a.Street,
		a.Ward,
		a.District,
		a.City,
		a.IsDefault,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

// GetByID retrieves an address by its ID.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (*domain.Address, error) {
	query := `
		SELECT id, account_id, full_name, phone, street, ward, district, city, is_default, created_at, updated_at
		FROM addresses
		WHERE id = $1`

	var a domain.Address
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.AccountID,
		&a.FullName,
		&a.Phone,
		&a.Street,
		&a.Ward,
		&a.District,
		&a.City,
		&a.IsDefault,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return &a, nil
}

// ListByAccountID returns all addresses for the given account.
func (r *AddressRepository) ListByAccountID(ctx context.Context, accountID string) ([]domain.Address, error) {
	query := `
		SELECT id, account_id, full_name, phone, street, ward, district, city, is_default, created_at, updated_at
		FROM addresses
		WHERE account_id = $1
		ORDER BY is_default DESC, created_at DESC`

	rows, err := queryEngine(ctx, r.pool).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID,
			&a.AccountID,
			&a.FullName,
			&a.Phone,
			&a.Street,
			&a.Ward,
			&a.District,
			&a.City,
			&a.IsDefault,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	if addresses == nil {
		addresses = []domain.Address{}
	}

	return addresses, nil
}

// Update modifies an existing address in the database.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE addresses
		SET full_name = $1, phone = $2, street = $3, ward = $4, district = $5, city = $6, updated_at = $7
		WHERE id = $8`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		a.FullName,
		a.Phone,
		a.Street,
		a.Ward,
		a.District,
		a.City,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}

	return nil
}

// Delete removes an address from the database by its ID.
func (r *AddressRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM addresses WHERE id = $1`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	return nil
}

// SetDefault marks the specified address as the default for the account,
// unsetting any previous default within a transaction.
func (r *AddressRepository) SetDefault(ctx context.Context, accountID, addressID string) error {
	tx, err := queryEngine(ctx, r.pool).Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE addresses SET is_default = false WHERE account_id = $1 AND is_default = true`,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("unset default address: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = true WHERE id = $1 AND account_id = $2`,
		addressID, accountID,
	)
	if err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("address", addressID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// --- Verify Token Repository ---

// VerifyTokenRepository implements repository.VerifyTokenRepository using PostgreSQL.
type VerifyTokenRepository struct {
	pool database.DBTX
}

// NewVerifyTokenRepository creates a new PostgreSQL-backed verification token repository.
func NewVerifyTokenRepository(pool database.DBTX) *VerifyTokenRepository {
	return &VerifyTokenRepository{pool: pool}
}

// Create stores a new verification token in the database.
func (r *VerifyTokenRepository) Create(ctx context.Context, t *domain.VerifyToken) error {
	query := `
		INSERT INTO verify_tokens (id, account_id, token, purpose, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query,
		t.ID,
		t.AccountID,
		t.Token,
		t.Purpose,
		t.ExpiresAt,
		t.UsedAt,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verify token: %w", err)
	}

	return nil
}

// GetByToken retrieves a verification token by its value and purpose.
func (r *VerifyTokenRepository) GetByToken(ctx context.Context, token, purpose string) (*domain.VerifyToken, error) {
	query := `
		SELECT id, account_id, token, purpose, expires_at, used_at, created_at
		FROM verify_tokens
		WHERE token = $1 AND purpose = $2`

	var t domain.VerifyToken
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, token, purpose).Scan(
		&t.ID,
		&t.AccountID,
		&t.Token,
		&t.Purpose,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan verify token: %w", err)
	}

	return &t, nil
}

// MarkUsed consumes the token so it cannot be replayed.
func (r *VerifyTokenRepository) MarkUsed(ctx context.Context, id string) error {
	query := `UPDATE verify_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`

	ct, err := queryEngine(ctx, r.pool).Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark verify token used: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("verify token", id)
	}

	return nil
}

// --- Refresh Token Repository ---

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	pool database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(pool database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

// Create stores a new refresh token hash in the database.
func (r *RefreshTokenRepository) Create(ctx context.Context, accountID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (account_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query, accountID, tokenHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByHash retrieves a refresh token record by its hash.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, account_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var rt domain.RefreshToken
	err := queryEngine(ctx, r.pool).QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID,
		&rt.AccountID,
		&rt.TokenHash,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &rt, nil
}

// Revoke revokes a specific refresh token by its hash.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE token_hash = $2 AND revoked_at IS NULL`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query, time.Now().UTC(), tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// RevokeByAccountID revokes all refresh tokens for the given account.
func (r *RefreshTokenRepository) RevokeByAccountID(ctx context.Context, accountID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE account_id = $2 AND revoked_at IS NULL`

	_, err := queryEngine(ctx, r.pool).Exec(ctx, query, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens by account: %w", err)
	}

	return nil
}
