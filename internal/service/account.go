package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidhood/bird-trading-platform/internal/auth"
	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/event"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// Lifetimes for single-use verification tokens.
const (
	registerTokenTTL = 24 * time.Hour
	resetTokenTTL    = 1 * time.Hour
)

// oauthProviderGoogle is the provider key stored for Google-provisioned accounts.
const oauthProviderGoogle = "google"

// AccountService implements the business logic for account and auth operations.
type AccountService struct {
	accountRepo      repository.AccountRepository
	addressRepo      repository.AddressRepository
	verifyTokenRepo  repository.VerifyTokenRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtManager       *auth.JWTManager
	googleOAuth      *auth.GoogleOAuth
	producer         *event.Producer
	logger           *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	accountRepo repository.AccountRepository,
	addressRepo repository.AddressRepository,
	verifyTokenRepo repository.VerifyTokenRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	googleOAuth *auth.GoogleOAuth,
	producer *event.Producer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accountRepo:      accountRepo,
		addressRepo:      addressRepo,
		verifyTokenRepo:  verifyTokenRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtManager:       jwtManager,
		googleOAuth:      googleOAuth,
		producer:         producer,
		logger:           logger,
	}
}

// --- Auth Input/Output types ---

// RegisterInput holds the parameters for registering a new account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// RegisterOutput is the result of a successful registration. The verification
// token is handed to the mail pipeline, never to the HTTP response.
type RegisterOutput struct {
	Account     *domain.Account
	VerifyToken string
}

// LoginInput holds the parameters for account login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating an account's profile.
type UpdateProfileInput struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// CreateAddressInput holds the parameters for creating a new address.
type CreateAddressInput struct {
	FullName  string
	Phone     string
	Street    string
	Ward      string
	District  string
	City      string
	IsDefault bool
}

// UpdateAddressInput holds the parameters for updating an address.
type UpdateAddressInput struct {
	FullName *string
	Phone    *string
	Street   *string
	Ward     *string
	District *string
	City     *string
}

// --- Auth Operations ---

// Register creates a new account and issues an email verification token. The
// account cannot log in until the token is redeemed.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New().String(),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:  string(hashedPassword),
		FullName:      input.FullName,
		Phone:         input.Phone,
		Role:          string(authz.RoleUser),
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	verifyToken := &domain.VerifyToken{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Token:     uuid.New().String(),
		Purpose:   domain.VerifyPurposeRegister,
		ExpiresAt: now.Add(registerTokenTTL),
		CreatedAt: now,
	}
	if err := s.verifyTokenRepo.Create(ctx, verifyToken); err != nil {
		return nil, fmt.Errorf("create verify token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return &RegisterOutput{
		Account:     account,
		VerifyToken: verifyToken.Token,
	}, nil
}

// VerifyEmail redeems a registration token and marks the account's email as
// verified. Tokens are single-use.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.InvalidInput("verification token is required")
	}

	stored, err := s.verifyTokenRepo.GetByToken(ctx, token, domain.VerifyPurposeRegister)
	if err != nil {
		return apperrors.Unauthorized("invalid verification token")
	}
	if stored.Used() {
		return apperrors.Unauthorized("verification token has already been used")
	}
	if stored.Expired(time.Now().UTC()) {
		return apperrors.Unauthorized("verification token has expired")
	}

	if err := s.verifyTokenRepo.MarkUsed(ctx, stored.ID); err != nil {
		return fmt.Errorf("consume verify token: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, stored.AccountID)
	if err != nil {
		return fmt.Errorf("get account for verification: %w", err)
	}

	account.EmailVerified = true
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("account_id", account.ID),
	)

	return nil
}

// Login authenticates an account with email and password, returning tokens.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*domain.Account, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if !account.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}
	if !account.EmailVerified {
		return nil, nil, apperrors.Unauthorized("email address is not verified")
	}

	tokens, err := s.generateTokenPair(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, tokens, nil
}

// RefreshToken validates a refresh token and rotates it into a new token pair.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokenHash := hashToken(refreshToken)
	stored, err := s.refreshTokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Unauthorized("refresh token not found")
	}

	if stored.RevokedAt != nil {
		return nil, apperrors.Unauthorized("refresh token has been revoked")
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		return nil, apperrors.Unauthorized("refresh token has expired")
	}

	// Rotate: the presented token is dead either way.
	if err := s.refreshTokenRepo.Revoke(ctx, tokenHash); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke old refresh token",
			slog.String("account_id", claims.AccountID),
			slog.String("error", err.Error()),
		)
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get account for token refresh: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("account_id", account.ID),
	)

	return tokens, nil
}

// Logout revokes the presented refresh token.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	if err := s.refreshTokenRepo.Revoke(ctx, hashToken(refreshToken)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// ForgotPassword issues a password reset token for the account. Unknown
// emails succeed silently so the endpoint does not leak account existence.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.InvalidInput("email is required")
	}

	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.InfoContext(ctx, "password reset requested for unknown email",
			slog.String("email", email),
		)
		return "", nil
	}

	now := time.Now().UTC()
	resetToken := &domain.VerifyToken{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Token:     uuid.New().String(),
		Purpose:   domain.VerifyPurposeResetPassword,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.verifyTokenRepo.Create(ctx, resetToken); err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return resetToken.Token, nil
}

// ResetPassword resets an account's password using a reset token. All
// existing sessions are revoked.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.InvalidInput("reset token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	stored, err := s.verifyTokenRepo.GetByToken(ctx, token, domain.VerifyPurposeResetPassword)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}
	if stored.Used() {
		return apperrors.Unauthorized("reset token has already been used")
	}
	if stored.Expired(time.Now().UTC()) {
		return apperrors.Unauthorized("reset token has expired")
	}

	if err := s.verifyTokenRepo.MarkUsed(ctx, stored.ID); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, stored.AccountID)
	if err != nil {
		return fmt.Errorf("get account for password reset: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	account.PasswordHash = string(hashedPassword)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("update account password: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeByAccountID(ctx, account.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password reset",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// ChangePassword allows an authenticated account to change its password.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account for password change: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	account.PasswordHash = string(hashedPassword)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("update account password: %w", err)
	}

	// Force re-login on every device.
	if err := s.refreshTokenRepo.RevokeByAccountID(ctx, account.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password change",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// --- Google OAuth ---

// GoogleAuthURL returns the Google consent-page URL for the given state.
func (s *AccountService) GoogleAuthURL(state string) string {
	return s.googleOAuth.AuthCodeURL(state)
}

// LoginWithGoogle completes the Google authorization-code flow. Accounts are
// matched by OAuth subject first, then linked by email, then provisioned.
func (s *AccountService) LoginWithGoogle(ctx context.Context, code string) (*domain.Account, *domain.TokenPair, error) {
	if code == "" {
		return nil, nil, apperrors.InvalidInput("authorization code is required")
	}

	info, err := s.googleOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("google sign-in failed")
	}

	account, err := s.accountRepo.GetByOAuth(ctx, oauthProviderGoogle, info.ID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("get account by oauth: %w", err)
		}
		account, err = s.linkOrProvisionGoogleAccount(ctx, info)
		if err != nil {
			return nil, nil, err
		}
	}

	if !account.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	tokens, err := s.generateTokenPair(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in via google",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, tokens, nil
}

// linkOrProvisionGoogleAccount attaches the Google identity to an existing
// account with the same email, or creates a fresh one. Google has already
// verified the email, so provisioned accounts skip local verification.
func (s *AccountService) linkOrProvisionGoogleAccount(ctx context.Context, info *auth.GoogleUserInfo) (*domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(info.Email))

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil {
		account.OAuthProvider = oauthProviderGoogle
		account.OAuthID = info.ID
		if account.AvatarURL == "" {
			account.AvatarURL = info.Picture
		}
		if err := s.accountRepo.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("link google identity: %w", err)
		}
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get account by email: %w", err)
	}

	now := time.Now().UTC()
	fullName := strings.TrimSpace(info.GivenName + " " + info.FamilyName)
	if fullName == "" {
		fullName = email
	}

	account = &domain.Account{
		ID:            uuid.New().String(),
		Email:         email,
		FullName:      fullName,
		Role:          string(authz.RoleUser),
		AvatarURL:     info.Picture,
		IsActive:      true,
		EmailVerified: true,
		OAuthProvider: oauthProviderGoogle,
		OAuthID:       info.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("provision google account: %w", err)
	}

	if err := s.producer.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account provisioned via google",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, nil
}

// --- Profile Operations ---

// GetProfile retrieves an account by its ID.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account profile: %w", err)
	}
	return account, nil
}

// UpdateProfile updates an account's profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, input UpdateProfileInput) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, apperrors.InvalidInput("full name must not be empty")
		}
		account.FullName = *input.FullName
	}
	if input.Phone != nil {
		account.Phone = *input.Phone
	}
	if input.AvatarURL != nil {
		account.AvatarURL = *input.AvatarURL
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	s.logger.InfoContext(ctx, "account profile updated",
		slog.String("account_id", account.ID),
	)

	return account, nil
}

// --- Address Operations ---

// CreateAddress creates a new delivery address for the account.
func (s *AccountService) CreateAddress(ctx context.Context, accountID string, input *CreateAddressInput) (*domain.Address, error) {
	if input.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	if input.Phone == "" {
		return nil, apperrors.InvalidInput("phone is required")
	}
	if input.Street == "" {
		return nil, apperrors.InvalidInput("street is required")
	}
	if input.District == "" {
		return nil, apperrors.InvalidInput("district is required")
	}
	if input.City == "" {
		return nil, apperrors.InvalidInput("city is required")
	}

	now := time.Now().UTC()
	address := &domain.Address{
		ID:        uuid.New().String(),
		AccountID: accountID,
		FullName:  input.FullName,
		Phone:     input.Phone,
		Street:    input.Street,
		Ward:      input.Ward,
		District:  input.District,
		City:      input.City,
		IsDefault: input.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	if input.IsDefault {
		if err := s.addressRepo.SetDefault(ctx, accountID, address.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to set default address",
				slog.String("address_id", address.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "address created",
		slog.String("account_id", accountID),
		slog.String("address_id", address.ID),
	)

	return address, nil
}

// ListAddresses returns all addresses for the given account.
func (s *AccountService) ListAddresses(ctx context.Context, accountID string) ([]domain.Address, error) {
	addresses, err := s.addressRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// UpdateAddress updates an existing address owned by the account.
func (s *AccountService) UpdateAddress(ctx context.Context, accountID, addressID string, input *UpdateAddressInput) (*domain.Address, error) {
	address, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("get address for update: %w", err)
	}

	// Ownership check. A foreign address is indistinguishable from a missing one.
	if address.AccountID != accountID {
		return nil, apperrors.NotFound("address", addressID)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, apperrors.InvalidInput("full name must not be empty")
		}
		address.FullName = *input.FullName
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			return nil, apperrors.InvalidInput("phone must not be empty")
		}
		address.Phone = *input.Phone
	}
	if input.Street != nil {
		if *input.Street == "" {
			return nil, apperrors.InvalidInput("street must not be empty")
		}
		address.Street = *input.Street
	}
	if input.Ward != nil {
		address.Ward = *input.Ward
	}
	if input.District != nil {
		if *input.District == "" {
			return nil, apperrors.InvalidInput("district must not be empty")
		}
		address.District = *input.District
	}
	if input.City != nil {
		if *input.City == "" {
			return nil, apperrors.InvalidInput("city must not be empty")
		}
		address.City = *input.City
	}

	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}

	s.logger.InfoContext(ctx, "address updated",
		slog.String("account_id", accountID),
		slog.String("address_id", addressID),
	)

	return address, nil
}

// DeleteAddress removes an address owned by the account.
func (s *AccountService) DeleteAddress(ctx context.Context, accountID, addressID string) error {
	address, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		return fmt.Errorf("get address for delete: %w", err)
	}

	if address.AccountID != accountID {
		return apperrors.NotFound("address", addressID)
	}

	if err := s.addressRepo.Delete(ctx, addressID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	s.logger.InfoContext(ctx, "address deleted",
		slog.String("account_id", accountID),
		slog.String("address_id", addressID),
	)

	return nil
}

// SetDefaultAddress marks the specified address as the account's default.
func (s *AccountService) SetDefaultAddress(ctx context.Context, accountID, addressID string) error {
	address, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		return fmt.Errorf("get address for set default: %w", err)
	}

	if address.AccountID != accountID {
		return apperrors.NotFound("address", addressID)
	}

	if err := s.addressRepo.SetDefault(ctx, accountID, addressID); err != nil {
		return fmt.Errorf("set default address: %w", err)
	}

	s.logger.InfoContext(ctx, "default address updated",
		slog.String("account_id", accountID),
		slog.String("address_id", addressID),
	)

	return nil
}

// --- Helpers ---

// generateTokenPair creates an access/refresh token pair and stores the
// refresh token hash.
func (s *AccountService) generateTokenPair(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	tokenHash := hashToken(refreshToken)
	refreshClaims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("validate refresh token for expiry: %w", err)
	}

	if err := s.refreshTokenRepo.Create(ctx, account.ID, tokenHash, refreshClaims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
