package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
	"github.com/kidhood/bird-trading-platform/pkg/slug"
)

// ShopService implements the business logic for shop and staff operations.
type ShopService struct {
	shopRepo    repository.ShopRepository
	staffRepo   repository.ShopStaffRepository
	accountRepo repository.AccountRepository
	txManager   repository.TxManager
	logger      *slog.Logger
}

// NewShopService creates a new shop service.
func NewShopService(
	shopRepo repository.ShopRepository,
	staffRepo repository.ShopStaffRepository,
	accountRepo repository.AccountRepository,
	txManager repository.TxManager,
	logger *slog.Logger,
) *ShopService {
	return &ShopService{
		shopRepo:    shopRepo,
		staffRepo:   staffRepo,
		accountRepo: accountRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateShopInput holds the parameters for opening a shop.
type CreateShopInput struct {
	Name        string
	Description string
	AvatarURL   string
}

// UpdateShopInput holds the parameters for updating a shop.
type UpdateShopInput struct {
	Name        *string
	Description *string
	AvatarURL   *string
}

// CreateShop opens a storefront for the account and promotes it to the
// shopowner role. An account owns at most one shop.
func (s *ShopService) CreateShop(ctx context.Context, accountID string, input CreateShopInput) (*domain.Shop, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("shop name is required")
	}

	if _, err := s.shopRepo.GetByOwnerID(ctx, accountID); err == nil {
		return nil, apperrors.AlreadyExists("shop", "owner_id", accountID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing shop: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get owner account: %w", err)
	}

	now := time.Now().UTC()
	shop := &domain.Shop{
		ID:          uuid.New().String(),
		OwnerID:     accountID,
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		AvatarURL:   input.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The shop row and the role promotion land together or not at all; a
	// shop whose owner cannot reach the shopowner area is unusable.
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shopRepo.Create(ctx, shop); err != nil {
			return fmt.Errorf("create shop: %w", err)
		}
		if account.Role != string(authz.RoleAdmin) {
			account.Role = string(authz.RoleShopOwner)
			if err := s.accountRepo.Update(ctx, account); err != nil {
				return fmt.Errorf("promote owner role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "shop created",
		slog.String("shop_id", shop.ID),
		slog.String("owner_id", accountID),
		slog.String("slug", shop.Slug),
	)

	return shop, nil
}

// GetShop retrieves a shop by its ID.
func (s *ShopService) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return shop, nil
}

// GetShopBySlug retrieves a shop by its slug.
func (s *ShopService) GetShopBySlug(ctx context.Context, shopSlug string) (*domain.Shop, error) {
	shop, err := s.shopRepo.GetBySlug(ctx, shopSlug)
	if err != nil {
		return nil, fmt.Errorf("get shop by slug: %w", err)
	}
	return shop, nil
}

// UpdateShop updates the shop's profile fields. Only the owner may update the
// shop; the slug never changes after creation.
func (s *ShopService) UpdateShop(ctx context.Context, identity *authz.Identity, shopID string, input UpdateShopInput) (*domain.Shop, error) {
	shop, err := s.shopRepo.GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("get shop for update: %w", err)
	}

	if shop.OwnerID != identity.AccountID && identity.Role != authz.RoleAdmin {
		return nil, apperrors.Forbidden("only the shop owner may update the shop")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("shop name must not be empty")
		}
		shop.Name = *input.Name
	}
	if input.Description != nil {
		shop.Description = *input.Description
	}
	if input.AvatarURL != nil {
		shop.AvatarURL = *input.AvatarURL
	}

	if err := s.shopRepo.Update(ctx, shop); err != nil {
		return nil, fmt.Errorf("update shop: %w", err)
	}

	s.logger.InfoContext(ctx, "shop updated",
		slog.String("shop_id", shop.ID),
	)

	return shop, nil
}

// ResolveShopID maps an identity to the shop it acts for: owners resolve to
// their own shop, staff to the shop of their active membership.
func (s *ShopService) ResolveShopID(ctx context.Context, identity *authz.Identity) (string, error) {
	switch identity.Role {
	case authz.RoleShopOwner:
		shop, err := s.shopRepo.GetByOwnerID(ctx, identity.AccountID)
		if err != nil {
			return "", fmt.Errorf("get owned shop: %w", err)
		}
		return shop.ID, nil
	case authz.RoleShopStaff:
		staff, err := s.staffRepo.GetActiveByAccountID(ctx, identity.AccountID)
		if err != nil {
			return "", fmt.Errorf("get staff membership: %w", err)
		}
		return staff.ShopID, nil
	default:
		return "", apperrors.Forbidden("account is not attached to a shop")
	}
}

// AddStaff attaches an account to the shop as staff and moves it to the
// shopstaff role. The target is looked up by email.
func (s *ShopService) AddStaff(ctx context.Context, identity *authz.Identity, email string) (*domain.ShopStaff, error) {
	if email == "" {
		return nil, apperrors.InvalidInput("staff email is required")
	}

	shop, err := s.shopRepo.GetByOwnerID(ctx, identity.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get owned shop: %w", err)
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NotFoundMsg(fmt.Sprintf("no account with email %s", email))
	}

	if account.Role != string(authz.RoleUser) {
		return nil, apperrors.InvalidInput("only regular accounts can be added as staff")
	}
	if _, err := s.staffRepo.GetActiveByAccountID(ctx, account.ID); err == nil {
		return nil, apperrors.AlreadyExists("staff", "account_id", account.ID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check staff membership: %w", err)
	}

	staff := &domain.ShopStaff{
		ID:        uuid.New().String(),
		ShopID:    shop.ID,
		AccountID: account.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.staffRepo.Add(ctx, staff); err != nil {
		return nil, fmt.Errorf("add staff: %w", err)
	}

	account.Role = string(authz.RoleShopStaff)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update staff role: %w", err)
	}

	s.logger.InfoContext(ctx, "staff added",
		slog.String("shop_id", shop.ID),
		slog.String("staff_account_id", account.ID),
	)

	return staff, nil
}

// ListStaff returns the staff memberships of the caller's shop.
func (s *ShopService) ListStaff(ctx context.Context, identity *authz.Identity) ([]domain.ShopStaff, error) {
	shop, err := s.shopRepo.GetByOwnerID(ctx, identity.AccountID)
	if err != nil {
		return nil, fmt.Errorf("get owned shop: %w", err)
	}

	staff, err := s.staffRepo.ListByShopID(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// RevokeStaff ends a staff membership of the caller's shop and demotes the
// account back to the user role.
func (s *ShopService) RevokeStaff(ctx context.Context, identity *authz.Identity, staffID string) error {
	shop, err := s.shopRepo.GetByOwnerID(ctx, identity.AccountID)
	if err != nil {
		return fmt.Errorf("get owned shop: %w", err)
	}

	memberships, err := s.staffRepo.ListByShopID(ctx, shop.ID)
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}

	var target *domain.ShopStaff
	for i := range memberships {
		if memberships[i].ID == staffID {
			target = &memberships[i]
			break
		}
	}
	if target == nil {
		return apperrors.NotFound("staff", staffID)
	}
	if !target.Active() {
		return apperrors.InvalidInput("staff membership is already revoked")
	}

	if err := s.staffRepo.Revoke(ctx, staffID); err != nil {
		return fmt.Errorf("revoke staff: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, target.AccountID)
	if err != nil {
		return fmt.Errorf("get staff account: %w", err)
	}
	account.Role = string(authz.RoleUser)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("demote staff role: %w", err)
	}

	s.logger.InfoContext(ctx, "staff revoked",
		slog.String("shop_id", shop.ID),
		slog.String("staff_id", staffID),
	)

	return nil
}
