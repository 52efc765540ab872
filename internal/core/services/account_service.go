package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
	"github.com/openledgerhq/posting-engine/internal/dto"
	"github.com/openledgerhq/posting-engine/internal/platform/logging"
)

// accountService owns the chart of accounts: codes, types, posting
// eligibility, hierarchy levels.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	validate    *validator.Validate
	now         func() time.Time
}

// NewAccountService creates a new chart-of-accounts registry service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.ChartOfAccountsService {
	return &accountService{
		accountRepo: accountRepo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
}

var _ portssvc.ChartOfAccountsService = (*accountService)(nil)

// CreateAccount registers a new GL account after enforcing the hierarchy rules:
// codes are globally unique and never reused, only control accounts may have
// children, and an account that allows posting is always a leaf.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	logger := logging.FromCtx(ctx)

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.IsControlAccount && req.AllowsPosting {
		return nil, apperrors.NewRejection(apperrors.ReasonInvalidHierarchy, "control account %s cannot allow posting", req.Code)
	}

	if _, err := s.accountRepo.FindAccountByCode(ctx, req.Code); err == nil {
		return nil, apperrors.NewRejection(apperrors.ReasonDuplicateCode, "account code %s already exists", req.Code)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate code %s: %w", req.Code, err)
	}

	level := 1
	if req.ParentCode != "" {
		parent, err := s.accountRepo.FindAccountByCode(ctx, req.ParentCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewRejection(apperrors.ReasonInvalidParent, "parent account %s does not exist", req.ParentCode)
			}
			return nil, fmt.Errorf("failed to fetch parent account %s: %w", req.ParentCode, err)
		}
		if !parent.IsControlAccount {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidParent, "parent account %s is not a control account", req.ParentCode)
		}
		if parent.AllowsPosting {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidHierarchy, "parent account %s allows posting and cannot have children", req.ParentCode)
		}
		level = parent.Level + 1
	}

	normal := req.NormalBalance
	if normal == "" {
		normal = domain.DefaultNormalBalance(req.AccountType)
	}
	now := s.now().UTC()
	openedAt := now
	if req.OpenedAt != nil {
		openedAt = req.OpenedAt.UTC()
	}

	account := domain.Account{
		Code:             req.Code,
		Name:             req.Name,
		AccountType:      req.AccountType,
		NormalBalance:    normal,
		ParentCode:       req.ParentCode,
		Level:            level,
		IsControlAccount: req.IsControlAccount,
		AllowsPosting:    req.AllowsPosting,
		CurrencyCode:     req.CurrencyCode,
		IsActive:         true,
		OpenedAt:         openedAt,
		Balance:          decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.NewRejection(apperrors.ReasonDuplicateCode, "account code %s already exists", req.Code)
		}
		logger.Error("Failed to save account", slog.String("code", req.Code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account %s: %w", req.Code, err)
	}

	logger.Info("Account created", slog.String("code", account.Code), slog.Int("level", account.Level))
	return &account, nil
}

// ResolveAccount retrieves a single account by code.
func (s *accountService) ResolveAccount(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewRejection(apperrors.ReasonAccountNotFound, "account %s does not exist", code)
		}
		return nil, fmt.Errorf("failed to resolve account %s: %w", code, err)
	}
	return account, nil
}

// ListHierarchy returns the full account tree. Pure projection, no side
// effects; parents are code references so this is safe against concurrent
// registry updates.
func (s *accountService) ListHierarchy(ctx context.Context) ([]*dto.AccountNode, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	nodes := make(map[string]*dto.AccountNode, len(accounts))
	for _, acc := range accounts {
		nodes[acc.Code] = &dto.AccountNode{Account: acc}
	}
	var roots []*dto.AccountNode
	for _, acc := range accounts {
		node := nodes[acc.Code]
		if acc.ParentCode == "" {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[acc.ParentCode]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// Orphaned reference; surface at the root rather than dropping it.
			roots = append(roots, node)
		}
	}
	sortNodes(roots)
	return roots, nil
}

func sortNodes(nodes []*dto.AccountNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Account.Code < nodes[j].Account.Code })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// UpdateAccount mutates the mutable subset of an account. Changes that would
// retroactively invalidate historical postings are refused.
func (s *accountService) UpdateAccount(ctx context.Context, code string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	logger := logging.FromCtx(ctx)

	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewRejection(apperrors.ReasonAccountNotFound, "account %s does not exist", code)
		}
		return nil, fmt.Errorf("failed to fetch account %s for update: %w", code, err)
	}

	disablesPosting := req.AllowsPosting != nil && !*req.AllowsPosting && account.AllowsPosting
	deactivates := req.IsActive != nil && !*req.IsActive && account.IsActive
	if disablesPosting || deactivates {
		hasLines, err := s.accountRepo.HasPostedLines(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check posted activity for account %s: %w", code, err)
		}
		if hasLines {
			return nil, apperrors.NewRejection(apperrors.ReasonAccountHasPostedActivity, "account %s has historical journal lines", code)
		}
	}
	if req.AllowsPosting != nil && *req.AllowsPosting && !account.AllowsPosting {
		if account.IsControlAccount {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidHierarchy, "account %s is a control account and cannot allow posting", code)
		}
		hasChildren, err := s.accountRepo.HasChildren(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check children of account %s: %w", code, err)
		}
		if hasChildren {
			return nil, apperrors.NewRejection(apperrors.ReasonInvalidHierarchy, "account %s has children and cannot allow posting", code)
		}
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.AllowsPosting != nil {
		account.AllowsPosting = *req.AllowsPosting
		updated = true
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = s.now().UTC()
	account.LastUpdatedBy = actorID
	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("code", code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update account %s: %w", code, err)
	}
	logger.Info("Account updated", slog.String("code", code))
	return account, nil
}
