package dto

import (
	"time"

	"github.com/openledgerhq/posting-engine/internal/core/domain"
)

// CreateAccountRequest registers a new GL account in the chart of accounts.
type CreateAccountRequest struct {
	Code             string               `json:"code" validate:"required,max=32"`
	Name             string               `json:"name" validate:"required"`
	AccountType      domain.AccountType   `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	NormalBalance    domain.NormalBalance `json:"normalBalance,omitempty" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentCode       string               `json:"parentCode,omitempty"`
	IsControlAccount bool                 `json:"isControlAccount"`
	AllowsPosting    bool                 `json:"allowsPosting"`
	CurrencyCode     string               `json:"currencyCode" validate:"required,len=3"`
	OpenedAt         *time.Time           `json:"openedAt,omitempty"`
}

// UpdateAccountRequest mutates the mutable subset of an account. Pointer
// fields distinguish "leave unchanged" from an explicit value.
type UpdateAccountRequest struct {
	Name          *string `json:"name,omitempty"`
	AllowsPosting *bool   `json:"allowsPosting,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// AccountNode is one node of the chart-of-accounts hierarchy projection.
type AccountNode struct {
	Account  domain.Account `json:"account"`
	Children []*AccountNode `json:"children,omitempty"`
}
