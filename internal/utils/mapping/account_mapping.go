package mapping

import (
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		Code:             d.Code,
		Name:             d.Name,
		AccountType:      models.AccountType(d.AccountType),
		NormalBalance:    models.NormalBalance(d.NormalBalance),
		ParentCode:       d.ParentCode,
		Level:            d.Level,
		IsControlAccount: d.IsControlAccount,
		AllowsPosting:    d.AllowsPosting,
		CurrencyCode:     d.CurrencyCode,
		IsActive:         d.IsActive,
		OpenedAt:         d.OpenedAt,
		Balance:          d.Balance,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		Code:             m.Code,
		Name:             m.Name,
		AccountType:      domain.AccountType(m.AccountType),
		NormalBalance:    domain.NormalBalance(m.NormalBalance),
		ParentCode:       m.ParentCode,
		Level:            m.Level,
		IsControlAccount: m.IsControlAccount,
		AllowsPosting:    m.AllowsPosting,
		CurrencyCode:     m.CurrencyCode,
		IsActive:         m.IsActive,
		OpenedAt:         m.OpenedAt,
		Balance:          m.Balance,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
