package mapping

import (
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	"github.com/openledgerhq/posting-engine/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		PostingDate:     d.PostingDate,
		SourceType:      d.SourceType,
		SourceID:        d.SourceID,
		Narration:       d.Narration,
		IdempotencyKey:  d.IdempotencyKey,
		BranchID:        d.BranchID,
		CurrencyCode:    d.CurrencyCode,
		Status:          models.EntryStatus(d.Status),
		IsReversed:      d.IsReversed,
		ReversalEntryID: d.ReversalEntryID,
		OriginalEntryID: d.OriginalEntryID,
		TotalAmount:     d.TotalAmount,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:         m.EntryID,
		PostingDate:     m.PostingDate,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		Narration:       m.Narration,
		IdempotencyKey:  m.IdempotencyKey,
		BranchID:        m.BranchID,
		CurrencyCode:    m.CurrencyCode,
		Status:          domain.EntryStatus(m.Status),
		IsReversed:      m.IsReversed,
		ReversalEntryID: m.ReversalEntryID,
		OriginalEntryID: m.OriginalEntryID,
		TotalAmount:     m.TotalAmount,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:         d.LineID,
		EntryID:        d.EntryID,
		AccountCode:    d.AccountCode,
		Debit:          d.Debit,
		Credit:         d.Credit,
		CurrencyCode:   d.CurrencyCode,
		ExchangeRate:   d.ExchangeRate,
		BaseDebit:      d.BaseDebit,
		BaseCredit:     d.BaseCredit,
		RunningBalance: d.RunningBalance,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:         m.LineID,
		EntryID:        m.EntryID,
		AccountCode:    m.AccountCode,
		Debit:          m.Debit,
		Credit:         m.Credit,
		CurrencyCode:   m.CurrencyCode,
		ExchangeRate:   m.ExchangeRate,
		BaseDebit:      m.BaseDebit,
		BaseCredit:     m.BaseCredit,
		RunningBalance: m.RunningBalance,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainJournalLineSlice converts a slice of model lines to domain lines.
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		out[i] = ToDomainJournalLine(m)
	}
	return out
}
