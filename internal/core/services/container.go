package services

import (
	portsrepo "github.com/openledgerhq/posting-engine/internal/core/ports/repositories"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
)

// ServiceContainer holds all service facades for injection into the worker
// and any other entry point.
type ServiceContainer struct {
	Accounts  portssvc.ChartOfAccountsService
	Posting   portssvc.PostingService
	Reporting portssvc.ReportingService
}

// NewServiceContainer wires services onto the repository provider.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, baseCurrency string) *ServiceContainer {
	return &ServiceContainer{
		Accounts:  NewAccountService(repos.AccountRepo),
		Posting:   NewPostingService(repos.JournalRepo, repos.AccountRepo, repos.PeriodRepo, baseCurrency),
		Reporting: NewReportingService(repos.ReportingRepo, repos.AccountRepo),
	}
}
