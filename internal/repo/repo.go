package repo

import (
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/reconciler"
	auditrepo "github.com/tarvale/coinledger/internal/repo/audit-repo"
	balancerepo "github.com/tarvale/coinledger/internal/repo/balance-repo"
	depositrepo "github.com/tarvale/coinledger/internal/repo/deposit-repo"
	eventrepo "github.com/tarvale/coinledger/internal/repo/event-repo"
	ledgerrepo "github.com/tarvale/coinledger/internal/repo/ledger-repo"
	userrepo "github.com/tarvale/coinledger/internal/repo/user-repo"
	withdrawalrepo "github.com/tarvale/coinledger/internal/repo/withdrawal-repo"
	"github.com/tarvale/coinledger/internal/service/balanceservice"
	"github.com/tarvale/coinledger/internal/service/depositservice"
	"github.com/tarvale/coinledger/internal/service/userservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/internal/webhook"
)

type Repositories struct {
	UserRepo       userservice.UserRepo
	BalanceRepo    balanceservice.BalanceRepo
	LedgerRepo     balanceservice.LedgerRepo
	DepositRepo    depositservice.DepositRepo
	StaleDeposits  reconciler.DepositRepo
	WithdrawalRepo withdrawalservice.WithdrawalRepo
	EventRepo      webhook.EventRepo
	AuditRepo      withdrawalservice.AuditRepo
}

func New(conn pg.Database) *Repositories {
	deposits := depositrepo.New(conn)

	return &Repositories{
		UserRepo:       userrepo.New(conn),
		BalanceRepo:    balancerepo.New(conn),
		LedgerRepo:     ledgerrepo.New(conn),
		DepositRepo:    deposits,
		StaleDeposits:  deposits,
		WithdrawalRepo: withdrawalrepo.New(conn),
		EventRepo:      eventrepo.New(conn),
		AuditRepo:      auditrepo.New(conn),
	}
}
