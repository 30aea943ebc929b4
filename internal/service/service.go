package service

import (
	"github.com/tarvale/coinledger/internal/config"
	"github.com/tarvale/coinledger/internal/pg"
	"github.com/tarvale/coinledger/internal/provider"
	"github.com/tarvale/coinledger/internal/repo"
	"github.com/tarvale/coinledger/internal/service/adminservice"
	"github.com/tarvale/coinledger/internal/service/balanceservice"
	"github.com/tarvale/coinledger/internal/service/depositservice"
	"github.com/tarvale/coinledger/internal/service/userservice"
	"github.com/tarvale/coinledger/internal/service/withdrawalservice"
	"github.com/tarvale/coinledger/internal/webhook"
	"github.com/tarvale/coinledger/pkg/auth"
)

type Services struct {
	UserService       *userservice.Service
	BalanceService    *balanceservice.Service
	DepositService    *depositservice.Service
	WithdrawalService *withdrawalservice.Service
	AdminService      *adminservice.Service
	Ingestor          *webhook.Ingestor
}

func New(cfg *config.Config, repo *repo.Repositories, prov *provider.Client, txManager pg.TXManager, jwtService auth.JWTServiceInterface) *Services {
	balanceService := balanceservice.New(repo.BalanceRepo, repo.LedgerRepo, txManager)
	depositService := depositservice.New(cfg, repo.DepositRepo, balanceService, prov, txManager)
	withdrawalService := withdrawalservice.New(cfg, repo.WithdrawalRepo, balanceService, prov, repo.AuditRepo, txManager)
	userService := userservice.New(repo.UserRepo, balanceService, depositService, withdrawalService, txManager)
	adminService := adminservice.New(cfg, jwtService, &auth.HashService{})
	ingestor := webhook.NewIngestor(depositService, withdrawalService, repo.EventRepo, prov, txManager)

	return &Services{
		UserService:       userService,
		BalanceService:    balanceService,
		DepositService:    depositService,
		WithdrawalService: withdrawalService,
		AdminService:      adminService,
		Ingestor:          ingestor,
	}
}
