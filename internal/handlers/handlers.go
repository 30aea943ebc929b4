package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	adminhandlers "github.com/tarvale/coinledger/internal/handlers/admin"
	depositshandlers "github.com/tarvale/coinledger/internal/handlers/deposits"
	usershandlers "github.com/tarvale/coinledger/internal/handlers/users"
	webhookshandlers "github.com/tarvale/coinledger/internal/handlers/webhooks"
	withdrawalshandlers "github.com/tarvale/coinledger/internal/handlers/withdrawals"
	"github.com/tarvale/coinledger/internal/service"
	"github.com/tarvale/coinledger/pkg/auth"
)

type UserHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type DepositHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
}

type WithdrawalHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
}

type WebhookHandler interface {
	Payment(w http.ResponseWriter, r *http.Request)
	Payout(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	ListDeposits(w http.ResponseWriter, r *http.Request)
	ListWithdrawals(w http.ResponseWriter, r *http.Request)
	ProcessWithdrawal(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	UserHandler       UserHandler
	DepositHandler    DepositHandler
	WithdrawalHandler WithdrawalHandler
	WebhookHandler    WebhookHandler
	AdminHandler      AdminHandler

	jwtService auth.JWTServiceInterface
}

func New(s *service.Services, jwtService auth.JWTServiceInterface) *Handlers {
	return &Handlers{
		UserHandler:       usershandlers.New(s.UserService, s.BalanceService),
		DepositHandler:    depositshandlers.New(s.DepositService, s.UserService),
		WithdrawalHandler: withdrawalshandlers.New(s.WithdrawalService, s.UserService),
		WebhookHandler:    webhookshandlers.New(s.Ingestor),
		AdminHandler:      adminhandlers.New(s.AdminService, s.DepositService, s.WithdrawalService),
		jwtService:        jwtService,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.UserHandler.Register)
			r.Get("/balance", h.UserHandler.GetBalance)
			r.Get("/transactions", h.UserHandler.GetTransactions)
		})

		r.Post("/deposits", h.DepositHandler.Create)
		r.Post("/withdrawals", h.WithdrawalHandler.Create)

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/payment", h.WebhookHandler.Payment)
			r.Post("/payout", h.WebhookHandler.Payout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.AdminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.AdminMiddleware(h.jwtService))
				r.Get("/deposits", h.AdminHandler.ListDeposits)
				r.Get("/withdrawals", h.AdminHandler.ListWithdrawals)
				r.Post("/withdrawals/process", h.AdminHandler.ProcessWithdrawal)
			})
		})
	})

	return r
}
