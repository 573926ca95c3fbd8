package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jbmohler/lmsmono/pkg/db"
)

// NewRouter wires every handler onto a chi router with the standard
// middleware stack and per-route capability gates.
func NewRouter(conn *db.Connection, requestTimeout time.Duration) http.Handler {
	accountTypes := NewAccountTypesHandler(conn)
	accounts := NewAccountsHandler(conn)
	journals := NewJournalsHandler(conn)
	transactions := NewTransactionsHandler(conn)
	reconciliation := NewReconcileHandler(conn)
	reports := NewReportsHandler(conn)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.With(RequireCapability(CapAccountsRead)).Get("/account-types", accountTypes.List)

		r.Route("/journals", func(r chi.Router) {
			read := RequireCapability(CapJournalsRead)
			write := RequireCapability(CapJournalsWrite)
			r.With(read).Get("/", journals.List)
			r.With(read).Get("/{id}", journals.Get)
			r.With(write).Post("/", journals.Create)
			r.With(write).Put("/{id}", journals.Update)
			r.With(write).Delete("/{id}", journals.Delete)
		})

		r.Route("/accounts", func(r chi.Router) {
			read := RequireCapability(CapAccountsRead)
			write := RequireCapability(CapAccountsWrite)
			r.With(read).Get("/", accounts.List)
			r.With(read).Get("/{id}", accounts.Get)
			r.With(read).Get("/{id}/transactions", accounts.Transactions)
			r.With(write).Post("/", accounts.Create)
			r.With(write).Put("/{id}", accounts.Update)
			r.With(write).Delete("/{id}", accounts.Delete)
		})

		r.Route("/transactions", func(r chi.Router) {
			read := RequireCapability(CapTransactionsRead)
			write := RequireCapability(CapTransactionsWrite)
			r.With(read).Get("/", transactions.List)
			r.With(read).Get("/template", transactions.Template)
			r.With(read).Get("/{id}", transactions.Get)
			r.With(write).Post("/", transactions.Create)
			r.With(write).Put("/{id}", transactions.Update)
			r.With(write).Delete("/{id}", transactions.Delete)
		})

		r.Route("/reconcile/{account_id}", func(r chi.Router) {
			r.With(RequireCapability(CapReconcileRead)).Get("/", reconciliation.Get)
			write := RequireCapability(CapReconcileWrite)
			r.With(write).Post("/splits/{split_id}/toggle", reconciliation.Toggle)
			r.With(write).Post("/finalize", reconciliation.Finalize)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(RequireCapability(CapReportsRead))
			r.Get("/current-balance-accounts", reports.CurrentBalanceAccounts)
			r.Get("/balance-sheet", reports.BalanceSheet)
			r.Get("/multi-period-balance-sheet", reports.MultiPeriodBalanceSheet)
			r.Get("/profit-loss", reports.ProfitLoss)
			r.Get("/profit-loss-transactions", reports.ProfitLossTransactions)
			r.Get("/account-running-balance", reports.AccountRunningBalance)
		})
	})

	return r
}
