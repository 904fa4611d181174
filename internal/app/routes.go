package app

import (
	"github.com/gorilla/mux"
	"github.com/pennywise/pennywise/internal/config"
)

// RegisterRoutes registers all API endpoints on the /api subrouter.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// User
	r.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Accounts
	r.HandleFunc("/account", deps.AccountHandler.List).Methods("GET")
	r.HandleFunc("/account", deps.AccountHandler.Create).Methods("POST")
	r.HandleFunc("/account/{accountId}", deps.AccountHandler.Get).Methods("GET")
	r.HandleFunc("/account/{accountId}/default", deps.AccountHandler.SetDefault).Methods("PUT")

	// Transactions
	r.HandleFunc("/transaction", deps.TransactionHandler.List).Methods("GET")
	r.HandleFunc("/transaction", deps.TransactionHandler.Create).Methods("POST")
	r.HandleFunc("/transaction/bulk-delete", deps.TransactionHandler.BulkDelete).Methods("POST")
	r.HandleFunc("/transaction/{transactionId}", deps.TransactionHandler.Get).Methods("GET")
	r.HandleFunc("/transaction/{transactionId}", deps.TransactionHandler.Update).Methods("PUT")
	r.HandleFunc("/transaction/{transactionId}", deps.TransactionHandler.Delete).Methods("DELETE")

	// Receipt
	if deps.ReceiptHandler != nil {
		r.HandleFunc("/receipt/scan", deps.ReceiptHandler.Scan).Methods("POST")
	}

	// Budget
	r.HandleFunc("/budget/current", deps.BudgetHandler.GetCurrent).Methods("GET")
	r.HandleFunc("/budget", deps.BudgetHandler.Update).Methods("PUT")

	// Stats
	r.HandleFunc("/stats/overview", deps.StatsHandler.GetOverview).Methods("GET")
	r.HandleFunc("/stats/daily", deps.StatsHandler.GetDaily).Methods("GET")
}
