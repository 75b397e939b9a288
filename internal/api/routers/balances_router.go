package routers

import (
	"net/http"
	"splitter/internal/api/handlers/balances"
)

func balancesRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/balances/debts", balances.GetMyDebtsHandler)

	mux.HandleFunc("/balances/totals", balances.GetMyTotalsHandler)

	mux.HandleFunc("/balances/group/{id}", balances.GetGroupBalancesHandler)

	return mux
}
