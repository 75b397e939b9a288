package routers

import (
	"net/http"
	"splitter/internal/api/handlers/expenses"
)

func expensesRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/expenses/create", expenses.CreateExpenseHandler)

	mux.HandleFunc("/expenses/{id}", expenses.GetExpenseByIDHandler)

	mux.HandleFunc("/expenses/group/{id}", expenses.GetGroupExpensesHandler)

	mux.HandleFunc("/expenses/update/{id}", expenses.UpdateExpenseHandler)

	mux.HandleFunc("/expenses/delete/{id}", expenses.DeleteExpenseHandler)

	mux.HandleFunc("/expenses/metadata", expenses.GetExpenseMetadataHandler)

	return mux
}
