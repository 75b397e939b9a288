package routers

import (
	"net/http"
	"splitter/internal/api/handlers/auth"
)

func usersRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/users/signup", auth.RegisterUsersHandler)

	mux.HandleFunc("/users/login", auth.LoginHandler)
	mux.HandleFunc("/users/logout", auth.LogoutHandler)
	mux.HandleFunc("/users/me", auth.MeHandler)
	mux.HandleFunc("/users/find", auth.FindUsersHandler)
	mux.HandleFunc("/users/forgotpassword", auth.ForgotPasswordHandler)
	mux.HandleFunc("/users/resetpassword/reset/{resetcode}", auth.ResetPasswordHandler)
	mux.HandleFunc("/users/updatepassword", auth.UpdatePasswordHandler)

	return mux
}
