package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/model"
)

// Auth handles account, session and password reset endpoints.
type Auth struct {
	authService    AuthService
	resetService   ResetService
	contextManager model.ContextManager
	cookie         SessionCookie
	logger         *logger.Logger
}

func NewAuth(authService AuthService, resetService ResetService, contextManager model.ContextManager, cookie SessionCookie, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		resetService:   resetService,
		contextManager: contextManager,
		cookie:         cookie,
		logger:         logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	ResetToken      string `json:"resetToken"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type updatePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Signup handles POST /signup.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		handleError(w, h.logger, "Auth handler: signup", err)
		return
	}

	h.cookie.set(w, token)
	writeJSON(w, http.StatusCreated, toUser(user))
}

// Signin handles POST /signin.
func (h *Auth) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, h.logger, "Auth handler: signin", err)
		return
	}

	h.cookie.set(w, token)
	writeJSON(w, http.StatusOK, toUser(user))
}

// Signout handles POST /signout.
func (h *Auth) Signout(w http.ResponseWriter, _ *http.Request) {
	h.cookie.clear(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Goodbye!"})
}

// Me handles GET /me. Anonymous callers get a null user.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	p := h.contextManager.PrincipalFromContext(r.Context())

	user, err := h.authService.Me(r.Context(), p)
	if err != nil {
		handleError(w, h.logger, "Auth handler: me", err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toUser(*user))
}

// Users handles GET /users.
func (h *Auth) Users(w http.ResponseWriter, r *http.Request) {
	p := h.contextManager.PrincipalFromContext(r.Context())

	users, err := h.authService.Users(r.Context(), p)
	if err != nil {
		handleError(w, h.logger, "Auth handler: users", err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUser(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdatePermissions handles PUT /users/{id}/permissions.
func (h *Auth) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var req updatePermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := h.contextManager.PrincipalFromContext(r.Context())
	user, err := h.authService.UpdatePermissions(r.Context(), p, userID, req.Permissions)
	if err != nil {
		handleError(w, h.logger, "Auth handler: update permissions", err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(user))
}

// RequestReset handles POST /reset/request.
func (h *Auth) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		handleError(w, h.logger, "Auth handler: request reset", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Thanks!"})
}

// ResetPassword handles POST /reset and signs the user in.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.resetService.ResetPassword(r.Context(), req.ResetToken, req.Password, req.ConfirmPassword)
	if err != nil {
		handleError(w, h.logger, "Auth handler: reset password", err)
		return
	}

	h.cookie.set(w, token)
	writeJSON(w, http.StatusOK, toUser(user))
}
