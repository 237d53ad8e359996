package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
	"github.com/MKhiriev/snippet-keeper/models"
	"github.com/go-chi/chi/v5"
)

// Operation labels of the auth outcome metric.
const (
	opRegister       = "register"
	opLogin          = "login"
	opRefreshToken   = "refresh_token"
	opForgotPassword = "forgot_password"
	opValidateReset  = "validate_reset_token"
	opResetPassword  = "reset_password"
	opChangePassword = "change_password"

	outcomeSuccess = "success"
)

const (
	maxRequestBodyBytes = 64 << 10

	msgResetTokenValid = "Token de redefinição de senha válido"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, opRegister, err)
		return
	}

	h.writeResult(w, r, opRegister, result, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	tokens, err := h.services.AuthService.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, opLogin, err)
		return
	}

	h.writeResult(w, r, opLogin, tokens, http.StatusOK)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.RefreshToken(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, opRefreshToken, err)
		return
	}

	h.writeResult(w, r, opRefreshToken, result, http.StatusOK)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.ForgotPassword(r.Context(), req, h.resetBaseURL(r))
	if err != nil {
		h.writeServiceError(w, r, opForgotPassword, err)
		return
	}

	h.writeResult(w, r, opForgotPassword, result, http.StatusOK)
}

func (h *Handler) validateResetToken(w http.ResponseWriter, r *http.Request) {
	if err := h.services.AuthService.ValidateResetToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeServiceError(w, r, opValidateReset, err)
		return
	}

	h.writeResult(w, r, opValidateReset, models.MessageResponse{Message: msgResetTokenValid}, http.StatusOK)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.ResetPassword(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		h.writeServiceError(w, r, opResetPassword, err)
		return
	}

	h.writeResult(w, r, opResetPassword, result, http.StatusOK)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		log.Error().Str("func", "*Handler.changePassword").Msg("no user ID in request context")
		utils.WriteError(w, msgInvalidAuthToken, http.StatusUnauthorized)
		return
	}

	var req models.ChangePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	result, err := h.services.AuthService.ChangePassword(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, r, opChangePassword, err)
		return
	}

	h.writeResult(w, r, opChangePassword, result, http.StatusOK)
}

// resetBaseURL returns the configured reset base URL or, when none is set,
// the /api/auth root of the server the request reached.
func (h *Handler) resetBaseURL(r *http.Request) string {
	if h.opts.ResetBaseURL != "" {
		return strings.TrimRight(h.opts.ResetBaseURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	return fmt.Sprintf("%s://%s/api/auth", scheme, r.Host)
}

// decodeRequest reads a JSON payload into dst. On failure it writes a 400
// response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		logger.FromRequest(r).Err(err).Str("path", r.URL.Path).Msg(ErrInvalidJSON.Error())
		utils.WriteError(w, msgInvalidJSON, http.StatusBadRequest)
		return false
	}
	return true
}
