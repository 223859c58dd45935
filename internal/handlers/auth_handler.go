package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"accounts/internal/config"
	"accounts/internal/models"
	"accounts/internal/repository"
	"accounts/internal/services"
	"accounts/internal/token"
)

const uniqueViolation = pq.ErrorCode("23505")

type AuthHandler struct {
	users  repository.UserRepository
	resets repository.ResetTokenRepository
	issuer *token.Issuer
	mailer services.EmailSender
	cfg    *config.Config
	log    *zap.Logger
	v      *validator.Validate
}

func NewAuthHandler(db *sql.DB, cfg *config.Config, mailer services.EmailSender, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  repository.NewUserRepository(db),
		resets: repository.NewResetTokenRepository(db),
		issuer: token.NewIssuer(cfg.JWTSecret, cfg.ResetTokenTTL, nil),
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		v:      validator.New(),
	}
}

// @Tags Auth
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if len(req.Password) < h.cfg.PasswordMinLength {
		writeJSONError(w, http.StatusBadRequest, "weak_password", "Password does not meet the minimum length requirement")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "registration_failed", "Failed to create user")
		return
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), u); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			writeJSONError(w, http.StatusConflict, "duplicate_email", "Email already registered")
			return
		}
		h.log.Error("failed to create user", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "registration_failed", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// @Tags Auth
// @Summary Log in with email and password
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	// Unknown email and wrong password produce identical responses.
	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	expiresIn := h.cfg.JWTExpiresInSeconds
	if expiresIn <= 0 {
		expiresIn = 86400
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(expiresIn) * time.Second).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   expiresIn,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
	})
}

// @Tags Auth
// @Summary Request a password-reset link
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Forgot-password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	// Unknown emails get the same acknowledgement as known ones.
	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	resetToken, err := h.issuer.Issue(u.ID)
	if err != nil {
		h.log.Error("failed to issue reset token", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	subject := "Password Reset Request"
	body := "Your password reset link: " + h.cfg.ResetLinkBaseURL + "?token=" + resetToken +
		"\n\nThis link expires in " + h.cfg.ResetTokenTTL.String() + "."
	if err := h.mailer.Send(u.Email, subject, body); err != nil {
		// Best effort: the token is already valid, there is nothing to roll back.
		h.log.Error("failed to send reset email", zap.Error(err))
	}

	resp := map[string]any{"ok": true}
	if h.cfg.AuthReturnResetToken {
		resp["token"] = resetToken
		resp["expires_in_seconds"] = int64(h.cfg.ResetTokenTTL.Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Reset password with a reset token
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset-password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	// Malformed, expired and wrong-purpose all collapse to one code.
	claims, err := h.issuer.Verify(req.Token)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
		return
	}

	if len(req.NewPassword) < h.cfg.PasswordMinLength {
		writeJSONError(w, http.StatusBadRequest, "weak_password", "Password does not meet the minimum length requirement")
		return
	}

	if err := h.resets.Consume(r.Context(), claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyConsumed) {
			writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
			return
		}
		h.log.Error("failed to consume reset token", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	if err := h.users.UpdatePasswordHash(r.Context(), claims.Subject, string(hash)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
			return
		}
		h.log.Error("failed to update password hash", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Password reset successful",
	})
}
