package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"polycare/m/domain"
	"polycare/m/internal/ledger"
	"polycare/m/internal/store"
)

const legacyTokenHeader = "X-Auth-Token"

type authClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Secret))
}

// tokenFromRequest accepts a bearer token or the legacy x-auth-token header.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.Header.Get(legacyTokenHeader))
}

func (h *Handler) parseToken(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok || claims.UserID == "" {
		return domain.Actor{}, errors.New("invalid token claims")
	}
	return domain.Actor{ID: claims.UserID, Username: claims.Username, Name: claims.Name, Role: claims.Role}, nil
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		actor, err := h.parseToken(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next.ServeHTTP(w, r.WithContext(ledger.WithActor(r.Context(), actor)))
	})
}

func (h *Handler) requireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ledger.ActorFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			for _, role := range allowed {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "Access denied: Unauthorized role")
		})
	}
}

// Auth Handlers

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3"`
	Password    string `json:"password" validate:"required,min=6"`
	Role        string `json:"role" validate:"omitempty,oneof=admin pharmacist"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = domain.RolePharmacist
	}

	if req.Role == domain.RoleAdmin {
		allowed, err := h.mayCreateAdmin(r)
		if err != nil {
			h.fail(w, r, err, "")
			return
		}
		if !allowed {
			respondError(w, http.StatusForbidden, "Only an admin can register another admin")
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:          uuid.NewString(),
		Username:    req.Username,
		Password:    string(hashed),
		Role:        req.Role,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.fail(w, r, err, "")
		return
	}

	h.log.Info("user registered", zap.String("username", user.Username), zap.String("role", user.Role))
	respondMessage(w, http.StatusCreated, "User registered successfully")
}

// mayCreateAdmin allows the first account to be an admin; after that
// only a caller holding an admin token may create one.
func (h *Handler) mayCreateAdmin(r *http.Request) (bool, error) {
	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		return false, err
	}
	if count == 0 {
		return true, nil
	}
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return false, nil
	}
	actor, err := h.parseToken(tokenString)
	if err != nil {
		return false, nil
	}
	return actor.Role == domain.RoleAdmin, nil
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token       string `json:"token"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Token:       token,
		Role:        user.Role,
		Username:    user.Username,
		FullName:    user.FullName,
		PhoneNumber: user.PhoneNumber,
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := ledger.ActorFromContext(r.Context())
	user, err := h.store.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	FullName        string `json:"fullName"`
	PhoneNumber     string `json:"phoneNumber"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

type updateProfileResponse struct {
	Msg  string       `json:"msg"`
	User *domain.User `json:"user"`
}

// updateProfile changes contact details. A new password or a changed
// email requires the current password.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	actor, _ := ledger.ActorFromContext(r.Context())
	user, err := h.store.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		h.fail(w, r, err, "User not found")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if req.NewPassword != "" || (email != "" && email != user.Email) {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
			respondError(w, http.StatusBadRequest, "Current password incorrect")
			return
		}
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if email != "" {
		user.Email = email
	}
	if req.NewPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			h.fail(w, r, err, "")
			return
		}
		user.Password = string(hashed)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.fail(w, r, err, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, updateProfileResponse{Msg: "Profile updated successfully", User: user})
}
