package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/NikolajSankovDev/zyron/internal/config"
	"github.com/NikolajSankovDev/zyron/internal/domain/account"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/models"
	"github.com/NikolajSankovDev/zyron/internal/validators"
)

type AuthHandler struct {
	accounts account.Repository
	config   *config.Config
	resolver validators.Resolver
}

// NewAuthHandler skips the email domain lookup when resolver is nil.
func NewAuthHandler(accounts account.Repository, cfg *config.Config, resolver validators.Resolver) *AuthHandler {
	return &AuthHandler{accounts: accounts, config: cfg, resolver: resolver}
}

// --------- Requests ---------

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
	Locale   string `json:"locale" binding:"omitempty,bcp47_language_tag"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
	Locale string `json:"locale,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Role:   u.Role,
		Locale: u.Locale,
	}
}

// --------- Handlers ---------

// Register always creates customers; staff accounts are provisioned directly.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if h.resolver != nil && !validators.IsEmailDomainValid(c.Request.Context(), h.resolver, email) {
		httperr.BadRequest(c, "invalid_email_domain", "The email domain does not look valid.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Could not create the account.")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleCustomer,
		Locale:       req.Locale,
	}

	if err := h.accounts.CreateUser(c.Request.Context(), &user); err != nil {
		writeError(c, err)
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not sign in.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  toUserResponse(&user),
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.accounts.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if httperr.IsBusiness(err, "user_not_found") {
			httperr.Unauthorized(c, "invalid_credentials", "Email or password is wrong.")
			return
		}
		writeError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "Email or password is wrong.")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not sign in.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	ttl := time.Duration(h.config.Server.JWTTTLHour) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.Server.JWTSecret))
}
