package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/session"
	"github.com/civicreport/api/internal/store"
	"github.com/civicreport/api/internal/validator"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

type AuthHandler struct {
	store        *store.Store
	sessions     *session.Manager
	notifier     *Notifier
	jwtSecret    string
	googleConfig *oauth2.Config
	frontendURL  string
}

func NewAuthHandler(s *store.Store, sessions *session.Manager, notifier *Notifier, jwtSecret string, googleConfig *oauth2.Config, frontendURL string) *AuthHandler {
	return &AuthHandler{
		store:        s,
		sessions:     sessions,
		notifier:     notifier,
		jwtSecret:    jwtSecret,
		googleConfig: googleConfig,
		frontendURL:  frontendURL,
	}
}

type TokenResponse struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int           `json:"expiresIn"`
	User         *model.User   `json:"user"`
	Session      session.State `json:"session"`
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// Register creates a citizen account and leaves a welcome notification in
// the new user's feed.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "All fields are required"))
		return
	}
	if err := validator.ValidatePassword(req.Password, req.ConfirmPassword); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	email := normalizeEmail(req.Email)

	n, err := h.store.Users.Count(ctx, store.Where().Eq("email", email))
	if err != nil {
		respondError(c, err)
		return
	}
	if n > 0 {
		respondError(c, errConflict("Email already registered"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.store.Users.Insert(ctx, &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleCitizen,
	})
	if err != nil {
		respondError(c, conflictOnDuplicate(err, "Email already registered"))
		return
	}

	h.notifier.Notify(ctx, user.Email, notification.TypeWelcome, notification.WelcomePayload(user.Name))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Please login",
		"user":    user,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,role"`
}

// Login checks credentials against accounts of the requested role only.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "email, password and role are required"))
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.Users.First(ctx, store.Where().Eq("email", normalizeEmail(req.Email)).Eq("role", req.Role))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, auth.ErrInvalidCredentials)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.startSession(c, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) startSession(c *gin.Context, user *model.User) (*TokenResponse, error) {
	sess, err := h.sessions.Create(c.Request.Context(), *user)
	if err != nil {
		return nil, err
	}
	access, refresh, err := h.issueTokens(c, user, sess.ID)
	if err != nil {
		h.sessions.End(sess.ID)
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		User:         user,
		Session:      sess.State(),
	}, nil
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *model.User, sessionID string) (string, string, error) {
	accessToken, err := auth.GenerateAccessToken(user, sessionID, h.jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	refreshTokenModel := model.RefreshToken{
		UserID:    user.ID,
		SessionID: sessionID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(auth.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}
	if err := h.store.DB().WithContext(c.Request.Context()).Create(&refreshTokenModel).Error; err != nil {
		return "", "", &store.BackendError{Op: "insert", Collection: "refresh_tokens", Err: err}
	}
	return accessToken, refreshToken, nil
}

// RefreshToken refreshes access token using refresh token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	var refreshToken model.RefreshToken
	result := h.store.DB().Where("token = ? AND revoked = ? AND expires_at > ?", req.RefreshToken, false, time.Now()).First(&refreshToken)
	if result.Error != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}

	user, err := h.store.Users.First(c.Request.Context(), store.Where().Eq("id", refreshToken.UserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, refreshToken.SessionID, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresIn":   int(auth.AccessTokenExpiry.Seconds()),
	})
}

// Logout revokes the session's refresh tokens and drops the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	err := h.store.DB().WithContext(c.Request.Context()).
		Model(&model.RefreshToken{}).
		Where("session_id = ?", sess.ID).
		Update("revoked", true).Error
	if err != nil {
		log.Printf("Warning: failed to revoke refresh tokens for session %s: %v", sess.ID, err)
	}
	h.sessions.End(sess.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "page": session.PageLoginSelection})
}

// Me returns current user info
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.store.Users.First(c.Request.Context(), store.Where().Eq("id", currentUserID(c)))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"user": user}
	if sess := middleware.CurrentSession(c); sess != nil {
		resp["session"] = sess.State()
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleAuth redirects to Google OAuth authorization URL
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	if h.googleConfig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}

	state := generateState()
	// Store state in cookie for CSRF protection
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)

	authURL := h.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback signs a citizen in with Google, creating the account on
// first use.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.googleConfig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google sign-in is not configured"})
		return
	}

	state := c.Query("state")
	savedState, err := c.Cookie("oauth_state")
	if err != nil || state != savedState {
		h.redirectError(c, "invalid_state")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "no_code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.googleConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Failed to exchange code: %v", err)
		h.redirectError(c, "exchange_failed")
		return
	}

	userInfo, err := auth.GetGoogleUserInfo(ctx, h.googleConfig, token)
	if err != nil {
		log.Printf("Failed to get user info: %v", err)
		h.redirectError(c, "user_info_failed")
		return
	}

	user, err := h.findOrCreateGoogleUser(c, userInfo)
	if errors.Is(err, errGoogleCitizenOnly) {
		h.redirectError(c, "citizen_only")
		return
	}
	if err != nil {
		log.Printf("Failed to resolve google user: %v", err)
		h.redirectError(c, "db_error")
		return
	}

	resp, err := h.startSession(c, user)
	if err != nil {
		log.Printf("Failed to start session: %v", err)
		h.redirectError(c, "token_failed")
		return
	}

	q := url.Values{}
	q.Set("accessToken", resp.AccessToken)
	q.Set("refreshToken", resp.RefreshToken)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?"+q.Encode())
}

var errGoogleCitizenOnly = errors.New("google sign-in is only available to citizens")

// findOrCreateGoogleUser resolves the account for a Google identity. Staff
// and admin accounts are refused before anything is written.
func (h *AuthHandler) findOrCreateGoogleUser(c *gin.Context, info *auth.GoogleUserInfo) (*model.User, error) {
	ctx := c.Request.Context()

	user, err := h.store.Users.First(ctx, store.Where().Eq("provider", model.ProviderGoogle).Eq("provider_id", info.ID))
	if err == nil {
		if user.Role != model.RoleCitizen {
			return nil, errGoogleCitizenOnly
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	email := normalizeEmail(info.Email)
	user, err = h.store.Users.First(ctx, store.Where().Eq("email", email))
	if err == nil {
		if user.Role != model.RoleCitizen {
			return nil, errGoogleCitizenOnly
		}
		// An existing local account is linked rather than duplicated.
		updated, err := h.store.Users.Update(ctx, store.Patch{"provider_id": info.ID}, store.Where().Eq("id", user.ID))
		if err != nil {
			return nil, err
		}
		return &updated[0], nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err = h.store.Users.Insert(ctx, &model.User{
		Name:       info.Name,
		Email:      email,
		Provider:   model.ProviderGoogle,
		ProviderID: info.ID,
		Role:       model.RoleCitizen,
	})
	if err != nil {
		return nil, err
	}
	h.notifier.Notify(ctx, user.Email, notification.TypeWelcome, notification.WelcomePayload(user.Name))
	return user, nil
}

func (h *AuthHandler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error="+code)
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
