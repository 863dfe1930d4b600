package handlers

import (
	"net/http"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := h.auth(c).Register(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, pair, err := h.auth(c).Login(req.identifier(), req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"token":   pair.Access,
		"user":    u,
	})
}

// POST /api/auth/token
func (h *Handler) ObtainToken(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	_, pair, err := h.auth(c).Login(req.identifier(), req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// POST /api/auth/token/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	access, err := h.auth(c).Refresh(req.Refresh)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.auth(c).Me(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/auth/social/google
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	_ = c.ShouldBindJSON(&req)
	u, pair, err := h.auth(c).GoogleLogin(c.Request.Context(), req.Code)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.Access,
		"refresh_token": pair.Refresh,
		"user":          u,
	})
}

// POST /api/auth/firebase
func (h *Handler) FirebaseLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	_ = c.ShouldBindJSON(&req)
	u, pair, err := h.auth(c).FirebaseLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, socialResponse(u, pair))
}

func socialResponse(u models.User, pair models.TokenPair) gin.H {
	return gin.H{"refresh": pair.Refresh, "access": pair.Access, "user": u}
}
