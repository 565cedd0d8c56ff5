package httpserver

import (
	"net/http"

	"farmisian/internal/domain"
	customersvc "farmisian/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	User        *domain.Customer `json:"user"`
}

func (h *handlers) signup(c *gin.Context) {
	var in customersvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid signup body")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.deps.CustomerSvc.Signup(ctx, in); err != nil {
		respondError(c, err)
		return
	}
	// A new customer is signed in straight away.
	user, token, err := h.deps.CustomerSvc.Login(ctx, in.Email, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.tokenResponse(user, token))
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	user, token, err := h.deps.CustomerSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tokenResponse(user, token))
}

func (h *handlers) logout(c *gin.Context) {
	if token := c.GetString(tokenKey); token != "" {
		if err := h.deps.CustomerSvc.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, authStatus(c))
}

func (h *handlers) tokenResponse(user *domain.Customer, token string) tokenResponse {
	return tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
		User:        user,
	}
}
