package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/authgo/backend/api/transport"
	"github.com/authgo/backend/domain"
	"github.com/authgo/backend/internal/middleware"
	"github.com/authgo/backend/pkg/httpcontext"
	authUC "github.com/authgo/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(ctx *fasthttp.RequestCtx) {
	var req transport.SignupRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewAuthMessage("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	payload, err := h.uc.SignUp(stdCtx, req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewAuthSuccess(payload))
}

// @Summary Authenticate with username and password
// @Tags auth
// @Router /auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewAuthMessage("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	payload, err := h.uc.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewAuthSuccess(payload))
}

// @Summary Request a password reset link
// @Tags auth
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(ctx *fasthttp.RequestCtx) {
	var req transport.ForgotPasswordRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewAuthMessage("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	message := h.uc.ForgotPassword(stdCtx, req.Email)
	h.respondJSON(ctx, http.StatusOK, transport.NewAuthMessage(message))
}

// @Summary Profile of the authenticated user
// @Tags auth
// @Router /auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	userID := string(ctx.Request.Header.Peek(middleware.HeaderUserID))
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Profile(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	tokenID := string(ctx.Request.Header.Peek(middleware.HeaderTokenID))
	userID := string(ctx.Request.Header.Peek(middleware.HeaderUserID))
	username := string(ctx.Request.Header.Peek(middleware.HeaderUsername))
	if tokenID == "" {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, tokenID, userID, username); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewAuthMessage("logged out"))
}
