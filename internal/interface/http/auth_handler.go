package http

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/adlens/internal/domain/auth"
	apperrors "github.com/yanqian/adlens/pkg/errors"
)

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err, "register_failed"))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err, "login_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a fresh token pair from a valid refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authHTTPError(err, "refresh_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns the authenticated user's view.
func (h *Handler) Profile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, authHTTPError(err, "profile_failed"))
		return
	}
	c.JSON(http.StatusOK, view)
}

// GoogleLogin starts the Google sign-in redirect with PKCE.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "oauth_failed", "failed to create oauth state", err))
		return
	}
	url, err := h.authSvc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, authHTTPError(err, "oauth_failed"))
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes the Google sign-in code exchange.
func (h *Handler) GoogleCallback(c *gin.Context) {
	cookie, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || c.Query("state") != cookie.State {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", nil))
		return
	}
	resp, err := h.authSvc.GoogleCallback(c.Request.Context(), c.Query("code"), cookie.CodeVerifier)
	if err != nil {
		abortWithError(c, authHTTPError(err, "oauth_failed"))
		return
	}
	if h.postLoginRedirect != "" {
		// Tokens travel in the fragment so they never hit the frontend's server logs.
		c.Redirect(http.StatusTemporaryRedirect,
			h.postLoginRedirect+"#token="+url.QueryEscape(resp.Token)+"&refreshToken="+url.QueryEscape(resp.RefreshToken))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func authHTTPError(err error, fallbackCode string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallbackCode
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "email_exists"):
		status = http.StatusConflict
		code = "email_exists"
	case apperrors.IsCode(err, "invalid_credentials"), apperrors.IsCode(err, "invalid_token"):
		status = http.StatusUnauthorized
		code = apperrors.CodeOf(err)
	case apperrors.IsCode(err, "user_not_found"):
		status = http.StatusNotFound
		code = "user_not_found"
	case apperrors.IsCode(err, "auth_not_configured"):
		status = http.StatusServiceUnavailable
		code = "auth_not_configured"
	case apperrors.IsCode(err, "oauth_exchange_failed"):
		status = http.StatusBadGateway
		code = "oauth_exchange_failed"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
