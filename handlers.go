package folio

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/auth"
	"github.com/eringen/folio/store"
)

// --- Auth ---

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return reply(c, http.StatusTooManyRequests, false, "Too many login attempts. Try again later.")
	}
	defer a.loginLimiter.Done(ip)
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return reply(c, http.StatusBadRequest, false, "Invalid request body")
	}
	ctx := c.Request().Context()
	token, err := a.Auth.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		a.Log.Warn("login failed", zap.String("ip", ip))
		return reply(c, http.StatusUnauthorized, false, "Invalid credentials")
	}
	if err != nil {
		a.Log.Error("login failed", zap.Error(err))
		return reply(c, http.StatusInternalServerError, false, "Login failed")
	}
	// Replace any session the client already held.
	if old := sessionToken(c); old != "" {
		_ = a.Auth.Destroy(ctx, old)
	}
	if err := setSessionToken(c, token); err != nil {
		_ = a.Auth.Destroy(ctx, token)
		a.Log.Error("save session cookie", zap.Error(err))
		return reply(c, http.StatusInternalServerError, false, "Login failed")
	}
	a.loginLimiter.Reset(ip)
	return reply(c, http.StatusOK, true, "Login successful")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Auth.Destroy(c.Request().Context(), sessionToken(c)); err != nil {
		a.Log.Error("logout failed", zap.Error(err))
		return reply(c, http.StatusInternalServerError, false, "Logout failed")
	}
	if err := clearSessionCookie(c); err != nil {
		a.Log.Error("clear session cookie", zap.Error(err))
		return reply(c, http.StatusInternalServerError, false, "Logout failed")
	}
	return reply(c, http.StatusOK, true, "Logout successful")
}

func (a *App) handleCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Auth.Check(c.Request().Context(), sessionToken(c)))
}

// --- Content ---

func (a *App) handleGetContent(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Content.Get())
}

func (a *App) handleUpdateHero(c echo.Context) error {
	var patch store.HeroPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	hero, err := a.Content.UpdateHero(c.Request().Context(), patch)
	if err != nil {
		return a.storeError(c, err, "", "Error updating hero section")
	}
	return replyData(c, "Hero section updated", hero)
}

func (a *App) handleUpdateFooter(c echo.Context) error {
	var patch store.FooterPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	footer, err := a.Content.UpdateFooter(c.Request().Context(), patch)
	if err != nil {
		return a.storeError(c, err, "", "Error updating footer")
	}
	return replyData(c, "Footer updated", footer)
}

func (a *App) handleAddCard(c echo.Context) error {
	var fields store.CardFields
	if err := c.Bind(&fields); err != nil {
		return badBody(c)
	}
	card, err := a.Content.AddCard(c.Request().Context(), fields)
	if err != nil {
		return a.storeError(c, err, "", "Error adding card")
	}
	return replyData(c, "Card added", card)
}

func (a *App) handleUpdateCard(c echo.Context) error {
	var patch store.CardPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	card, err := a.Content.UpdateCard(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return a.storeError(c, err, "Card not found", "Error updating card")
	}
	return replyData(c, "Card updated", card)
}

func (a *App) handleDeleteCard(c echo.Context) error {
	if err := a.Content.DeleteCard(c.Request().Context(), c.Param("id")); err != nil {
		return a.storeError(c, err, "", "Error deleting card")
	}
	return reply(c, http.StatusOK, true, "Card deleted")
}

func (a *App) handleAddProject(c echo.Context) error {
	var fields store.ProjectFields
	if err := c.Bind(&fields); err != nil {
		return badBody(c)
	}
	project, err := a.Content.AddProject(c.Request().Context(), fields)
	if err != nil {
		return a.storeError(c, err, "", "Error adding project")
	}
	return replyData(c, "Project added", project)
}

func (a *App) handleUpdateProject(c echo.Context) error {
	var patch store.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return badBody(c)
	}
	project, err := a.Content.UpdateProject(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return a.storeError(c, err, "Project not found", "Error updating project")
	}
	return replyData(c, "Project updated", project)
}

func (a *App) handleDeleteProject(c echo.Context) error {
	if err := a.Content.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return a.storeError(c, err, "", "Error deleting project")
	}
	return reply(c, http.StatusOK, true, "Project deleted")
}

// --- Messages ---

func (a *App) handleSubmitMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if _, err := a.Messages.Submit(c.Request().Context(), req.Name, req.Email, req.Message); err != nil {
		return a.storeError(c, err, "", "Error sending message")
	}
	return reply(c, http.StatusOK, true, "Message sent successfully")
}

func (a *App) handleListMessages(c echo.Context) error {
	c.Response().Header().Set("X-Unread-Count", strconv.Itoa(a.Messages.Unread()))
	return c.JSON(http.StatusOK, a.Messages.List())
}

func (a *App) handleMarkRead(c echo.Context) error {
	if err := a.Messages.MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return a.storeError(c, err, "Message not found", "Error updating message")
	}
	return reply(c, http.StatusOK, true, "Message marked as read")
}

func (a *App) handleDeleteMessage(c echo.Context) error {
	if err := a.Messages.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return a.storeError(c, err, "", "Error deleting message")
	}
	return reply(c, http.StatusOK, true, "Message deleted")
}

// storeError maps store errors onto status codes. Persistence failures are
// logged; the client only sees failMsg.
func (a *App) storeError(c echo.Context, err error, notFoundMsg, failMsg string) error {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return reply(c, http.StatusBadRequest, false, "All fields are required")
	case errors.Is(err, store.ErrNotFound) && notFoundMsg != "":
		return reply(c, http.StatusNotFound, false, notFoundMsg)
	}
	a.Log.Error(failMsg, zap.Error(err), zap.String("uri", c.Request().RequestURI))
	return reply(c, http.StatusInternalServerError, false, failMsg)
}

func badBody(c echo.Context) error {
	return reply(c, http.StatusBadRequest, false, "Invalid request body")
}
