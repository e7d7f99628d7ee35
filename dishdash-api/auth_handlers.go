package main

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dishdash-app/dishdash/account"
)

// SignUp godoc
//
// @Summary Register a new customer and create their profile
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body SignUpRequest true "Sign Up Request"
// @Success 201 {object} AuthResponse
// @Failure 409 {string} string "email already registered"
// @Router /v1/auth/signup [post]
func (h *MainHandler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	acc, err := h.ids.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		slog.ErrorContext(ctx, "sign up failed", slog.Any("err", err))
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	err = h.accounts.CreateProfile(ctx, acc.ID, account.Profile{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		// Roll the fresh credentials back so the email can be retried.
		if delErr := h.ids.DeleteAccount(ctx, acc.ID); delErr != nil {
			slog.ErrorContext(ctx, "failed to roll back account", slog.Any("err", delErr))
		}
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		UserID: acc.ID,
		Email:  acc.Email,
	})
}

// SignIn godoc
//
// @Summary Exchange credentials for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param signin body SignInRequest true "Sign In Request"
// @Success 200 {object} AuthResponse
// @Failure 401 {string} string "invalid credentials"
// @Router /v1/auth/signin [post]
func (h *MainHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, acc, err := h.ids.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token:  token,
		UserID: acc.ID,
		Email:  acc.Email,
	})
}

// SignOut godoc
//
// @Summary Revoke the presented session token
// @Tags auth
// @Security Bearer
// @Success 204
// @Router /v1/auth/signout [post]
func (h *MainHandler) SignOut(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.ids.SignOut(ctx, bearerToken(c)); err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount godoc
//
// @Summary Delete the account, its profile, photo and order history
// @Tags auth
// @Security Bearer
// @Success 204
// @Router /v1/auth/account [delete]
func (h *MainHandler) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	if err := h.accounts.DeleteAccount(ctx, claims.UserID); err != nil {
		slog.ErrorContext(ctx, "account deletion failed", slog.Any("err", err))
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
