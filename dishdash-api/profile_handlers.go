package main

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetProfile godoc
//
// @Summary Get the caller's profile
// @Tags profile
// @Security Bearer
// @Produce json
// @Success 200 {object} account.Profile
// @Failure 404 {string} string "profile not found"
// @Router /v1/profile [get]
func (h *MainHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	profile, err := h.accounts.Profile(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
//
// @Summary Update the caller's name, address and phone number
// @Tags profile
// @Security Bearer
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "Update Profile Request"
// @Success 200 {object} account.Profile
// @Failure 422 {string} string "error"
// @Router /v1/profile [put]
func (h *MainHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.accounts.UpdateDetails(ctx, claims.UserID, req.Name, req.Address, req.Phone)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	profile, err := h.accounts.Profile(ctx, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, profile)
}

// UpdatePhoto godoc
//
// @Summary Upload or replace the caller's profile picture
// @Tags profile
// @Security Bearer
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Profile picture"
// @Success 200 {object} PhotoResponse
// @Failure 422 {string} string "error"
// @Router /v1/profile/photo [put]
func (h *MainHandler) UpdatePhoto(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing photo file")
	}

	src, err := file.Open()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open uploaded photo", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read photo")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read uploaded photo", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read photo")
	}

	ref, err := h.accounts.UpdatePhoto(ctx, claims.UserID, data)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, PhotoResponse{ProfilePicture: ref})
}

// RemovePhoto godoc
//
// @Summary Remove the caller's profile picture
// @Tags profile
// @Security Bearer
// @Success 204
// @Router /v1/profile/photo [delete]
func (h *MainHandler) RemovePhoto(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	if err := h.accounts.RemovePhoto(ctx, claims.UserID); err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
