package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/dishdash-app/dishdash/catalog"
)

// GetHome godoc
//
// @Summary Get the menu grouped by category plus the running offers
// @Tags home
// @Produce json
// @Success 200 {object} HomeResponse
// @Router /v1/home [get]
func (h *MainHandler) GetHome(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracer.Start(ctx, "MainHandler.GetHome")
	defer span.End()

	menu, err := h.feed.Menu(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load menu", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load menu")
	}

	offers, err := h.feed.Offers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load offers", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load offers")
	}

	return c.JSON(http.StatusOK, HomeResponse{Menu: menu, Offers: offers})
}

// GetCategories godoc
//
// @Summary List the menu categories
// @Tags home
// @Produce json
// @Success 200 {array} catalog.Category
// @Router /v1/categories [get]
func (h *MainHandler) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.feed.Categories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load categories", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load categories")
	}

	return c.JSON(http.StatusOK, categories)
}

// GetOffers godoc
//
// @Summary List the running offers
// @Tags home
// @Produce json
// @Success 200 {array} catalog.Offer
// @Router /v1/offers [get]
func (h *MainHandler) GetOffers(c echo.Context) error {
	ctx := c.Request().Context()

	offers, err := h.feed.Offers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load offers", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load offers")
	}

	return c.JSON(http.StatusOK, offers)
}

// GetLiveHomeSSE godoc
//
// @Summary Stream the home screen content via Server-Sent Events (SSE)
// @Tags home
// @Produce text/event-stream
// @Success 200 {object} HomeResponse
// @Router /v1/home/sse [get]
func (h *MainHandler) GetLiveHomeSSE(c echo.Context) error {
	ctx := c.Request().Context()
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		slog.ErrorContext(ctx, "streaming unsupported by response writer")
		return echo.NewHTTPError(http.StatusInternalServerError, "Streaming unsupported")
	}

	// Each emission carries the latest full menu and offer set, so a slow
	// client only ever misses intermediate states, never deltas.
	var (
		mu      sync.Mutex
		current HomeResponse
	)
	events := make(chan HomeResponse, 1)
	push := func() {
		mu.Lock()
		snapshot := current
		mu.Unlock()
		sendLatest(events, snapshot)
	}

	unsubMenu, err := h.feed.WatchMenu(ctx, func(groups []catalog.CategoryGroup) {
		mu.Lock()
		current.Menu = groups
		mu.Unlock()
		push()
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to watch menu", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to watch menu")
	}
	defer unsubMenu()

	unsubOffers, err := h.feed.WatchOffers(ctx, func(offers []catalog.Offer) {
		mu.Lock()
		current.Offers = offers
		mu.Unlock()
		push()
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to watch offers", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to watch offers")
	}
	defer unsubOffers()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	notify := ctx.Done()
	for {
		select {
		case <-notify:
			slog.InfoContext(ctx, "client closed connection")
			return nil
		case resp := <-events:
			data, err := json.Marshal(resp)
			if err != nil {
				slog.ErrorContext(ctx, "marshal home snapshot for SSE", slog.Any("err", err))
				continue
			}
			if _, err = c.Response().Writer.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				slog.ErrorContext(ctx, "write SSE", slog.Any("err", err))
				return err
			}
			flusher.Flush()
		}
	}
}
