package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dishdash-app/dishdash/account"
	"github.com/dishdash-app/dishdash/orders"
	"github.com/dishdash-app/dishdash/store"
)

// PlaceOrder godoc
//
// @Summary Place an order for a single menu item
// @Tags order
// @Security Bearer
// @Accept json
// @Produce json
// @Param order body NewOrderRequest true "New Order Request"
// @Success 200 {object} NewOrderResponse
// @Failure 422 {string} string "error"
// @Router /v1/orders [post]
func (h *MainHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracer.Start(ctx, "MainHandler.PlaceOrder")
	defer span.End()

	claims := currentClaims(c)

	var req NewOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	contact := orders.Contact{Name: req.Name, Address: req.Address, Phone: req.Phone}
	profile, err := h.accounts.Profile(ctx, claims.UserID)
	switch {
	case err == nil:
		if contact.Name == "" {
			contact.Name = profile.Name
		}
		if contact.Address == "" {
			contact.Address = profile.Address
		}
		if contact.Phone == "" {
			contact.Phone = profile.PhoneNumber
		}
	case errors.Is(err, account.ErrNoProfile):
		// The request must carry the contact details itself.
	default:
		slog.ErrorContext(ctx, "failed to load profile", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}

	draft := orders.NewDraft(claims.UserID, req.ItemName, req.ItemPrice, contact)
	draft.Quantity = req.Quantity
	draft.OrderType = orders.OrderType(req.OrderType)

	order, err := draft.Submit(ctx, h.orders)
	if err != nil {
		return echo.NewHTTPError(httpStatusForError(err), err.Error())
	}

	return c.JSON(http.StatusOK, NewOrderResponse{
		OrderID:    order.ID,
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
		OrderedAt:  order.CreatedAt,
	})
}

// ListOrders godoc
//
// @Summary List the caller's order history
// @Tags order
// @Security Bearer
// @Produce json
// @Success 200 {object} OrderListResponse
// @Router /v1/orders [get]
func (h *MainHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	list, err := h.orders.List(ctx, claims.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list orders", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	return c.JSON(http.StatusOK, OrderListResponse{Orders: list})
}

// CancelOrder godoc
//
// @Summary Cancel one of the caller's orders
// @Tags order
// @Security Bearer
// @Success 204
// @Failure 404 {string} string "order not found"
// @Router /v1/orders/{id} [delete]
func (h *MainHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	err := h.orders.Cancel(ctx, claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		slog.ErrorContext(ctx, "failed to cancel order", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to cancel order")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetLiveOrdersSSE godoc
//
// @Summary Stream the caller's order history via Server-Sent Events (SSE)
// @Tags order
// @Security Bearer
// @Produce text/event-stream
// @Success 200 {object} OrderListResponse
// @Router /v1/orders/sse [get]
func (h *MainHandler) GetLiveOrdersSSE(c echo.Context) error {
	ctx := c.Request().Context()
	claims := currentClaims(c)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		slog.ErrorContext(ctx, "streaming unsupported by response writer")
		return echo.NewHTTPError(http.StatusInternalServerError, "Streaming unsupported")
	}

	events := make(chan []orders.Order, 1)
	unsub, err := h.orders.Watch(ctx, claims.UserID, func(list []orders.Order) {
		sendLatest(events, list)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to watch orders", slog.Any("err", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to watch orders")
	}
	defer unsub()

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")

	notify := ctx.Done()
	for {
		select {
		case <-notify:
			slog.InfoContext(ctx, "client closed connection")
			return nil
		case list := <-events:
			data, err := json.Marshal(OrderListResponse{Orders: list})
			if err != nil {
				slog.ErrorContext(ctx, "marshal orders for SSE", slog.Any("err", err))
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
