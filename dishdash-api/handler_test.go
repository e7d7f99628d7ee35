package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	healthgo "github.com/hellofresh/health-go/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishdash-app/dishdash/account"
	"github.com/dishdash-app/dishdash/blob"
	"github.com/dishdash-app/dishdash/catalog"
	"github.com/dishdash-app/dishdash/identity"
	"github.com/dishdash-app/dishdash/orders"
	"github.com/dishdash-app/dishdash/store"
)

type apiFixture struct {
	e  *echo.Echo
	st *store.Memory
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	settings, err := LoadConfig()
	require.NoError(t, err)

	st := store.NewMemory(store.NewChannelBus())
	blobs, err := blob.NewDisk(t.TempDir(), settings.Blob.BaseURL)
	require.NoError(t, err)

	tokens := identity.NewTokenManager("test-secret", time.Hour)
	ids := identity.NewService(st, tokens, identity.NewMemoryRevocationList())
	feed := catalog.NewFeed(st)
	ords := orders.NewService(st)
	accounts := account.NewService(st, blobs, ids, ords)

	health, err := healthgo.New(healthgo.WithComponent(healthgo.Component{
		Name:    settings.App.Name,
		Version: settings.App.Version,
	}))
	require.NoError(t, err)

	e := echo.New()
	NewMainHandler(e, settings, ids, feed, ords, accounts, health)

	return &apiFixture{e: e, st: st}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) signUpAndIn(t *testing.T) (string, string) {
	t.Helper()

	rec := f.request(t, http.MethodPost, "/v1/auth/signup", "", SignUpRequest{
		Email:      "jo@example.com",
		Password:   "hunter22",
		RePassword: "hunter22",
		Name:       "Jo",
		Phone:      "0123456789",
		Address:    "12 Noodle Lane",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.request(t, http.MethodPost, "/v1/auth/signin", "", SignInRequest{
		Email:    "jo@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var auth AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token, auth.UserID
}

func TestAuthFlow(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.signUpAndIn(t)

	t.Run("duplicate email is rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/auth/signup", "", SignUpRequest{
			Email:      "jo@example.com",
			Password:   "other-pass",
			RePassword: "other-pass",
			Name:       "Jo Again",
			Phone:      "0123456789",
			Address:    "12 Noodle Lane",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("mismatched passwords are rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/auth/signup", "", SignUpRequest{
			Email:      "new@example.com",
			Password:   "hunter22",
			RePassword: "hunter23",
			Name:       "New",
			Phone:      "0123456789",
			Address:    "1 Somewhere",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("bad password is unauthorized", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/auth/signin", "", SignInRequest{
			Email:    "jo@example.com",
			Password: "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("profile requires a token", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/v1/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sign out revokes the token", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/auth/signout", token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.request(t, http.MethodGet, "/v1/profile", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHomeEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.st.Set(ctx, catalog.CollectionFoodItems, "f1", map[string]any{
		"name": "Pad Thai", "price": 9.5, "category": "Mains",
	}))
	require.NoError(t, f.st.Set(ctx, catalog.CollectionFoodItems, "f2", map[string]any{
		"name": "Spring Rolls", "price": 4.0, "category": "Appetizers",
	}))
	require.NoError(t, f.st.Set(ctx, catalog.CollectionOffers, "o1", map[string]any{
		"title": "Lunch Deal", "discount": "20%",
	}))

	rec := f.request(t, http.MethodGet, "/v1/home", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var home HomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &home))
	require.Len(t, home.Menu, 2)
	assert.Equal(t, "Appetizers", home.Menu[0].Category)
	assert.Equal(t, "Mains", home.Menu[1].Category)
	require.Len(t, home.Offers, 1)

	rec = f.request(t, http.MethodGet, "/v1/offers", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.signUpAndIn(t)

	t.Run("place order uses profile contact details", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/orders", token, NewOrderRequest{
			ItemName:  "Pad Thai",
			ItemPrice: 9.5,
			Quantity:  2,
			OrderType: "Delivery",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp NewOrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 19.0, resp.TotalPrice)
		assert.Equal(t, "Arriving Soon", resp.Status)

		list := f.request(t, http.MethodGet, "/v1/orders", token, nil)
		require.Equal(t, http.StatusOK, list.Code)

		var orderList OrderListResponse
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orderList))
		require.Len(t, orderList.Orders, 1)
		assert.Equal(t, "Jo", orderList.Orders[0].Customer.Name)
		assert.Equal(t, "12 Noodle Lane", orderList.Orders[0].Customer.Address)
	})

	t.Run("quantity out of range is rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/v1/orders", token, NewOrderRequest{
			ItemName:  "Pad Thai",
			ItemPrice: 9.5,
			Quantity:  50,
			OrderType: "Pickup",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("cancel removes the order", func(t *testing.T) {
		list := f.request(t, http.MethodGet, "/v1/orders", token, nil)
		var orderList OrderListResponse
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orderList))
		require.Len(t, orderList.Orders, 1)

		rec := f.request(t, http.MethodDelete, "/v1/orders/"+orderList.Orders[0].ID, token, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		list = f.request(t, http.MethodGet, "/v1/orders", token, nil)
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orderList))
		assert.Empty(t, orderList.Orders)
	})
}

func TestProfileEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	token, _ := f.signUpAndIn(t)

	rec := f.request(t, http.MethodGet, "/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile account.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Jo", profile.Name)

	rec = f.request(t, http.MethodPut, "/v1/profile", token, UpdateProfileRequest{
		Name:    "Joanna",
		Address: "99 Curry Court",
		Phone:   "9876543210",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "Joanna", profile.Name)
	assert.Equal(t, "99 Curry Court", profile.Address)

	t.Run("invalid phone is rejected", func(t *testing.T) {
		rec := f.request(t, http.MethodPut, "/v1/profile", token, UpdateProfileRequest{
			Name:    "Joanna",
			Address: "99 Curry Court",
			Phone:   "not-a-phone",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestDeleteAccountEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	token, userID := f.signUpAndIn(t)

	rec := f.request(t, http.MethodPost, "/v1/orders", token, NewOrderRequest{
		ItemName:  "Pad Thai",
		ItemPrice: 9.5,
		Quantity:  1,
		OrderType: "Delivery",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodDelete, "/v1/auth/account", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx := context.Background()
	_, err := f.st.Get(ctx, account.CollectionUserDetails, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	records, err := f.st.List(ctx, orders.CollectionPath(userID))
	require.NoError(t, err)
	assert.Empty(t, records)

	signin := f.request(t, http.MethodPost, "/v1/auth/signin", "", SignInRequest{
		Email:    "jo@example.com",
		Password: "hunter22",
	})
	assert.Equal(t, http.StatusUnauthorized, signin.Code)
}

func TestSendLatestKeepsNewestValue(t *testing.T) {
	ch := make(chan int, 1)

	// A burst against a reader that never drains must leave the newest value
	// in the mailbox, not the oldest.
	for i := 1; i <= 5; i++ {
		sendLatest(ch, i)
	}
	assert.Equal(t, 5, <-ch)

	sendLatest(ch, 6)
	sendLatest(ch, 7)
	assert.Equal(t, 7, <-ch)

	select {
	case v := <-ch:
		t.Fatalf("unexpected queued value %d", v)
	default:
	}
}
