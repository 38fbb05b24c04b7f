package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/forms"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/logging"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

type fakeAPI struct {
	keys      []string
	created   []upstream.CreateWalletRequest
	added     []upstream.AddressRequest
	createOut upstream.CreatedWallet
	createErr error
	addErr    error
	wallet    upstream.Wallet
	walletErr error
	wallets   []upstream.Wallet
	addresses []string
	txs       []string
	txReqs    []upstream.TransactionsRequest
}

func (f *fakeAPI) CreateWallet(_ context.Context, key string, req upstream.CreateWalletRequest) (upstream.CreatedWallet, error) {
	f.keys = append(f.keys, key)
	f.created = append(f.created, req)
	return f.createOut, f.createErr
}

func (f *fakeAPI) AddAddress(_ context.Context, key string, req upstream.AddressRequest) error {
	f.keys = append(f.keys, key)
	f.added = append(f.added, req)
	return f.addErr
}

func (f *fakeAPI) GetAddresses(_ context.Context, key string, _ upstream.AddressRequest) ([]string, error) {
	f.keys = append(f.keys, key)
	return f.addresses, nil
}

func (f *fakeAPI) WalletByGUID(_ context.Context, key, _ string) (upstream.Wallet, error) {
	f.keys = append(f.keys, key)
	return f.wallet, f.walletErr
}

func (f *fakeAPI) WalletsDetails(_ context.Context, key string) ([]upstream.Wallet, error) {
	f.keys = append(f.keys, key)
	return f.wallets, nil
}

func (f *fakeAPI) IncomingTransactionIDs(_ context.Context, key string, req upstream.TransactionsRequest) ([]string, error) {
	f.keys = append(f.keys, key)
	f.txReqs = append(f.txReqs, req)
	return f.txs, nil
}

var signedIn = auth.Session{UserID: "u-1", APIKey: "key-1", State: auth.Authenticated}

func newService(api API) *Service {
	return NewService(api, credentials.New(), nil, logging.Discard())
}

func TestMissingAPIKeyIsNotFound(t *testing.T) {
	api := &fakeAPI{}
	svc := newService(api)
	ctx := context.Background()

	_, err := svc.Merchants(ctx, auth.Session{State: auth.Authenticated})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.MerchantPage(ctx, auth.Session{}, "g1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateMerchant(ctx, auth.Session{State: auth.Expired, APIKey: "stale"}, CreateMerchantForm{MerchantName: "Shop", Coin: "BTC"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, api.keys)
}

func TestMerchantPageUsesFirstAddress(t *testing.T) {
	api := &fakeAPI{
		wallet:    upstream.Wallet{UniqGUID: "g1", NameWallet: "Shop", Balance: "1.5", TypeCurrency: "USDT"},
		addresses: []string{"addr-1", "addr-2"},
		txs:       []string{"tx-1"},
	}
	page, err := newService(api).MerchantPage(context.Background(), signedIn, "g1")
	require.NoError(t, err)

	assert.Equal(t, "Shop", page.Merchant.Name)
	assert.Equal(t, "addr-1", page.Address)
	assert.Equal(t, []string{"tx-1"}, page.Transactions)
	assert.Equal(t, upstream.TransactionsRequest{Address: "addr-1", TypeCurrency: "USDT"}, api.txReqs[0])
	for _, k := range api.keys {
		assert.Equal(t, "key-1", k)
	}
}

func TestMerchantPageWithoutAddresses(t *testing.T) {
	api := &fakeAPI{wallet: upstream.Wallet{UniqGUID: "g1", WalletName: "Shop"}}
	page, err := newService(api).MerchantPage(context.Background(), signedIn, "g1")
	require.NoError(t, err)
	assert.Empty(t, page.Address)
	assert.Equal(t, []string{}, page.Transactions)
	assert.Empty(t, api.txReqs)
}

func TestMerchantUpstreamErrors(t *testing.T) {
	api := &fakeAPI{walletErr: &upstream.StatusError{Status: http.StatusBadRequest}}
	_, err := newService(api).Merchant(context.Background(), signedIn, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	outage := oops.In("upstream").Code(upstream.CodeUnavailable).Wrap(&upstream.StatusError{Status: http.StatusBadGateway})
	api = &fakeAPI{walletErr: outage}
	_, err = newService(api).Merchant(context.Background(), signedIn, "g1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCreateMerchantOutcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		key  string
	}{
		{name: "already exists", err: &upstream.StatusError{Status: http.StatusBadRequest, Body: []byte("6")}, key: KeyMerchantExists},
		{name: "other code", err: &upstream.StatusError{Status: http.StatusBadRequest, Body: []byte("2")}, key: KeyMerchantCreateFailed},
		{name: "code 6 on another status", err: &upstream.StatusError{Status: http.StatusConflict, Body: []byte("6")}, key: KeyMerchantCreateFailed},
		{name: "outage", err: errors.New("dial tcp: refused"), key: KeyMerchantCreateFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{createErr: tc.err}
			_, err := newService(api).CreateMerchant(context.Background(), signedIn, CreateMerchantForm{MerchantName: "Shop", Coin: "BTC"})
			var rejected *RejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, "merchant_name", rejected.Field)
			assert.Equal(t, tc.key, rejected.Key)
		})
	}
}

func TestCreateMerchantValidatesLocally(t *testing.T) {
	api := &fakeAPI{}
	_, err := newService(api).CreateMerchant(context.Background(), signedIn, CreateMerchantForm{MerchantName: "  ", Coin: "B T C"})
	var invalid *InvalidError
	require.True(t, errors.As(err, &invalid))
	assert.True(t, invalid.Failures.Has("merchant_name", credentials.FieldRequired))
	assert.True(t, invalid.Failures.Has("coin", credentials.FieldInvalid))
	assert.Empty(t, api.created)
}

func newDashboard(api API, sess auth.Session) *fiber.App {
	h := NewHandler(newService(api), locale.MustLoad(locale.EN), logging.Discard())
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		auth.Store(c, sess)
		return c.Next()
	})
	app.Get("/dashboard", h.Index)
	app.Post("/dashboard/merchants", h.Create)
	app.Get("/dashboard/merchants/:id", h.Show)
	app.Get("/dashboard/merchants/:id/receive", h.Receive)
	app.Get("/dashboard/merchants/:id/wallet/create", h.NewWallet)
	app.Post("/dashboard/merchants/:id/wallet/create", h.CreateWallet)
	return app
}

func postForm(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestProtectedPagesWithoutAPIKeyAre404(t *testing.T) {
	app := newDashboard(&fakeAPI{}, auth.Session{State: auth.Authenticated})
	for _, path := range []string{"/dashboard", "/dashboard/merchants/g1", "/dashboard/merchants/g1/receive", "/dashboard/merchants/g1/wallet/create"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}
}

func TestCreateMerchantRedirectsToMerchant(t *testing.T) {
	api := &fakeAPI{createOut: upstream.CreatedWallet{UniqGUID: "g-42"}}
	resp := postForm(t, newDashboard(api, signedIn), "/dashboard/merchants", url.Values{"merchant_name": {"Shop"}, "coin": {"BTC"}})

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/en/dashboard/merchants/g-42", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, upstream.CreateWalletRequest{WalletName: "Shop", Status: true, TypeCurrency: "BTC"}, api.created[0])
}

func TestCreateMerchantExistsIsFieldError(t *testing.T) {
	api := &fakeAPI{createErr: &upstream.StatusError{Status: http.StatusBadRequest, Body: []byte("6")}}
	resp := postForm(t, newDashboard(api, signedIn), "/dashboard/merchants", url.Values{"merchant_name": {"Shop"}, "coin": {"BTC"}})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body forms.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Merchant already exists."}, body.Errors["merchant_name"])
}

func TestCreateWalletDefaultsCoinAndRedirects(t *testing.T) {
	api := &fakeAPI{wallet: upstream.Wallet{UniqGUID: "g1", WalletName: "Shop", TypeCurrency: "USDT"}}
	resp := postForm(t, newDashboard(api, signedIn), "/dashboard/merchants/g1/wallet/create", url.Values{})

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/en/dashboard/merchants/g1", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, upstream.AddressRequest{WalletName: "Shop", TypeCurrency: "USDT"}, api.added[0])
}

func TestCreateWalletFailureIsGeneric(t *testing.T) {
	api := &fakeAPI{
		wallet: upstream.Wallet{UniqGUID: "g1", WalletName: "Shop", TypeCurrency: "USDT"},
		addErr: &upstream.StatusError{Status: http.StatusBadRequest},
	}
	resp := postForm(t, newDashboard(api, signedIn), "/dashboard/merchants/g1/wallet/create", url.Values{"coin": {"BTC"}})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body forms.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Failed to create wallet.", body.Message)
}
