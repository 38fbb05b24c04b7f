package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/config"
	"github.com/congo-pay/merchant_portal/internal/flow"
	"github.com/congo-pay/merchant_portal/internal/logging"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

func newPortal(t *testing.T) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case upstream.EndpointEmailExist:
			if strings.Contains(string(raw), "new@") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		case upstream.EndpointSendCode, upstream.EndpointAddUser:
			w.WriteHeader(http.StatusOK)
		case upstream.EndpointSignIn:
			_, _ = io.WriteString(w, `{"id":"u-1","email":"a@b.co","apiKey":"key-1","tokenRespondeModel":{"access":"at"}}`)
		case upstream.EndpointWalletsDetails:
			if r.Header.Get(upstream.APIKeyHeader) != "key-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `[{"uniqGuid":"g1","nameWallet":"Shop","balance":1,"typeCurrency":"BTC","status":true}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := config.Config{
		AppEnv:                "production",
		DefaultLocale:         "en",
		SessionSecret:         strings.Repeat("s", 32),
		SessionMaxAge:         auth.DefaultMaxAge,
		CodeRequestsPerWindow: 5,
	}
	client := upstream.New(upstream.Config{RegisterURL: srv.URL, MainURL: srv.URL}, logging.Discard())

	app := fiber.New()
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Logger: logging.Discard(), Upstream: client}))
	return app
}

type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (b *browser) do(method, target string, form url.Values) *http.Response {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func TestSignInJourney(t *testing.T) {
	b := &browser{t: t, app: newPortal(t), cookies: map[string]string{}}

	resp := b.do(fiber.MethodGet, "/dashboard", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signin?callbackUrl=%2Fdashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = b.do(fiber.MethodGet, "/signin?callbackUrl=%2Fdashboard", nil)
	require.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/en/signin?callbackUrl=%2Fdashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = b.do(fiber.MethodPost, "/en/signin/email", url.Values{"email": {"a@b.co"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/en/signin", resp.Header.Get(fiber.HeaderLocation))
	require.Contains(t, b.cookies, flow.CookieName)

	resp = b.do(fiber.MethodGet, "/en/signin", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Step  string `json:"step"`
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "otp_and_password", page.Step)
	assert.Equal(t, "a@b.co", page.Email)

	resp = b.do(fiber.MethodPost, "/en/signin", url.Values{"password": {"secret!pw"}, "otpcode": {"12345"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/en/dashboard", resp.Header.Get(fiber.HeaderLocation))
	require.Contains(t, b.cookies, auth.CookieName)
	assert.NotContains(t, b.cookies, flow.CookieName)

	resp = b.do(fiber.MethodGet, "/en/dashboard", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = b.do(fiber.MethodGet, "/en/signin", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/en/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = b.do(fiber.MethodPost, "/en/signout", url.Values{})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/en", resp.Header.Get(fiber.HeaderLocation))
	assert.NotContains(t, b.cookies, auth.CookieName)

	resp = b.do(fiber.MethodGet, "/en/dashboard", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestPublicPagesAndInfra(t *testing.T) {
	b := &browser{t: t, app: newPortal(t), cookies: map[string]string{}}

	resp := b.do(fiber.MethodGet, "/ru/about-us", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Page   string `json:"page"`
		Locale string `json:"locale"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, "/about-us", page.Page)
	assert.Equal(t, "ru", page.Locale)

	resp = b.do(fiber.MethodGet, "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = b.do(fiber.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "portal_guard_decisions_total")
}

func errorTexts(t *testing.T, resp *http.Response) []string {
	t.Helper()
	var body struct {
		Errors  map[string][]string `json:"errors"`
		Message string              `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	texts := []string{body.Message}
	for _, msgs := range body.Errors {
		texts = append(texts, msgs...)
	}
	return texts
}

func TestRegistrationJourneyInRussian(t *testing.T) {
	b := &browser{t: t, app: newPortal(t), cookies: map[string]string{}}

	resp := b.do(fiber.MethodPost, "/ru/registration/email", url.Values{"email": {"taken@b.co"}})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, errorTexts(t, resp), "Аккаунт с таким email уже существует.")

	resp = b.do(fiber.MethodPost, "/ru/registration/email", url.Values{"email": {"new@b.co"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ru/registration", resp.Header.Get(fiber.HeaderLocation))

	resp = b.do(fiber.MethodPost, "/ru/registration", url.Values{
		"otpcode": {"12345"}, "password": {"secret!pw1"}, "confirmPassword": {"secret!pw2"},
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, errorTexts(t, resp), "Пароли не совпадают.")

	resp = b.do(fiber.MethodPost, "/ru/registration", url.Values{
		"otpcode": {"12345"}, "password": {"secret!pw1"}, "confirmPassword": {"secret!pw1"},
	})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ru/signin", resp.Header.Get(fiber.HeaderLocation))
	assert.NotContains(t, b.cookies, flow.CookieName)
}

func TestMerchantsPageIsRouted(t *testing.T) {
	b := &browser{t: t, app: newPortal(t), cookies: map[string]string{}}

	resp := b.do(fiber.MethodGet, "/ua/dashboard/merchants", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/ua/signin?callbackUrl=%2Fua%2Fdashboard%2Fmerchants", resp.Header.Get(fiber.HeaderLocation))

	b.do(fiber.MethodPost, "/ua/signin/email", url.Values{"email": {"a@b.co"}})
	resp = b.do(fiber.MethodPost, "/ua/signin", url.Values{"password": {"secret!pw"}, "otpcode": {"12345"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/ua/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp = b.do(fiber.MethodGet, "/ua/dashboard/merchants", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Merchants []struct {
			ID string `json:"id"`
		} `json:"merchants"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Merchants, 1)
}
