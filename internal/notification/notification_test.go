package notification

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/logging"
)

func TestPostgresRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"category", "option", "email", "telegram", "sms"}).
		AddRow(CategoryAccount, "Authorization", true, false, false).
		AddRow(CategoryBusiness, "Create merchant", false, true, true)
	mock.ExpectQuery(`SELECT category, option, email, telegram, sms FROM notification_preferences`).
		WithArgs("u-1").
		WillReturnRows(rows)

	got, err := NewPostgresRepository(mock).Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, Channels{Email: true}, got[CategoryAccount]["Authorization"])
	assert.Equal(t, Channels{Telegram: true, SMS: true}, got[CategoryBusiness]["Create merchant"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT category, option`).WithArgs("u-1").WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresRepository(mock).Get(context.Background(), "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresRepositorySave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := NewPostgresRepository(mock)
	repo.now = func() time.Time { return now }

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO notification_preferences`).
		WithArgs("u-1", CategoryAccount, "Changing password", true, false, true, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = repo.Save(context.Background(), "u-1", Settings{CategoryAccount: {"Changing password": {Email: true, SMS: true}}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO notification_preferences`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err = NewPostgresRepository(mock).Save(context.Background(), "u-1", Settings{CategoryAccount: {"Authorization": {Email: true}}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS notification_preferences`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, NewPostgresRepository(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceFillsDefaultsAndRejectsUnknown(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	got, err := svc.Get(ctx, "u-1")
	require.NoError(t, err)
	for _, g := range Catalog {
		assert.Len(t, got[g.Category], len(g.Options))
	}

	got, err = svc.Update(ctx, "u-1", Settings{CategoryPersonal: {"Success withdrawal": {Telegram: true}}})
	require.NoError(t, err)
	assert.True(t, got[CategoryPersonal]["Success withdrawal"].Telegram)
	assert.False(t, got[CategoryPersonal]["Fail withdrawal"].Telegram)

	_, err = svc.Update(ctx, "u-1", Settings{CategoryPersonal: {"Lottery win": {Email: true}}})
	assert.ErrorIs(t, err, ErrUnknownOption)
}

type recordingNotifier struct{ sent []Message }

func (r *recordingNotifier) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return nil
}

func TestGatedNotifierHonoursEmailChannel(t *testing.T) {
	ctx := context.Background()
	prefs := NewService(NewMemoryRepository())
	next := &recordingNotifier{}
	gated := NewGatedNotifier(next, prefs, logging.Discard())

	require.NoError(t, gated.Send(ctx, Message{Kind: KindMerchantCreated, UserID: "u-1"}))
	assert.Empty(t, next.sent, "channel off by default")

	_, err := prefs.Update(ctx, "u-1", Settings{CategoryBusiness: {"Create merchant": {Email: true}}})
	require.NoError(t, err)
	require.NoError(t, gated.Send(ctx, Message{Kind: KindMerchantCreated, UserID: "u-1"}))
	assert.Len(t, next.sent, 1)

	require.NoError(t, gated.Send(ctx, Message{Kind: KindAccountRegistered, Destination: "a@b.co"}))
	assert.Len(t, next.sent, 2, "ungated kinds always pass")
}

func TestGatedNotifierPerKind(t *testing.T) {
	cases := []struct {
		kind   string
		option *Option
	}{
		{kind: KindSignedIn, option: &Option{Category: CategoryAccount, Name: "Authorization"}},
		{kind: KindMerchantCreated, option: &Option{Category: CategoryBusiness, Name: "Create merchant"}},
		{kind: KindPasswordChanged},
		{kind: KindAccountRegistered},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			ctx := context.Background()
			prefs := NewService(NewMemoryRepository())
			next := &recordingNotifier{}
			gated := NewGatedNotifier(next, prefs, logging.Discard())
			msg := Message{Kind: tc.kind, UserID: "u-1", Destination: "a@b.co"}

			require.NoError(t, gated.Send(ctx, msg))
			if tc.option == nil {
				assert.Len(t, next.sent, 1, "ungated kind")
				return
			}
			assert.Empty(t, next.sent, "email channel off by default")

			_, err := prefs.Update(ctx, "u-1", Settings{tc.option.Category: {tc.option.Name: {Email: true}}})
			require.NoError(t, err)
			require.NoError(t, gated.Send(ctx, msg))
			require.Len(t, next.sent, 1)
			assert.Equal(t, msg, next.sent[0])
		})
	}
}

func TestHandlerRequiresSession(t *testing.T) {
	h := NewHandler(NewService(NewMemoryRepository()), locale.MustLoad(locale.EN))
	app := fiber.New()
	app.Get("/settings", h.Get)
	app.Post("/settings", func(c *fiber.Ctx) error {
		auth.Store(c, auth.Session{UserID: "u-1", APIKey: "k", State: auth.Authenticated})
		return h.Update(c)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/settings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodPost, "/settings", strings.NewReader(`{"Account notifications":{"Authorization":{"Email":true}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/settings", strings.NewReader(`{"Account notifications":{"Nope":{"Email":true}}}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
