package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/notification"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

// ErrNotFound hides both missing merchants and missing credentials.
var ErrNotFound = errors.New("not found")

// API is the wallet API surface used by the dashboard.
type API interface {
	CreateWallet(ctx context.Context, apiKey string, req upstream.CreateWalletRequest) (upstream.CreatedWallet, error)
	AddAddress(ctx context.Context, apiKey string, req upstream.AddressRequest) error
	GetAddresses(ctx context.Context, apiKey string, req upstream.AddressRequest) ([]string, error)
	WalletByGUID(ctx context.Context, apiKey, guid string) (upstream.Wallet, error)
	WalletsDetails(ctx context.Context, apiKey string) ([]upstream.Wallet, error)
	IncomingTransactionIDs(ctx context.Context, apiKey string, req upstream.TransactionsRequest) ([]string, error)
}

// Service exposes merchant operations on behalf of a session. Every call
// forwards the session API key; a session without one sees ErrNotFound.
type Service struct {
	api      API
	validate *credentials.Validator
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(api API, validate *credentials.Validator, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, validate: validate, notifier: notifier, logger: logger}
}

func apiKey(sess auth.Session) (string, error) {
	if !sess.Present() || sess.APIKey == "" {
		return "", ErrNotFound
	}
	return sess.APIKey, nil
}

// notFound maps upstream 4xx replies to ErrNotFound and keeps outages as they are.
func notFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, upstream.ErrMissingAPIKey) {
		return ErrNotFound
	}
	if _, ok := upstream.AsStatus(err); ok && !upstream.IsUnavailable(err) {
		return ErrNotFound
	}
	return err
}

// Merchants lists the caller's merchants.
func (s *Service) Merchants(ctx context.Context, sess auth.Session) ([]Merchant, error) {
	key, err := apiKey(sess)
	if err != nil {
		return nil, err
	}
	wallets, err := s.api.WalletsDetails(ctx, key)
	if err != nil {
		return nil, notFound(err)
	}
	out := make([]Merchant, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, merchantFrom(w))
	}
	return out, nil
}

// Merchant fetches one merchant by id without refreshing its balance.
func (s *Service) Merchant(ctx context.Context, sess auth.Session, id string) (Merchant, error) {
	key, err := apiKey(sess)
	if err != nil {
		return Merchant{}, err
	}
	w, err := s.api.WalletByGUID(ctx, key, id)
	if err != nil {
		return Merchant{}, notFound(err)
	}
	if w.UniqGUID == "" {
		w.UniqGUID = id
	}
	return merchantFrom(w), nil
}

// FetchAddresses lists the receiving addresses of a merchant wallet.
func (s *Service) FetchAddresses(ctx context.Context, sess auth.Session, walletName, coin string) ([]string, error) {
	key, err := apiKey(sess)
	if err != nil {
		return nil, err
	}
	addresses, err := s.api.GetAddresses(ctx, key, upstream.AddressRequest{WalletName: walletName, TypeCurrency: coin})
	if err != nil {
		return nil, notFound(err)
	}
	return addresses, nil
}

// MerchantPage loads a merchant with its first address and that address's
// incoming transactions.
func (s *Service) MerchantPage(ctx context.Context, sess auth.Session, id string) (MerchantPage, error) {
	m, err := s.Merchant(ctx, sess, id)
	if err != nil {
		return MerchantPage{}, err
	}
	page := MerchantPage{Merchant: m, Transactions: []string{}}

	addresses, err := s.FetchAddresses(ctx, sess, m.Name, m.Currency)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return page, nil
		}
		return MerchantPage{}, err
	}
	if len(addresses) == 0 {
		return page, nil
	}
	page.Address = addresses[0]

	txs, err := s.api.IncomingTransactionIDs(ctx, sess.APIKey, upstream.TransactionsRequest{Address: page.Address, TypeCurrency: m.Currency})
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return page, nil
		}
		return MerchantPage{}, err
	}
	if txs != nil {
		page.Transactions = txs
	}
	return page, nil
}

// Receive loads the merchant with all of its addresses.
func (s *Service) Receive(ctx context.Context, sess auth.Session, id string) (ReceivePage, error) {
	m, err := s.Merchant(ctx, sess, id)
	if err != nil {
		return ReceivePage{}, err
	}
	addresses, err := s.FetchAddresses(ctx, sess, m.Name, m.Currency)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ReceivePage{}, err
	}
	if addresses == nil {
		addresses = []string{}
	}
	return ReceivePage{Merchant: m, Addresses: addresses}, nil
}

// CreateMerchant creates a merchant and returns its id. Errors are
// ErrNotFound, *InvalidError or *RejectedError.
func (s *Service) CreateMerchant(ctx context.Context, sess auth.Session, form CreateMerchantForm) (string, error) {
	key, err := apiKey(sess)
	if err != nil {
		return "", err
	}
	form.MerchantName = strings.TrimSpace(form.MerchantName)
	form.Coin = strings.TrimSpace(form.Coin)
	if failures := s.validate.Check(form); !failures.OK() {
		return "", &InvalidError{Failures: failures}
	}

	created, err := s.api.CreateWallet(ctx, key, upstream.CreateWalletRequest{WalletName: form.MerchantName, Status: true, TypeCurrency: form.Coin})
	if err == nil && created.UniqGUID == "" {
		err = errors.New("create-wallet returned no id")
	}
	if err != nil {
		outcome := createMerchantOutcome(err)
		s.logger.Info("create merchant rejected", slog.String("outcome", outcome), slog.Any("error", err))
		return "", &RejectedError{Field: "merchant_name", Key: outcome, Err: err}
	}

	if s.notifier != nil {
		msg := notification.Message{Kind: notification.KindMerchantCreated, UserID: sess.UserID, Destination: sess.Email, Body: form.MerchantName}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
		}
	}
	return created.UniqGUID, nil
}

// CreateWallet adds a receiving address to merchant id.
func (s *Service) CreateWallet(ctx context.Context, sess auth.Session, id string, form CreateWalletForm) error {
	m, err := s.Merchant(ctx, sess, id)
	if err != nil {
		return err
	}
	form.Coin = strings.TrimSpace(form.Coin)
	if failures := s.validate.Check(form); !failures.OK() {
		return &InvalidError{Failures: failures}
	}
	coin := form.Coin
	if coin == "" {
		coin = m.Currency
	}

	if err := s.api.AddAddress(ctx, sess.APIKey, upstream.AddressRequest{WalletName: m.Name, TypeCurrency: coin}); err != nil {
		s.logger.Info("create wallet rejected", slog.String("merchant_id", id), slog.Any("error", err))
		return &RejectedError{Key: KeyWalletCreateFailed, Err: err}
	}
	return nil
}
