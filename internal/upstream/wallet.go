package upstream

import (
	"context"
	"encoding/json"
	"net/http"
)

// Wallet API endpoints. All of them require the X-Api-Key header.
const (
	EndpointCreateWallet   = "/Wallet/create-wallet"
	EndpointAddAddress     = "/Wallet/add-address"
	EndpointGetAddresses   = "/Wallet/get-addresses"
	EndpointWalletByGUID   = "/Wallet/get-wallet-by-guid-no-update-balance"
	EndpointWalletsDetails = "/Wallet/get-wallets-details"
	EndpointIncomingTxs    = "/Transaction/get-transactions-incoming-ids-by-address"
)

// CreateWalletRequest creates a merchant (a named wallet for one currency).
type CreateWalletRequest struct {
	WalletName   string `json:"WalletName"`
	Status       bool   `json:"status"`
	TypeCurrency string `json:"typeCurrency"`
}

// CreatedWallet is the create-wallet reply.
type CreatedWallet struct {
	UniqGUID string `json:"uniqGuid"`
}

// AddressRequest selects a merchant's addresses.
type AddressRequest struct {
	WalletName   string `json:"walletName"`
	TypeCurrency string `json:"typeCurrency"`
}

// TransactionsRequest selects incoming transactions for an address.
type TransactionsRequest struct {
	Address      string `json:"address"`
	TypeCurrency string `json:"typeCurrency"`
}

// Wallet is a merchant as the wallet API describes it. Field matching is
// case-insensitive, so "Balance" and "balance" both decode.
type Wallet struct {
	UniqGUID     string      `json:"uniqGuid"`
	WalletName   string      `json:"walletName"`
	NameWallet   string      `json:"nameWallet"`
	Balance      json.Number `json:"balance"`
	TypeCurrency string      `json:"typeCurrency"`
	Status       bool        `json:"status"`
}

// Name returns the merchant display name from whichever field is set.
func (w Wallet) Name() string {
	if w.WalletName != "" {
		return w.WalletName
	}
	return w.NameWallet
}

// CreateWallet creates a merchant wallet.
func (c *Client) CreateWallet(ctx context.Context, apiKey string, req CreateWalletRequest) (CreatedWallet, error) {
	var out CreatedWallet
	err := c.walletCall(ctx, http.MethodPost, EndpointCreateWallet, apiKey, req, &out)
	return out, err
}

// AddAddress adds a receiving address to a merchant.
func (c *Client) AddAddress(ctx context.Context, apiKey string, req AddressRequest) error {
	return c.walletCall(ctx, http.MethodPost, EndpointAddAddress, apiKey, req, nil)
}

// GetAddresses lists a merchant's receiving addresses.
func (c *Client) GetAddresses(ctx context.Context, apiKey string, req AddressRequest) ([]string, error) {
	var out []string
	err := c.walletCall(ctx, http.MethodPost, EndpointGetAddresses, apiKey, req, &out)
	return out, err
}

// WalletByGUID fetches one merchant without refreshing its balance.
func (c *Client) WalletByGUID(ctx context.Context, apiKey, guid string) (Wallet, error) {
	var out Wallet
	err := c.walletCall(ctx, http.MethodPost, EndpointWalletByGUID, apiKey, guid, &out)
	return out, err
}

// WalletsDetails lists every merchant of the caller.
func (c *Client) WalletsDetails(ctx context.Context, apiKey string) ([]Wallet, error) {
	var out []Wallet
	err := c.walletCall(ctx, http.MethodGet, EndpointWalletsDetails, apiKey, nil, &out)
	return out, err
}

// IncomingTransactionIDs lists incoming transaction ids for an address.
func (c *Client) IncomingTransactionIDs(ctx context.Context, apiKey string, req TransactionsRequest) ([]string, error) {
	var out []string
	err := c.walletCall(ctx, http.MethodPost, EndpointIncomingTxs, apiKey, req, &out)
	return out, err
}
