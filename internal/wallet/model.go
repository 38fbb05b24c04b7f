package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/congo-pay/merchant_portal/internal/credentials"
	"github.com/congo-pay/merchant_portal/internal/upstream"
)

// Merchant is a named wallet for one currency, as shown on the dashboard.
type Merchant struct {
	ID       string      `json:"id"`
	Name     string      `json:"walletName"`
	Balance  json.Number `json:"balance"`
	Currency string      `json:"currencyType"`
	Active   bool        `json:"status"`
}

func merchantFrom(w upstream.Wallet) Merchant {
	return Merchant{ID: w.UniqGUID, Name: w.Name(), Balance: w.Balance, Currency: w.TypeCurrency, Active: w.Status}
}

// MerchantPage is the merchant detail view.
type MerchantPage struct {
	Merchant     Merchant `json:"merchant"`
	Address      string   `json:"address,omitempty"`
	Transactions []string `json:"incomingTransactionIds"`
}

// ReceivePage lists every address a merchant can receive on.
type ReceivePage struct {
	Merchant  Merchant `json:"merchant"`
	Addresses []string `json:"addresses"`
}

// CreateMerchantForm is the create-merchant submission.
type CreateMerchantForm struct {
	MerchantName string `form:"merchant_name" json:"merchant_name" validate:"required,max=64"`
	Coin         string `form:"coin" json:"coin" validate:"required,alphanum,max=16"`
}

// CreateWalletForm adds an address to a merchant. Coin defaults to the
// merchant currency.
type CreateWalletForm struct {
	Coin string `form:"coin" json:"coin" validate:"omitempty,alphanum,max=16"`
}

// InvalidError carries local validation failures.
type InvalidError struct {
	Failures credentials.Failures
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("wallet: %d invalid fields", len(e.Failures))
}

// RejectedError is an upstream refusal mapped to a message key.
type RejectedError struct {
	Field string
	Key   string
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("wallet: rejected (%s): %v", e.Key, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }
