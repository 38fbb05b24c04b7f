package wallet

import "github.com/congo-pay/merchant_portal/internal/upstream"

// Message keys for merchant and wallet outcomes.
const (
	KeyMerchantExists       = "merchant_exists"
	KeyMerchantCreateFailed = "merchant_create_failed"
	KeyWalletCreateFailed   = "wallet_create_failed"
)

// createWalletCodes translates Wallet/create-wallet error codes.
var createWalletCodes = map[int]string{
	6: KeyMerchantExists,
}

func createMerchantOutcome(err error) string {
	se, ok := upstream.AsStatus(err)
	if !ok || upstream.IsUnavailable(err) || se.Status != 400 {
		return KeyMerchantCreateFailed
	}
	code, ok := se.Code()
	if !ok {
		return KeyMerchantCreateFailed
	}
	if key, ok := createWalletCodes[code]; ok {
		return key
	}
	return KeyMerchantCreateFailed
}
