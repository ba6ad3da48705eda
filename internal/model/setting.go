package model

import "time"

// Well-known settings keys. Wallet keys hold the deposit address shown in
// manual payment instructions for the matching payment method.
const (
	SettingVIPPrice      = "vip_price"
	SettingWalletTRC20   = "wallet_usdt_trc20"
	SettingWalletERC20   = "wallet_usdt_erc20"
	SettingWalletBitcoin = "wallet_btc"
)

// Setting is a single key/value row of operator-tunable configuration.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
