// Package notification keeps per-user notification preferences and emits
// account and merchant events.
package notification

import (
	"errors"
	"fmt"
)

// Categories of the settings page.
const (
	CategoryAccount  = "Account notifications"
	CategoryPersonal = "Personal wallet notifications"
	CategoryBusiness = "Business wallet notifications"
)

// Channels toggles delivery per channel for one option.
type Channels struct {
	Email    bool `json:"Email"`
	Telegram bool `json:"Telegram"`
	SMS      bool `json:"SMS"`
}

// Settings maps category -> option -> channels.
type Settings map[string]map[string]Channels

// Option addresses one row of the settings page.
type Option struct {
	Category string
	Name     string
}

// Group is one category with its options, in display order.
type Group struct {
	Category string   `json:"category"`
	Options  []string `json:"options"`
}

// Catalog lists every configurable option in display order.
var Catalog = []Group{
	{Category: CategoryAccount, Options: []string{
		"Authorization",
		"Changing password",
		"Add and Changing Email",
		"Add and Changing phone",
	}},
	{Category: CategoryPersonal, Options: []string{
		"New payment received to personal wallet",
		"Success withdrawal",
		"Fail withdrawal",
		"New withdrawal",
		"Transfer from Personal to Business",
		"Transfer from Business to Personal",
	}},
	{Category: CategoryBusiness, Options: []string{
		"Request merchant API-key",
		"Create merchant",
		"Paid invoices",
		"Payout API key",
		"Partially paid invoices",
	}},
}

// ErrUnknownOption is returned when settings name an option not in Catalog.
var ErrUnknownOption = errors.New("unknown notification option")

// Defaults returns every catalogued option with all channels off.
func Defaults() Settings {
	out := make(Settings, len(Catalog))
	for _, g := range Catalog {
		opts := make(map[string]Channels, len(g.Options))
		for _, name := range g.Options {
			opts[name] = Channels{}
		}
		out[g.Category] = opts
	}
	return out
}

// Known reports whether opt is in Catalog.
func Known(opt Option) bool {
	for _, g := range Catalog {
		if g.Category != opt.Category {
			continue
		}
		for _, name := range g.Options {
			if name == opt.Name {
				return true
			}
		}
	}
	return false
}

// Validate rejects settings that name unknown options.
func (s Settings) Validate() error {
	for category, opts := range s {
		for name := range opts {
			if !Known(Option{Category: category, Name: name}) {
				return fmt.Errorf("%w: %s / %s", ErrUnknownOption, category, name)
			}
		}
	}
	return nil
}

// Merge overlays s onto base and returns base.
func (s Settings) Merge(base Settings) Settings {
	for category, opts := range s {
		if base[category] == nil {
			base[category] = make(map[string]Channels, len(opts))
		}
		for name, ch := range opts {
			base[category][name] = ch
		}
	}
	return base
}
