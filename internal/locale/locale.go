// Package locale owns the supported locale set, the per-locale message
// bundles shown to users and the negotiation of a locale for a request.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/uk"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

// Supported locale codes as they appear in URL prefixes.
const (
	EN = "en"
	RU = "ru"
	UA = "ua"
)

// CookieName stores a visitor's last explicit locale choice.
const CookieName = "locale"

// Supported lists every locale in URL prefix form.
var Supported = []string{EN, RU, UA}

//go:embed messages/*.json
var messagesFS embed.FS

type entry struct {
	code       string
	translator locales.Translator
	tag        language.Tag
}

// ua is the country code used in URLs; the CLDR language is Ukrainian (uk).
var entries = []entry{
	{code: EN, translator: en.New(), tag: language.English},
	{code: RU, translator: ru.New(), tag: language.Russian},
	{code: UA, translator: uk.New(), tag: language.Ukrainian},
}

// Bundle resolves message keys to user-facing text for a locale.
type Bundle struct {
	def     string
	trans   map[string]ut.Translator
	codes   []string
	matcher language.Matcher
}

// Load builds the bundle for every supported locale. A missing or malformed
// message file, or an unsupported default, is a configuration error.
func Load(defaultLocale string) (*Bundle, error) {
	defaultLocale = strings.ToLower(defaultLocale)
	if !IsSupported(defaultLocale) {
		return nil, fmt.Errorf("default locale %q is not supported", defaultLocale)
	}

	var fallback locales.Translator
	all := make([]locales.Translator, 0, len(entries))
	tags := make([]language.Tag, 0, len(entries))
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.code == defaultLocale {
			fallback = e.translator
			tags = append([]language.Tag{e.tag}, tags...)
			codes = append([]string{e.code}, codes...)
		} else {
			tags = append(tags, e.tag)
			codes = append(codes, e.code)
		}
		all = append(all, e.translator)
	}
	uni := ut.New(fallback, all...)

	b := &Bundle{
		def:     defaultLocale,
		trans:   make(map[string]ut.Translator, len(entries)),
		codes:   codes,
		matcher: language.NewMatcher(tags),
	}

	for _, e := range entries {
		trans, found := uni.GetTranslator(e.translator.Locale())
		if !found {
			return nil, fmt.Errorf("no translator for locale %s", e.code)
		}
		messages, err := readMessages(e.code)
		if err != nil {
			return nil, err
		}
		for key, text := range messages {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("add %s message %q: %w", e.code, key, err)
			}
		}
		b.trans[e.code] = trans
	}

	return b, nil
}

// MustLoad is Load that panics, for tests and static wiring.
func MustLoad(defaultLocale string) *Bundle {
	b, err := Load(defaultLocale)
	if err != nil {
		panic(err)
	}
	return b
}

func readMessages(code string) (map[string]string, error) {
	raw, err := messagesFS.ReadFile("messages/" + code + ".json")
	if err != nil {
		return nil, fmt.Errorf("message bundle for %s: %w", code, err)
	}
	var messages map[string]string
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode message bundle for %s: %w", code, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("message bundle for %s is empty", code)
	}
	return messages, nil
}

// Default returns the fallback locale.
func (b *Bundle) Default() string { return b.def }

// Translator returns the translator for loc, or the default one.
func (b *Bundle) Translator(loc string) ut.Translator {
	if t, ok := b.trans[loc]; ok {
		return t
	}
	return b.trans[b.def]
}

// T renders key in loc. Keys missing from loc fall back to the default
// locale, then to the key itself.
func (b *Bundle) T(loc, key string, params ...string) string {
	if text, err := b.Translator(loc).T(key, params...); err == nil {
		return text
	}
	if text, err := b.trans[b.def].T(key, params...); err == nil {
		return text
	}
	return key
}

// Negotiate picks the best supported locale for an Accept-Language header.
func (b *Bundle) Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return b.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.def
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.def
	}
	return b.codes[idx]
}

// Resolve returns loc when supported, otherwise the default.
func (b *Bundle) Resolve(loc string) string {
	loc = strings.ToLower(loc)
	if IsSupported(loc) {
		return loc
	}
	return b.def
}

// IsSupported reports whether code is one of the URL locales.
func IsSupported(code string) bool {
	for _, s := range Supported {
		if s == code {
			return true
		}
	}
	return false
}

// SplitPath separates a leading "/{locale}" segment from path. ok is false
// when the first segment is not a supported locale, in which case rest is
// path unchanged.
func SplitPath(path string) (loc, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	first, remainder, _ := strings.Cut(trimmed, "/")
	first = strings.ToLower(first)
	if !IsSupported(first) {
		return "", path, false
	}
	return first, "/" + remainder, true
}
