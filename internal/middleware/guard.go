package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/congo-pay/merchant_portal/internal/auth"
	"github.com/congo-pay/merchant_portal/internal/locale"
	"github.com/congo-pay/merchant_portal/internal/metrics"
)

// PageClass is the access class of a page.
type PageClass string

const (
	ClassPublic    PageClass = "public"
	ClassAuthOnly  PageClass = "auth_only"
	ClassProtected PageClass = "protected"
	// ClassInfra marks paths the guard does not handle.
	ClassInfra PageClass = "infra"
)

// PublicPages are served to everyone.
var PublicPages = []string{
	"/",
	"/about-us",
	"/contacts",
	"/fees-pricing",
	"/cryptocurrency-payment-gateway",
	"/available-currencies",
	"/crypto-processing-solutions-comparison",
	"/cryptocurrency-wallets",
	"/minimum-deposits-withdrawals",
	"/terms",
	"/privacy",
}

// AuthOnlyPages are only served without a session.
var AuthOnlyPages = []string{
	"/signin",
	"/signin/email",
	"/registration",
	"/registration/email",
	"/recovery",
	"/recovery/email",
}

const (
	signInPath    = "/signin"
	dashboardPath = "/dashboard"
	classKey      = "page_class"
)

var infraPrefixes = []string{"/healthz", "/metrics", "/api/"}

var (
	publicPattern   = pagePattern(PublicPages)
	authOnlyPattern = pagePattern(AuthOnlyPages)
)

// pagePattern matches any of pages with an optional locale prefix and an
// optional trailing slash. "/" also matches the bare locale root.
func pagePattern(pages []string) *regexp.Regexp {
	alts := make([]string, 0, len(pages)+1)
	for _, p := range pages {
		if p == "/" {
			alts = append(alts, "", "/")
			continue
		}
		alts = append(alts, regexp.QuoteMeta(p))
	}
	locales := strings.Join(locale.Supported, "|")
	return regexp.MustCompile(`(?i)^(/(` + locales + `))?(` + strings.Join(alts, "|") + `)/?$`)
}

// Classify returns the access class of path, with or without a locale prefix.
func Classify(path string) PageClass {
	switch {
	case isInfra(path):
		return ClassInfra
	case authOnlyPattern.MatchString(path):
		return ClassAuthOnly
	case publicPattern.MatchString(path):
		return ClassPublic
	}
	return ClassProtected
}

func isInfra(path string) bool {
	for _, p := range infraPrefixes {
		if path == strings.TrimSuffix(p, "/") || strings.HasPrefix(path, p) {
			return true
		}
	}
	// Static assets such as /favicon.ico. Locale-prefixed paths are always pages.
	if _, _, prefixed := locale.SplitPath(path); prefixed {
		return false
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return strings.Contains(last, ".")
}

// ClassFromCtx returns the class the guard assigned to the request.
func ClassFromCtx(c *fiber.Ctx) PageClass {
	class, _ := c.Locals(classKey).(PageClass)
	return class
}

// GuardConfig configures Guard.
type GuardConfig struct {
	Bundle        *locale.Bundle
	SecureCookies bool
}

// Guard classifies each request, redirects by session state and resolves the
// locale. Locale-prefixed paths are rewritten without the prefix for
// routing; paths without a prefix are redirected to one. It must run after
// Session and before any route.
func Guard(cfg GuardConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// c.Path is backed by a buffer that c.Path(rest) overwrites below.
		path := utils.CopyString(c.Path())
		class := Classify(path)
		c.Locals(classKey, class)
		if class == ClassInfra {
			return c.Next()
		}

		loc, rest, prefixed := locale.SplitPath(path)
		present := auth.FromCtx(c).Present()

		switch {
		case class == ClassAuthOnly && present:
			metrics.RecordGuardDecision(string(class), "redirect_dashboard")
			return c.Redirect(localized(loc, prefixed, dashboardPath), fiber.StatusFound)
		case class == ClassProtected && !present:
			metrics.RecordGuardDecision(string(class), "redirect_signin")
			target := localized(loc, prefixed, signInPath) + "?callbackUrl=" + url.QueryEscape(path)
			return c.Redirect(target, fiber.StatusFound)
		}

		if !prefixed {
			metrics.RecordGuardDecision(string(class), "redirect_locale")
			target := locale.Prefix(preferredLocale(c, cfg.Bundle), path)
			if qs := string(c.Request().URI().QueryString()); qs != "" {
				target += "?" + qs
			}
			return c.Redirect(target, fiber.StatusTemporaryRedirect)
		}

		metrics.RecordGuardDecision(string(class), "serve")
		locale.Store(c, loc)
		if c.Cookies(locale.CookieName) != loc {
			c.Cookie(&fiber.Cookie{
				Name:     locale.CookieName,
				Value:    loc,
				Path:     "/",
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
				Secure:   cfg.SecureCookies,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Path(rest)
		return c.Next()
	}
}

func localized(loc string, prefixed bool, path string) string {
	if !prefixed {
		return path
	}
	return locale.Prefix(loc, path)
}

// preferredLocale picks the cookie locale, then Accept-Language, then the default.
func preferredLocale(c *fiber.Ctx, b *locale.Bundle) string {
	if cookie := strings.ToLower(c.Cookies(locale.CookieName)); locale.IsSupported(cookie) {
		return cookie
	}
	return b.Negotiate(c.Get(fiber.HeaderAcceptLanguage))
}
