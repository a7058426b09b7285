package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"phishlab/utils"
)

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English, // first entry is the fallback
	language.Spanish,
})

// LocaleMiddleware detects and sets the user's locale
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try to get language from query parameter
		lang := c.Query("lang")
		if lang != "" {
			lang = utils.NormalizeLanguage(lang)
			c.Cookie(&fiber.Cookie{
				Name:     "lang",
				Value:    lang,
				MaxAge:   365 * 24 * 3600,
				SameSite: "Lax",
			})
		}

		// 2. Try to get language from cookie
		if lang == "" {
			lang = c.Cookies("lang")
		}

		// 3. Try to get language from Accept-Language header
		if lang == "" {
			lang = matchAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
		}

		// Only allow supported languages
		lang = utils.NormalizeLanguage(lang)

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		utils.Log.Debug("Locale detected: %s for path: %s", lang, c.Path())

		return c.Next()
	}
}

func matchAcceptLanguage(header string) string {
	if header == "" {
		return "en"
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	tag, _, _ := localeMatcher.Match(tags...)
	base, _ := tag.Base()
	return base.String()
}
