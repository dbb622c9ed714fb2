// Package i18n holds the English and Sinhala interface strings of the
// cheat-sheet views and picks a language for a request.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	English = "en"
	Sinhala = "si"
)

// DefaultLanguage is used when nothing else matches.
const DefaultLanguage = English

var messages = map[string]map[string]string{
	English: {
		"language.name": "English",
		"language":      "Language",

		"nav.home":        "Home",
		"nav.regex":       "Regex Playground",
		"nav.formatter":   "JSON/YAML Formatter",
		"nav.boilerplate": "Boilerplate Generator",
		"nav.cheatsheets": "Cheat Sheets",

		"cheatsheet.title":       "Developer Cheat Sheets",
		"cheatsheet.subtitle":    "Quick reference for Git commands and Linux basics in Sinhala and English",
		"cheatsheet.search":      "Search commands...",
		"cheatsheet.english":     "English",
		"cheatsheet.localized":   "සිංහල",
		"cheatsheet.example":     "Example",
		"cheatsheet.empty":       "No Commands Found",
		"cheatsheet.empty_hint":  "Try adjusting your search or filters.",
		"cheatsheet.count":       "%d commands",
		"cheatsheet.category":    "Category",
		"cheatsheet.all":         "All",
		"cheatsheet.copy":        "Copy command: %s",
		"cheatsheet.copied":      "Copied!",
		"cheatsheet.copy_failed": "Copy failed: %s",
		"cheatsheet.reloaded":    "Sheets reloaded",

		"tui.help": "/ search  tab sheet  c category  ↑↓ move  enter copy  L language  q quit",
	},
	Sinhala: {
		"language.name": "සිංහල",
		"language":      "භාෂාව",

		"nav.home":        "මුල් පිටුව",
		"nav.regex":       "Regex Playground",
		"nav.formatter":   "JSON/YAML Formatter",
		"nav.boilerplate": "Boilerplate Generator",
		"nav.cheatsheets": "Cheat Sheets",

		"cheatsheet.title":       "සංවර්ධක විධාන මාර්ගෝපදේශ",
		"cheatsheet.subtitle":    "Git විධාන සහ Linux මූලික කරුණු සිංහලෙන් සහ ඉංග්‍රීසියෙන්",
		"cheatsheet.search":      "විධාන සොයන්න...",
		"cheatsheet.english":     "English",
		"cheatsheet.localized":   "සිංහල",
		"cheatsheet.example":     "උදාහරණය",
		"cheatsheet.empty":       "විධාන හමු නොවීය",
		"cheatsheet.empty_hint":  "ඔබේ සෙවුම හෝ පෙරහන් වෙනස් කර බලන්න.",
		"cheatsheet.count":       "විධාන %d",
		"cheatsheet.category":    "කාණ්ඩය",
		"cheatsheet.all":         "සියල්ල",
		"cheatsheet.copy":        "විධානය පිටපත් කරන්න: %s",
		"cheatsheet.copied":      "පිටපත් කළා!",
		"cheatsheet.copy_failed": "පිටපත් කිරීම අසාර්ථකයි: %s",
		"cheatsheet.reloaded":    "පත්‍රිකා නැවත පූරණය විය",

		"tui.help": "/ සොයන්න  tab පත්‍රිකාව  c කාණ්ඩය  ↑↓ ගමන්  enter පිටපත්  L භාෂාව  q ඉවත්වන්න",
	},
}

var (
	supported = []language.Tag{language.English, language.Sinhala}
	matcher   = language.NewMatcher(supported)
)

// Supported returns the language codes with a message table.
func Supported() []string {
	return []string{English, Sinhala}
}

// IsSupported reports whether lang has a message table.
func IsSupported(lang string) bool {
	_, ok := messages[lang]

	return ok
}

// Normalize maps a language code such as "si-LK" or "EN" to a supported
// code, falling back to DefaultLanguage.
func Normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return DefaultLanguage
	}

	return code(tag)
}

// Match picks a language from an Accept-Language header.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}

	return code(supported[index])
}

func code(tag language.Tag) string {
	base, _ := tag.Base()
	if IsSupported(base.String()) {
		return base.String()
	}

	return DefaultLanguage
}

// T returns the message for key in lang, formatted with args. Missing keys
// fall back to English and then to the key itself.
func T(lang, key string, args ...interface{}) string {
	msg, ok := messages[lang][key]
	if !ok {
		msg, ok = messages[DefaultLanguage][key]
	}
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}

	return msg
}

// Name returns the language's own name, e.g. "සිංහල" for "si".
func Name(lang string) string {
	return T(Normalize(lang), "language.name")
}

// Translator binds T to one language.
type Translator struct {
	Lang string
}

// New returns a translator for the normalized lang.
func New(lang string) Translator {
	return Translator{Lang: Normalize(lang)}
}

// T looks up key in the translator's language.
func (t Translator) T(key string, args ...interface{}) string {
	return T(t.Lang, key, args...)
}
