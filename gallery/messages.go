package gallery

import (
	"golang.org/x/text/language"
)

// Messages are the hint texts shown in place of the grid, plus the page
// labels rendered around it.
type Messages struct {
	Lang    string
	Title   string
	Loading string
	Empty   string
	Failed  string

	Close string
	Prev  string
	Next  string
}

var catalog = map[language.Tag]Messages{
	language.Romanian: {
		Lang:    "ro",
		Title:   "Galerie foto",
		Loading: "Se încarcă galeria…",
		Empty:   "Nu s-au găsit fotografii.",
		Failed:  "Eroare la încărcarea galeriei.",
		Close:   "Închide",
		Prev:    "Fotografia anterioară",
		Next:    "Fotografia următoare",
	},
	language.English: {
		Lang:    "en",
		Title:   "Photo gallery",
		Loading: "Loading gallery…",
		Empty:   "No photos found.",
		Failed:  "Could not load the gallery.",
		Close:   "Close",
		Prev:    "Previous photo",
		Next:    "Next photo",
	},
}

var supported = []language.Tag{language.Romanian, language.English}

// MessagesFor picks the catalog for an Accept-Language header value,
// falling back to the given default locale.
func MessagesFor(acceptLanguage, fallback string) Messages {
	def, err := language.Parse(fallback)
	if err != nil {
		def = language.Romanian
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		prefs = []language.Tag{def}
	} else {
		prefs = append(prefs, def)
	}

	matcher := language.NewMatcher(supported)
	_, idx, _ := matcher.Match(prefs...)
	return catalog[supported[idx]]
}

// SupportedLocale reports whether a catalog exists for the locale's
// language.
func SupportedLocale(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	for _, t := range supported {
		if b, _ := t.Base(); b == base {
			return true
		}
	}
	return false
}
