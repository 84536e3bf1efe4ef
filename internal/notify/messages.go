package notify

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/segment"
)

const (
	keyStartSoon  = "start_soon"
	keyEndSoon    = "end_soon"
	keyAnchorSoon = "anchor_soon"
)

var supported = []language.Tag{language.English, language.Turkish, language.German}

var matcher = language.NewMatcher(supported)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	set := func(tag language.Tag, key, msg string) {
		// Only fails on malformed messages, which these are not.
		_ = b.SetString(tag, key, msg)
	}

	set(language.English, keyStartSoon, "%d minutes left until imsak")
	set(language.English, keyEndSoon, "%d minutes left until iftar")
	set(language.English, keyAnchorSoon, "%d minutes left until %s")

	set(language.Turkish, keyStartSoon, "İmsak vaktine son %d dakika kaldı")
	set(language.Turkish, keyEndSoon, "İftar vaktine son %d dakika kaldı")
	set(language.Turkish, keyAnchorSoon, "%[2]s vaktine son %[1]d dakika kaldı")

	set(language.German, keyStartSoon, "Noch %d Minuten bis Imsak")
	set(language.German, keyEndSoon, "Noch %d Minuten bis zum Iftar")
	set(language.German, keyAnchorSoon, "Noch %d Minuten bis %s")

	return b
}

// Messages renders alert text in one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages picks the closest supported language to lang ("en", "tr",
// "de-AT", ...). Unknown or empty input falls back to English.
func NewMessages(lang string) *Messages {
	tag := language.English
	if t, err := language.Parse(lang); err == nil {
		_, idx, conf := matcher.Match(t)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(newCatalog())),
	}
}

// Language returns the matched language tag.
func (m *Messages) Language() string { return m.tag.String() }

// Alert returns the text for a proximity alert.
func (m *Messages) Alert(a segment.Alert) string {
	minutes := int(math.Ceil(a.Remaining.Minutes()))
	switch a.Anchor {
	case model.Imsak:
		return m.printer.Sprintf(keyStartSoon, minutes)
	case model.Maghrib:
		return m.printer.Sprintf(keyEndSoon, minutes)
	default:
		return m.printer.Sprintf(keyAnchorSoon, minutes, string(a.Anchor))
	}
}
