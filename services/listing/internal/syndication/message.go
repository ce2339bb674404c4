package syndication

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"avto-sawda/services/listing/internal/entity"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CaptionLimit is the longest photo caption Telegram accepts.
const CaptionLimit = 1024

const divider = "━━━━━━━━━━━━━━━━━━"

type RenderOptions struct {
	FrontendURL  string
	MediaBaseURL string
}

var (
	transmissionLabels = map[string]string{
		"automatic": "Avtomat",
		"manual":    "Mexanika",
		"robot":     "Robot",
		"cvt":       "CVT",
	}
	fuelLabels = map[string]string{
		"petrol":        "Benzin",
		"diesel":        "Dizel",
		"electric":      "Elektr",
		"hybrid":        "Gibrid",
		"hybrid_plugin": "Plugin-Gibrid",
	}
	bodyLabels = map[string]string{
		"sedan":       "Sedan",
		"suv":         "SUV",
		"crossover":   "Krossover",
		"hatchback":   "Xetchbek",
		"coupe":       "Kupe",
		"wagon":       "Universal",
		"minivan":     "Minivan",
		"pickup":      "Pikap",
		"van":         "Furgon",
		"convertible": "Kabriolet",
		"other":       "Boshqa",
	}
	conditionLabels = map[string]string{
		"new":    "Yangi",
		"good":   "Yaxshi",
		"normal": "O'rtacha",
	}
)

var numbers = message.NewPrinter(language.English)

func label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return key
}

// Render builds the HTML post body for a listing. User supplied text is escaped.
func Render(l *entity.Listing, opts RenderOptions) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("🚗 <b>%s %s</b>", esc(l.Brand, 100), esc(l.Model, 100))
	line(divider)
	line("")
	if p := l.PriceValue(); p > 0 {
		line("💰 <b>Narxi: %s so'm</b>", numbers.Sprintf("%d", p))
	} else {
		line("💰 <b>Narxi: kelishiladi</b>")
	}
	line("")
	line("📅 Yili: <b>%d</b>", l.Year)
	line("📊 Probeg: <b>%s km</b>", numbers.Sprintf("%d", l.Mileage))
	line("⚙️ Korobka: <b>%s</b>", esc(label(transmissionLabels, l.Transmission), 50))
	line("⚡ Yoqilg'i: <b>%s</b>", esc(label(fuelLabels, l.FuelType), 50))
	if l.FuelType != "electric" && l.EngineVolume != nil && *l.EngineVolume > 0 {
		line("🔧 Dvigatel: <b>%sL</b>", strconv.FormatFloat(*l.EngineVolume, 'f', -1, 64))
	}
	if l.BodyType != "" {
		line("🚙 Kuzov: %s", esc(label(bodyLabels, l.BodyType), 50))
	}
	if l.Color != "" {
		line("🎨 Rangi: %s", esc(l.Color, 50))
	}
	line("")
	if l.Location != "" {
		line("📍 Manzil: <b>%s</b>", esc(l.Location, 120))
	}
	if l.Condition != "" {
		line("✨ Holati: %s", esc(label(conditionLabels, l.Condition), 50))
	}
	line("")
	line(divider)
	if l.Contact.Phone != "" {
		line("📞 <b>Telefon: %s</b>", esc(l.Contact.Phone, 40))
	}
	line("")
	b.WriteString(fmt.Sprintf(`🔗 <a href="%s">📱 Batafsil ma'lumot</a>`, html.EscapeString(ListingURL(opts.FrontendURL, l.ID))))

	return truncate(b.String(), CaptionLimit)
}

// ListingURL is the public page of a listing.
func ListingURL(frontendURL, id string) string {
	return strings.TrimRight(frontendURL, "/") + "/car/" + id
}

// PhotoURL returns an absolute URL for the listing's first image, or "" when it has
// none that Telegram could fetch.
func PhotoURL(l *entity.Listing, mediaBaseURL string) string {
	if len(l.Images) == 0 || l.Images[0] == "" {
		return ""
	}
	img := l.Images[0]
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	if mediaBaseURL == "" {
		return ""
	}
	return strings.TrimRight(mediaBaseURL, "/") + "/" + strings.TrimLeft(img, "/")
}

func esc(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max]) + "…"
	}
	return html.EscapeString(s)
}

// truncate cuts at a line boundary so no tag is left open.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
