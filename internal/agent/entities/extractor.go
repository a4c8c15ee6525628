// Package entities extracts stock ticker symbols from free-form user text.
package entities

import (
	"regexp"
	"strings"
)

// symbolPattern matches candidate ticker tokens: 1 to 5 uppercase letters,
// optionally prefixed with $.
var symbolPattern = regexp.MustCompile(`\$?\b[A-Z]{1,5}\b`)

// companyNames maps well-known company names to their primary listing.
// Lookup is case-insensitive on whole words.
var companyNames = map[string]string{
	"apple":      "AAPL",
	"microsoft":  "MSFT",
	"google":     "GOOGL",
	"alphabet":   "GOOGL",
	"amazon":     "AMZN",
	"tesla":      "TSLA",
	"nvidia":     "NVDA",
	"meta":       "META",
	"facebook":   "META",
	"netflix":    "NFLX",
	"intel":      "INTC",
	"amd":        "AMD",
	"salesforce": "CRM",
	"oracle":     "ORCL",
	"ibm":        "IBM",
	"disney":     "DIS",
	"boeing":     "BA",
	"visa":       "V",
	"mastercard": "MA",
	"paypal":     "PYPL",
	"airbnb":     "ABNB",
	"uber":       "UBER",
	"shopify":    "SHOP",
	"palantir":   "PLTR",
	"lvmh":       "MC.PA",
	"totalenergies": "TTE.PA",
	"airbus":     "AIR.PA",
	"sanofi":     "SAN.PA",
}

// commonWords are uppercase tokens that look like tickers but almost never
// are one in conversational text. Tokens here are only accepted with an
// explicit $ prefix.
var commonWords = map[string]struct{}{
	"A": {}, "I": {}, "AN": {}, "THE": {}, "AND": {}, "OR": {}, "BUT": {},
	"FOR": {}, "TO": {}, "OF": {}, "IN": {}, "ON": {}, "AT": {}, "BY": {},
	"IS": {}, "IT": {}, "BE": {}, "DO": {}, "GO": {}, "SO": {}, "UP": {},
	"ME": {}, "MY": {}, "WE": {}, "US": {}, "OK": {}, "NO": {}, "YES": {},
	"CAN": {}, "NOW": {}, "NEW": {}, "ALL": {}, "ANY": {}, "NOT": {},
	"WHAT": {}, "WHEN": {}, "WHY": {}, "HOW": {}, "WHO": {}, "THIS": {},
	"THAT": {}, "WITH": {}, "FROM": {}, "ETF": {}, "CEO": {}, "IPO": {},
	"USA": {}, "USD": {}, "EUR": {}, "API": {}, "FAQ": {}, "GDP": {},
	"RSI": {}, "EPS": {}, "SMS": {}, "AI": {}, "PE": {}, "YTD": {},
	"ET": {}, "LE": {}, "LA": {}, "LES": {}, "DE": {}, "DU": {}, "UN": {},
	"UNE": {}, "EST": {}, "SUR": {}, "QUE": {}, "QUOI": {}, "OUI": {},
}

// Options tunes extraction behaviour per call site.
type Options struct {
	// Strict drops bare uppercase candidates shorter than 2 characters
	// unless they carry a $ prefix or match a known company name.
	Strict bool
	// MaxSymbols caps the result; zero means no cap.
	MaxSymbols int
}

// Extract returns ticker symbols found in text, in first-mention order with
// duplicates removed. It never errors: unparseable text yields nil.
func Extract(text string, opts Options) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	seen := map[string]struct{}{}
	add := func(sym string) {
		if _, dup := seen[sym]; dup {
			return
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}

	// Company names first so "Apple" wins over any stray uppercase token.
	// Scanning the text word by word keeps the result order deterministic.
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if sym, ok := companyNames[word]; ok {
			add(sym)
		}
	}

	for _, raw := range symbolPattern.FindAllString(text, -1) {
		prefixed := strings.HasPrefix(raw, "$")
		sym := strings.TrimPrefix(raw, "$")
		if !prefixed {
			if _, common := commonWords[sym]; common {
				continue
			}
			if opts.Strict && len(sym) < 2 {
				continue
			}
		}
		add(sym)
	}

	if opts.MaxSymbols > 0 && len(out) > opts.MaxSymbols {
		out = out[:opts.MaxSymbols]
	}
	return out
}

