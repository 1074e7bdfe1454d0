// Package parser extracts format renderings from free-form model output.
//
// The model is asked to lay out every rendering as
//
//	🧩 JSON (JavaScript Object Notation)
//	💡 Best For: APIs, programming, structured data transfer.
//	```json
//	{ ... }
//	```
//
// The two emoji act as record boundaries. Anything that does not fit the
// layout is dropped.
package parser

import (
	"regexp"
	"strings"
)

const (
	// HeaderMarker precedes the format title line.
	HeaderMarker = "🧩"
	// DescriptionMarker precedes the one-line description.
	DescriptionMarker = "💡"

	fence = "```"
)

// Record is one parsed rendering.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Code        string `json:"code"`
}

var (
	// title with a parenthesised subtitle, as used for predefined formats
	strictPattern = regexp.MustCompile(HeaderMarker + `\s(.*?)\s\((.*?)\)\n` + DescriptionMarker + `\s(.*?)\n` + fence + `(\w*)\n([\s\S]*?)` + fence)

	// bare title, as custom formats usually come back
	fallbackPattern = regexp.MustCompile(HeaderMarker + `\s(.*?)\n` + DescriptionMarker + `\s(.*?)\n` + fence + `(\w*)\n([\s\S]*?)` + fence)
)

// Parse returns the records found in raw, in order of appearance. It never
// fails; text with no recognisable records yields an empty slice.
//
// The relaxed pattern is only tried when the strict one matches nothing, so a
// response mixing both layouts keeps only the strict matches.
//
// Whitespace after a marker must be ASCII (a non-breaking space does not
// count) and lines must end in a bare \n, so CRLF text yields no records.
func Parse(raw string) []Record {
	records := []Record{}

	for _, m := range strictPattern.FindAllStringSubmatch(raw, -1) {
		records = append(records, newRecord(m[1]+" ("+m[2]+")", m[3], m[4], m[5]))
	}

	if len(records) == 0 && strings.Contains(raw, fence) {
		for _, m := range fallbackPattern.FindAllStringSubmatch(raw, -1) {
			records = append(records, newRecord(m[1], m[2], m[3], m[4]))
		}
	}

	return records
}

func newRecord(title, description, lang, code string) Record {
	lang = strings.ToLower(lang)
	if lang == "" {
		lang = "text"
	}
	return Record{
		Title:       title,
		Description: description,
		Language:    lang,
		Code:        strings.TrimSpace(code),
	}
}
