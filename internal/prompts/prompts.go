package prompts

import (
	_ "embed"
	"errors"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/sant0-9/promptfmt/internal/formats"
	"github.com/sant0-9/promptfmt/internal/parser"
)

// SystemInstruction is the fixed behavioural directive sent with every
// conversion request.
//
//go:embed system.md
var SystemInstruction string

//go:embed convert.tmpl
var convertTemplate string

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoFormats   = errors.New("no formats selected")
)

// ContextStyles are the tone labels offered to the user.
var ContextStyles = []string{
	"Professional",
	"Formal",
	"Corporate",
	"Authoritative",
	"Technical",
	"Business-like",
	"Objective",
	"Conversational",
	"Creative",
	"Concise",
}

// DefaultContextStyle is used when no style is chosen.
const DefaultContextStyle = "Professional"

// ExamplePrompt is offered to users who want to try the tool quickly.
const ExamplePrompt = "I have three users: (1, Alice, admin), (2, Bob, user), (3, Charlie, guest). Convert this data into structured formats."

var convertTmpl = template.Must(template.New("convert").Funcs(sprig.TxtFuncMap()).Parse(convertTemplate))

type convertData struct {
	Formats           []formats.Spec
	Custom            []formats.Spec
	Style             string
	Prompt            string
	HeaderMarker      string
	DescriptionMarker string
}

// Assemble builds the instruction text for one conversion request. The
// prompt is embedded verbatim; active formats are listed in the given order.
func Assemble(userPrompt string, active []formats.Spec, style string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", ErrEmptyPrompt
	}
	if len(active) == 0 {
		return "", ErrNoFormats
	}
	if strings.TrimSpace(style) == "" {
		style = DefaultContextStyle
	}

	data := convertData{
		Formats:           active,
		Style:             style,
		Prompt:            userPrompt,
		HeaderMarker:      parser.HeaderMarker,
		DescriptionMarker: parser.DescriptionMarker,
	}
	for _, f := range active {
		if f.HasInstructions() {
			data.Custom = append(data.Custom, f)
		}
	}

	var b strings.Builder
	if err := convertTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// IsContextStyle reports whether style is one of ContextStyles, ignoring case.
func IsContextStyle(style string) bool {
	for _, s := range ContextStyles {
		if strings.EqualFold(s, style) {
			return true
		}
	}
	return false
}
