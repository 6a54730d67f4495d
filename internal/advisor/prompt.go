package advisor

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompts/suggest_decision.txt
var suggestDecisionPrompt string

//go:embed prompts/system.txt
var systemPrompt string

var (
	suggestTmpl = template.Must(template.New("suggest_decision").Parse(suggestDecisionPrompt))
	systemTmpl  = template.Must(template.New("system").Parse(systemPrompt))
)

// BuildPrompt renders the suggestion prompt for req.
func BuildPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := suggestTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SystemInstruction renders the assistant persona.
func SystemInstruction(assistantName string) string {
	var buf bytes.Buffer
	if err := systemTmpl.Execute(&buf, assistantName); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
