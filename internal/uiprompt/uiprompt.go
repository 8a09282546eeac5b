// Package uiprompt turns agent output into a UI generation prompt and turns
// model output into a page a WebView can always render.
package uiprompt

import (
	"strings"

	"coderd/internal/engine"
)

// MaxTokens is the token budget used for UI generation.
const MaxTokens = 1024

const (
	placeholder = "{{agent_text}}"
	noAgentText = "No agent output provided."
)

const fullTemplate = "TASK: Turn the agent output into a production-quality, mobile-first GUI for a WebView.\n" +
	"\n" +
	"# runtime_config\n" +
	"{\n" +
	"  \"pattern_hint\": \"auto\",\n" +
	"  \"interaction_style\": \"tap\",\n" +
	"  \"javascript\": \"minimal\",\n" +
	"  \"theme\": { \"mode\": \"light\", \"brand_color\": \"#0EA5E9\" },\n" +
	"  \"i18n_locale\": \"en-IN\",\n" +
	"  \"host_actions\": [\"open_link\",\"call_contact\",\"pay_bill\",\"navigate\",\"retry\"]\n" +
	"}\n" +
	"\n" +
	"# agent_text\n" +
	placeholder + "\n" +
	"\n" +
	"# constraints\n" +
	"- Output only ONE ```html code block.\n" +
	"- Use only inline CSS/SVG; no external assets.\n" +
	"- Put data-action and, when helpful, data-payload JSON on all interactive elements."

const minimalTemplate = "Produce a mobile-friendly HTML UI inside a single ```html code block.\n" +
	"\n" +
	"# agent_text\n" +
	placeholder

// BuildPrompt fills the UI template with agentText. Blank text is replaced by
// a fixed notice so the model still gets a well-formed request.
func BuildPrompt(agentText string, minimal bool) string {
	if strings.TrimSpace(agentText) == "" {
		agentText = noAgentText
	}
	tmpl := fullTemplate
	if minimal {
		tmpl = minimalTemplate
	}
	return strings.ReplaceAll(tmpl, placeholder, agentText)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

const preWrapper = `<html>
<head>
    <meta charset="utf-8" />
    <style>
        body { font-family: sans-serif; padding: 16px; background-color: #FAFAFA; }
        pre { white-space: pre-wrap; word-break: break-word; }
    </style>
</head>
<body>
    <pre>%s</pre>
</body>
</html>`

// SanitizeHTML returns output unchanged when it already contains an <html>
// element (any case); otherwise it wraps the escaped text in a minimal page.
func SanitizeHTML(output string) string {
	if strings.Contains(strings.ToLower(output), "<html") {
		return output
	}
	return strings.Replace(preWrapper, "%s", htmlEscaper.Replace(output), 1)
}

// IsErrorOutput reports whether output is an engine failure text.
func IsErrorOutput(output string) bool { return engine.IsError(output) }
