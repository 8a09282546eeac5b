package engine

import "strings"

const (
	imStart = "<|im_start|>"
	imEnd   = "<|im_end|>"
)

// System prompt presets selectable from configuration.
const (
	PresetShort = "short"
	PresetLong  = "long"
)

// ShortSystemPrompt is the default system instruction.
const ShortSystemPrompt = "You are an expert front-end engineer producing accessible HTML/CSS."

// LongSystemPrompt gives the model the full set of HTML UI rules.
const LongSystemPrompt = `You are TEXT2UI-CODER. Transform agent/assistant text into a single, self-contained, mobile-first HTML document suitable for rendering in a WebView.

REQUIRED OUTPUT
- Return ONE fenced code block: ` + "```html ... ```" + `
- Full HTML5 doc with <meta name="viewport" content="width=device-width,initial-scale=1">
- Only inline CSS (one <style>). Optional tiny inline <script> (≤25 lines). No external assets, fonts, CDNs, or frameworks.

ACCESSIBILITY & MOBILE
- Semantic tags; touch targets ≥44px; high contrast; keyboard focusable.
- Respect prefers-reduced-motion.
- Support light/dark via [data-theme] on <html>.

THEME TOKENS
- Define on :root: --brand, --bg, --fg, --muted, --card, --border, --success, --warning, --danger, --radius:16px, --shadow:0 2px 10px rgba(0,0,0,.08).

INTERACTIONS & HOST BRIDGE
- Every actionable element MUST include data-action="..." and, when useful, data-payload='{"k":"v"}'.
- If JS is allowed: bind click/submit to post a JSON message:
  const msg={action, payload}; window?.ReactNativeWebView?.postMessage(JSON.stringify(msg)) || window?.parent?.postMessage(msg,"*");

PATTERN PICKER (choose what fits agent_text)
- info card, list (with search/filter), table, key-value details, form, confirm/modal, wizard/stepper, calendar/agenda, timeline, receipt/ticket, chart (inline SVG), media (audio/video), map/place (static placeholder), toast/alert, empty, loading skeleton.
- If "interaction_style":"swipe", render a swipe-to-confirm with accessible fallback button.

STATES
- Empty → friendly illustration (inline SVG) + primary action.
- Error → inline error card + “Retry”.
- Loading → skeletons.

CONSTRAINTS
- Keep concise (<400 lines). No network calls. Keep all interactive flows paired with cancel.
- Validate forms; label inputs; include placeholders and required marks.

FINAL CHECK
- Valid HTML5, responsive down to 360px, balanced spacing, all actions carry data-action.`

// SystemPromptForPreset maps a preset name to its instruction. Unknown names
// fall back to the short preset.
func SystemPromptForPreset(name string) string {
	if strings.EqualFold(strings.TrimSpace(name), PresetLong) {
		return LongSystemPrompt
	}
	return ShortSystemPrompt
}

// FormatPrompt wraps user in the chat template. Prompts that already contain
// a turn marker are returned unchanged.
func FormatPrompt(system, user string) string {
	if strings.Contains(user, imStart) {
		return user
	}
	var b strings.Builder
	b.Grow(len(system) + len(user) + 80)
	b.WriteString(imStart + "system\n")
	b.WriteString(system)
	b.WriteString("\n" + imEnd + "\n" + imStart + "user\n")
	b.WriteString(user)
	b.WriteString("\n" + imEnd + "\n" + imStart + "assistant\n")
	return b.String()
}
