package classifier

import (
	"fmt"
	"strings"
)

const messageMarker = `Message: "`

// BuildPrompt renders the classification prompt for text. The message is
// always the final line so Keyword can locate it.
func BuildPrompt(c *Catalog, text string) string {
	var b strings.Builder
	b.WriteString("You are an HR assistant. Identify all HR-related intents from this message.\n")
	fmt.Fprintf(&b, "Possible intents: %s.\n", strings.Join(c.Names(), ", "))
	b.WriteString(`Respond strictly as JSON: { "intents": [...], "confidence": 0.0–1.0 }` + "\n")
	b.WriteString(messageMarker + text + `"`)
	return b.String()
}

// messageOf returns the user message embedded in a prompt built by
// BuildPrompt, or the whole prompt when no marker is present. The first
// marker is the one BuildPrompt wrote; later ones belong to the message.
func messageOf(prompt string) string {
	i := strings.Index(prompt, messageMarker)
	if i < 0 {
		return prompt
	}
	msg := prompt[i+len(messageMarker):]
	return strings.TrimSuffix(msg, `"`)
}
