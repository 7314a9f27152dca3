package copygen

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
)

// Deterministic templates used whenever generation fails. These must always
// produce non-empty subject, body and impact so every persisted record has
// sendable content.
const fallbackBodyTpl = `
<p>Dear {{ .Salutation }},</p>

<p>
	Thank you so much for your donation of <strong>{{ .AmountDisplay }}</strong>.
	{{ .Impact }}
</p>

<p>With gratitude,<br>The Team</p>
`

type fallbackParams struct {
	Salutation    string
	AmountDisplay string
	Impact        string
}

var fallbackTemplate = template.Must(template.New("fallback-thank-you").Parse(fallbackBodyTpl))

// Fallback renders the templated subject/body/impact from donation facts.
func (g *AnthropicGenerator) Fallback(facts Facts) Copy {
	amountDisplay := FormatAmount(facts.Amount, facts.Currency)
	impact := facts.ImpactCopy
	if impact == "" {
		impact = fmt.Sprintf("Your gift of %s directly supports our work.", amountDisplay)
	}
	salutation := facts.Name
	if salutation == "" {
		salutation = "friend"
	}

	var buf bytes.Buffer
	err := fallbackTemplate.Execute(&buf, fallbackParams{
		Salutation:    salutation,
		AmountDisplay: amountDisplay,
		Impact:        impact,
	})
	if err != nil {
		// template.Must guarantees the template parses; execution over plain
		// strings cannot fail, but never return an empty body regardless.
		log.Printf("copygen.Fallback: template execute: %v", err)
		buf.Reset()
		fmt.Fprintf(&buf, "<p>Thank you for your donation of %s.</p>", amountDisplay)
	}

	return Copy{
		Subject: fmt.Sprintf("Thank you for your %s donation", amountDisplay),
		Body:    buf.String(),
		Impact:  impact,
	}
}
