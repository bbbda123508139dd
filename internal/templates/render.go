package templates

type Rendered struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Render substitutes bindings into the template. Every declared variable and every
// placeholder must be bound; values are inserted verbatim, without escaping.
func Render(t Template, bindings map[string]string) (*Rendered, error) {
	for _, name := range t.Variables {
		if _, ok := bindings[name]; !ok {
			return nil, &MissingVariableError{Type: t.Type, Name: name}
		}
	}
	for _, name := range t.Placeholders() {
		if _, ok := bindings[name]; !ok {
			return nil, &MissingVariableError{Type: t.Type, Name: name}
		}
	}

	substitute := func(s string) string {
		return placeholderRegex.ReplaceAllStringFunc(s, func(token string) string {
			name := placeholderRegex.FindStringSubmatch(token)[1]
			return bindings[name]
		})
	}

	return &Rendered{
		Subject: substitute(t.Subject),
		HTML:    substitute(t.HTMLBody),
		Text:    substitute(t.TextBody),
	}, nil
}
