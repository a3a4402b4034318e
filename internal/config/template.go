package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"
)

// knownTemplateVars are the only variables a webhook body template may
// reference, matching internal/webhook.ChangeData's rendered shape.
var knownTemplateVars = map[string]bool{
	"adapter":   true,
	"address":   true,
	"kind":      true,
	"timestamp": true,
}

var mustacheTag = regexp.MustCompile(`\{\{\{?(.*?)\}?\}\}`)

// validateTemplateSyntax parses template without rendering it, so a
// malformed Handlebars body template is rejected at startup (ErrInvalidTemplate)
// rather than on the first webhook delivery attempt. It also rejects any
// referenced variable outside adapter, address, kind, and timestamp, since
// those are the only fields a rendered change ever carries.
func validateTemplateSyntax(template string) (*raymond.Template, error) {
	tpl, err := raymond.Parse(template)
	if err != nil {
		return nil, err
	}
	if err := validateTemplateVariables(template); err != nil {
		return nil, err
	}
	return tpl, nil
}

func validateTemplateVariables(template string) error {
	for _, match := range mustacheTag.FindAllStringSubmatch(template, -1) {
		inner := strings.TrimSpace(match[1])
		if inner == "" {
			continue
		}
		switch inner[0] {
		case '#', '/', '!', '>', '^', '&':
			continue
		}
		if inner == "else" {
			continue
		}

		fields := strings.Fields(inner)
		if len(fields) == 0 {
			continue
		}
		token := strings.TrimPrefix(fields[0], "this.")
		if idx := strings.IndexAny(token, ".[("); idx >= 0 {
			token = token[:idx]
		}
		token = strings.ToLower(token)
		if !knownTemplateVars[token] {
			return fmt.Errorf("template references unknown variable %q (allowed: adapter, address, kind, timestamp)", fields[0])
		}
	}
	return nil
}
