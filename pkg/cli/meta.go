package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// OperationTooltip renders the help text for one chain operation.
func OperationTooltip(c pipeline.OperationSpec) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(": ")
	if c.Description != "" {
		sb.WriteString(c.Description)
	} else {
		sb.WriteString("No description")
	}
	sb.WriteString("\n  usage: " + c.Usage)
	for _, a := range c.Args {
		req := "optional"
		if a.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("\n  - %s (%s, %s)", a.Name, a.Type, req))
		if a.Description != "" {
			sb.WriteString(": " + a.Description)
		}
		if a.Default != "" {
			sb.WriteString(" (default: " + a.Default + ")")
		}
	}
	return sb.String()
}

// StepTooltip renders the help text for one recipe step kind.
func StepTooltip(s StepSpec) string {
	return fmt.Sprintf("%s: %s\n  fields: %s", s.Name, s.Description, s.Fields)
}

// ParseFraction parses a threshold given either as a fraction ("0.25") or a percentage
// ("25%") and returns the fraction.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if raw, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percent value: %q", s)
		}
		return f / 100, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction: %q", s)
	}
	return f, nil
}

// parseBoolLike accepts common truthy and falsy spellings.
func parseBoolLike(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %q", s)
	}
}
