package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

var (
	ErrUnrecognizedSystemOperation        = errors.New("unrecognized system operation")
	ErrUnrecognizedConfigurationOperation = errors.New("unrecognized configuration operation")
)

const (
	descriptionWidth  = 72
	descriptionIndent = 4
)

// DescriptionText describes what the step will do with the given values:
// the system operation, the configuration operation, and which system and
// configuration later steps will use.
func DescriptionText(v Values) (string, error) {
	var b strings.Builder

	op := v[KeySystemOperation]
	switch {
	case IsExpr(op):
		fmt.Fprintf(&b, "The value of '%s' will determine whether a new system will be "+
			"created or copied, or if we switch to another existing system.", op)
	case strings.Contains(op, "create"):
		if v[KeySystemName] == DefaultName {
			b.WriteString("A new system will be created, using the default name.")
		} else {
			fmt.Fprintf(&b, "A new system named '%s' will be created.", v[KeySystemName])
		}
	case strings.Contains(op, "copy"):
		if v[KeySystemName] == DefaultName {
			fmt.Fprintf(&b, "A new system named with the default name will be created "+
				"by copying the system '%s'.", v[KeySystemToCopy])
		} else {
			fmt.Fprintf(&b, "A new system named '%s' will be created by copying the system '%s'.",
				v[KeySystemName], v[KeySystemToCopy])
		}
	case !strings.Contains(op, "use"):
		return "", fmt.Errorf("%w %q", ErrUnrecognizedSystemOperation, op)
	}

	b.WriteString("\n")
	op = v[KeyConfigurationOperation]
	switch {
	case IsExpr(op):
		fmt.Fprintf(&b, "The value of '%s' will determine whether a new configuration will be "+
			"created or copied, or if we switch to another existing configuration.", op)
	case strings.Contains(op, "create"):
		if v[KeyConfigurationName] == DefaultName {
			b.WriteString("A new configuration will be created, using the default name.")
		} else {
			fmt.Fprintf(&b, "A new configuration named '%s' will be created.", v[KeyConfigurationName])
		}
	case strings.Contains(op, "copy"):
		if v[KeyConfigurationName] == DefaultName {
			fmt.Fprintf(&b, "A new configuration named with the default name will be created "+
				"by copying the configuration '%s'.", v[KeyConfigurationToCopy])
		} else {
			fmt.Fprintf(&b, "A new configuration named '%s' will be created by copying the configuration '%s'.",
				v[KeyConfigurationName], v[KeyConfigurationToCopy])
		}
	case !strings.Contains(op, "use"):
		return "", fmt.Errorf("%w %q", ErrUnrecognizedConfigurationOperation, op)
	}

	switch sys := v[KeySystem]; sys {
	case Current:
		b.WriteString(" Subsequent steps will continue to use the current system")
	case NewRef:
		b.WriteString(" Subsequent steps will use the newly created system")
	default:
		fmt.Fprintf(&b, " Subsequent steps will use the system '%s'", sys)
	}

	switch conf := v[KeyConfiguration]; conf {
	case Current:
		b.WriteString(" and current configuration.")
	case NewRef:
		b.WriteString(" and the newly created configuration.")
	default:
		fmt.Fprintf(&b, " and the configuration '%s'.", conf)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// formatText wraps each line of text and indents the result.
func formatText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = wordwrap.String(line, descriptionWidth-descriptionIndent)
	}
	return indent.String(strings.Join(lines, "\n"), descriptionIndent)
}
