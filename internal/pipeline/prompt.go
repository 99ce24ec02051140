package pipeline

import (
	"fmt"
	"strings"
)

// renderSystemPrompt builds the agent persona for a stage from its role,
// goal and backstory. Job inputs are interpolated into all three.
func renderSystemPrompt(stage Stage, inputs map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", interpolate(stage.Role, inputs))
	if stage.Goal != "" {
		fmt.Fprintf(&b, "\nYour goal: %s", interpolate(stage.Goal, inputs))
	}
	if stage.Backstory != "" {
		fmt.Fprintf(&b, "\nBackground: %s", interpolate(stage.Backstory, inputs))
	}
	return b.String()
}

// renderUserPrompt interpolates job inputs into the stage prompt, prepends
// the outputs of dependency stages as context, and appends the structured
// output instruction when the stage declares a schema.
func renderUserPrompt(stage Stage, inputs map[string]string, outputs map[string]string) string {
	var b strings.Builder

	for _, dep := range stage.DependsOn {
		if out, ok := outputs[dep]; ok {
			fmt.Fprintf(&b, "Context from %q:\n%s\n\n", dep, out)
		}
	}

	b.WriteString(interpolate(stage.Prompt, inputs))

	if stage.Output != nil && len(stage.Output.Fields) > 0 {
		b.WriteString("\n\nRespond with a single JSON object with these fields:\n")
		for _, f := range stage.Output.Fields {
			fmt.Fprintf(&b, "- %q: %s\n", f.Name, f.Description)
		}
	}

	return b.String()
}

// interpolate replaces {key} placeholders with job input values.
func interpolate(s string, inputs map[string]string) string {
	for key, val := range inputs {
		s = strings.ReplaceAll(s, "{"+key+"}", val)
	}
	return s
}
