package loader

import (
	"os"
	"strings"
)

func expandEnv(value string, env []string) string {
	return os.Expand(value, func(name string) string {
		for _, e := range env {
			if after, ok := strings.CutPrefix(e, name+"="); ok {
				return after
			}
		}
		return ""
	})
}

// Expand interpolates ${VAR} / $VAR references in value against the process
// environment. It is the entry point the host orchestrator uses to apply
// §7.2's "all string fields undergo environment interpolation" rule.
func Expand(value string) string {
	return expandEnv(value, os.Environ())
}
