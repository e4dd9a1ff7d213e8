package host

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// WarnFormatter returns a Sprintf-shaped formatter that colors its output
// yellow when stderr is a terminal, and passes text through unstyled
// otherwise (so redirected logs stay plain text).
func WarnFormatter() func(string, ...any) string {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return color.New(color.FgYellow).Sprintf
	}
	return fmt.Sprintf
}
