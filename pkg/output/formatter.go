package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ritzau/patchc/pkg/compile"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/settings"
)

// PrintCompileReport prints a coloured summary of a compilation of source.
// The report goes to w so that generated code can own stdout.
func PrintCompileReport(w io.Writer, source string, res compile.Result) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintf(w, "patchc: %s\n", source)

	if !res.OK() {
		red.Fprintf(w, "✗ Compilation failed in %s\n", res.FailedIn)
		yellow.Fprintf(w, "  %v\n", res.Err)
		if hint := suggestion(res.Err); hint != "" {
			cyan.Fprintf(w, "  Suggestion: %s\n", hint)
		}
		return
	}

	s := res.Stats
	fmt.Fprintf(w, "Target: %s\n", s.Target)
	fmt.Fprintf(w, "Nodes: %d (%d live, %d trimmed)\n", s.Nodes, s.LiveNodes, s.Nodes-s.LiveNodes)
	fmt.Fprintf(w, "Audio loop: %d node(s), %d inlined\n", s.HotNodes, s.InlinedNodes)
	fmt.Fprintf(w, "Message senders: %d\n", s.Senders)
	if s.Nodes > s.LiveNodes {
		yellow.Fprintf(w, "  %d node(s) not connected to any output were dropped\n", s.Nodes-s.LiveNodes)
	}
	green.Fprintf(w, "✓ Generated %d bytes in %s (compile %s)\n", len(res.Code), s.Duration.Round(time.Microsecond), shortID(res.ID))
}

// suggestion returns a hint for the errors users can fix in their patch.
func suggestion(err error) string {
	var (
		cfgErr   *settings.ConfigurationError
		graphErr *model.ValidationError
		capErr   *node.UnimplementedCapabilityError
	)
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("check the %q setting", cfgErr.Field)
	case errors.As(err, &graphErr) && strings.Contains(graphErr.Reason, "feedback"):
		return "break the signal loop, signal connections must not form a cycle"
	case errors.As(err, &graphErr):
		return "fix the patch structure"
	case errors.As(err, &capErr) && capErr.Reason == "unknown node type":
		return "use one of the types listed by --list-nodes"
	case errors.As(err, &capErr):
		return fmt.Sprintf("node type %q cannot be used this way", capErr.NodeType)
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
