package analyzer

import (
	"fmt"
	"strings"
)

// markerTag is the comment tag opening an exposure directive.
const markerTag = "@decorator"

// exposeDirective is the only directive name the scanner acts on; other
// directive names under the same tag are ignored.
const exposeDirective = "expose"

// Directive is a parsed exposure marker.
type Directive struct {
	Name      string
	Namespace string
	RawArgs   []string
}

// ParseMarker scans a comment's text for an exposure directive. The grammar
// is deliberately small: the literal tag, the directive name, then at most one
// whitespace-delimited namespace token. A recognized directive with trailing
// junk is rejected with an error so the caller can surface a warning instead
// of silently mis-reading the marker.
func ParseMarker(comment string) (Directive, bool, error) {
	for _, line := range strings.Split(comment, "\n") {
		tokens := strings.Fields(cleanCommentLine(line))
		if len(tokens) == 0 || tokens[0] != markerTag {
			continue
		}
		if len(tokens) < 2 {
			return Directive{}, false, fmt.Errorf("%s marker is missing a directive name", markerTag)
		}
		if tokens[1] != exposeDirective {
			// Unrecognized directive names are not ours to police.
			continue
		}

		args := tokens[2:]
		if len(args) > 1 {
			return Directive{}, false, fmt.Errorf("%s %s accepts at most one namespace argument, got %q", markerTag, exposeDirective, strings.Join(args, " "))
		}

		d := Directive{Name: exposeDirective, RawArgs: args}
		if len(args) == 1 {
			d.Namespace = args[0]
		}
		return d, true, nil
	}
	return Directive{}, false, nil
}

// cleanCommentLine strips comment punctuation so the marker grammar sees only
// tokens: leading //, /*, *, and trailing */.
func cleanCommentLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/**")
	line = strings.TrimPrefix(line, "/*")
	line = strings.TrimPrefix(line, "//")
	line = strings.TrimSuffix(line, "*/")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "*")
	return strings.TrimSpace(line)
}
