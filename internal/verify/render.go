package verify

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var levelPrefix = map[Level]string{
	LevelInfo:  "  ",
	LevelWarn:  "! ",
	LevelError: "x ",
}

// Render writes a human-readable report of res to w.
func Render(w io.Writer, res *Result) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "Document generation check for order %s\n%s\n", res.OrderID, rule)

	var last Stage
	for _, d := range res.Diagnostics {
		if d.Stage != last {
			fmt.Fprintf(&b, "\n[%s]\n", d.Stage)
			last = d.Stage
		}
		fmt.Fprintf(&b, "%s%s\n", levelPrefix[d.Level], d.Message)
	}

	if len(res.Documents) > 0 {
		b.WriteString("\nDocuments:\n")
		for _, doc := range res.Documents {
			pdf := doc.PDFURL
			if pdf == "" {
				pdf = "N/A"
			}
			generated := doc.GeneratedAt
			if t, ok := doc.GeneratedTime(); ok {
				generated = t.UTC().Format("2006-01-02 15:04:05 MST")
			} else if generated == "" {
				generated = "N/A"
			}
			fmt.Fprintf(&b, "  %s (%s)\n    template:  %s\n    generated: %s\n    pdf:       %s\n", doc.DocumentType, doc.State, doc.TemplateKey, generated, pdf)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	if res.Success {
		fmt.Fprintf(&b, "PASS: %d items, %d document(s), status %s\n", len(res.Items), len(res.Documents), res.FinalStatus)
	} else {
		fmt.Fprintf(&b, "FAIL at %s: %s\n", res.FailedStage, res.Error)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "%d warning(s)\n", len(res.Warnings))
	}
	fmt.Fprintf(&b, "run %s took %s\n", res.RunID, res.Duration().Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}
