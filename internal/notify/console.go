package notify

import (
	"fmt"
	"io"
	"strings"
)

// consoleChannel is the terminal fallback. Printing cannot meaningfully
// fail, so it sits outside the Channel chain and always "delivers".
type consoleChannel struct {
	out io.Writer
}

func (c consoleChannel) print(msg Message) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, rule)
	fmt.Fprintf(c.out, "%s - %s\n", msg.Title, msg.Severity)
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, msg.Summary)
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out)
}
