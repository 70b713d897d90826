// Package prompt abstracts the interactive confirmations that gate device and
// location registration, so batch callers can answer by policy instead of
// blocking on a console.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers the questions the row locator asks.
type Confirmer interface {
	Confirm(question string) (bool, error)
	PromptText(question string) (string, error)
}

// Console asks over an interactive terminal. Confirm keeps re-asking until it
// gets an s/n answer, matching how operators are used to the workflow.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) Confirm(question string) (bool, error) {
	for {
		fmt.Fprintf(c.out, "%s (s/n): ", question)
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("read answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s":
			return true, nil
		case "n":
			return false, nil
		}
		fmt.Fprintln(c.out, "Respuesta inválida. Introduce 's' o 'n'.")
	}
}

func (c *Console) PromptText(question string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Policy answers without a human: confirmations resolve to fixed booleans and
// text prompts to pre-supplied values. Used by the HTTP surface and tests.
type Policy struct {
	AllowNewDevice   bool
	AllowNewLocation bool
	Answers          map[string]string // question substring -> answer
}

func (p Policy) Confirm(question string) (bool, error) {
	// The locator asks exactly two things: registering a device or creating a
	// location sheet. The latter always mentions the sheet ("hoja").
	if strings.Contains(question, "hoja") {
		return p.AllowNewLocation, nil
	}
	return p.AllowNewDevice, nil
}

func (p Policy) PromptText(question string) (string, error) {
	for key, answer := range p.Answers {
		if strings.Contains(question, key) {
			return answer, nil
		}
	}
	return "", nil
}
