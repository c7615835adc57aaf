package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter writes a label and reads one line of input.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask returns the next line without its line ending. io.EOF is returned only
// when the input is exhausted and nothing was read.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askParsed re-prompts until parse accepts the input.
func askParsed[T any](p *prompter, label, invalid string, parse func(string) (T, error)) (T, error) {
	for {
		line, err := p.ask(label)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(line)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(p.out, invalid)
	}
}
