package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrNotANumber = errors.New("not a number")

// Input reads whitespace-separated tokens, writing a prompt before each.
type Input struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewInput(r io.Reader, out io.Writer) *Input {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	return &Input{scanner: scanner, out: out}
}

// Word returns the next token, or io.EOF once input is exhausted.
func (in *Input) Word(prompt string) (string, error) {
	fmt.Fprint(in.out, prompt)
	if !in.scanner.Scan() {
		if err := in.scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return in.scanner.Text(), nil
}

func (in *Input) Int(prompt string) (int, error) {
	word, err := in.Word(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(word)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", word, ErrNotANumber)
	}
	return n, nil
}

// ReadCapacity prompts until it gets a non-negative slot count.
func ReadCapacity(in *Input) (int, error) {
	for {
		n, err := in.Int("Enter the total number of parking slots: ")
		if errors.Is(err, ErrNotANumber) || (err == nil && n < 0) {
			fmt.Fprintln(in.out, "Invalid slot count, enter a whole number of 0 or more.")
			continue
		}
		return n, err
	}
}
