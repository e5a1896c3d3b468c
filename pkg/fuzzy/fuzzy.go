package fuzzy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Option represents a selectable option in the fuzzy finder
type Option struct {
	Value       string
	Description string
}

// Finder is a plain numbered selector. It is the fallback when fzf
// cannot run, for example when stdin is not a terminal.
type Finder struct {
	prompt  string
	options []Option
	in      io.Reader
	out     io.Writer
}

// New creates a new finder with the given prompt, reading selections
// from stdin.
func New(prompt string) *Finder {
	return NewWithIO(prompt, os.Stdin, os.Stdout)
}

// NewWithIO creates a finder bound to explicit streams.
func NewWithIO(prompt string, in io.Reader, out io.Writer) *Finder {
	return &Finder{
		prompt:  prompt,
		options: make([]Option, 0),
		in:      in,
		out:     out,
	}
}

// AddOption adds an option to the finder
func (f *Finder) AddOption(value, description string) {
	f.options = append(f.options, Option{
		Value:       value,
		Description: description,
	})
}

// SetOptions replaces the option list
func (f *Finder) SetOptions(options []Option) {
	f.options = make([]Option, len(options))
	copy(f.options, options)
}

// GetOptions returns all available options
func (f *Finder) GetOptions() []Option {
	return f.options
}

// SetPrompt updates the prompt message
func (f *Finder) SetPrompt(prompt string) {
	f.prompt = prompt
}

func (f *Finder) printOptions() {
	fmt.Fprintln(f.out, f.prompt)
	fmt.Fprintln(f.out, strings.Repeat("-", len(f.prompt)))

	for i, option := range f.options {
		fmt.Fprintf(f.out, "%d. %s", i+1, option.Value)
		if option.Description != "" {
			fmt.Fprintf(f.out, " - %s", option.Description)
		}
		fmt.Fprintln(f.out)
	}
}

// Select displays options and lets the user pick one by number
func (f *Finder) Select() (string, error) {
	if len(f.options) == 0 {
		return "", fmt.Errorf("no options available")
	}

	f.printOptions()
	fmt.Fprintf(f.out, "\nSelect option (1-%d): ", len(f.options))

	reader := bufio.NewReader(f.in)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	selection, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("invalid selection: %s", input)
	}

	if selection < 1 || selection > len(f.options) {
		return "", fmt.Errorf("selection out of range: %d", selection)
	}

	return f.options[selection-1].Value, nil
}

// SelectMany displays options and lets the user pick several by number,
// comma or space separated. "all" selects everything.
func (f *Finder) SelectMany() ([]string, error) {
	if len(f.options) == 0 {
		return nil, fmt.Errorf("no options available")
	}

	f.printOptions()
	fmt.Fprintf(f.out, "\nSelect options (e.g. 1,3 or 'all'): ")

	reader := bufio.NewReader(f.in)
	input, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("no selection made")
	}
	if strings.EqualFold(input, "all") || input == "*" {
		values := make([]string, len(f.options))
		for i, option := range f.options {
			values[i] = option.Value
		}
		return values, nil
	}

	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	var values []string
	seen := make(map[int]bool)
	for _, field := range fields {
		selection, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid selection: %s", field)
		}
		if selection < 1 || selection > len(f.options) {
			return nil, fmt.Errorf("selection out of range: %d", selection)
		}
		if seen[selection] {
			continue
		}
		seen[selection] = true
		values = append(values, f.options[selection-1].Value)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no selection made")
	}
	return values, nil
}
