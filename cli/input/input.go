package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadWriter combines a reader and a writer, it's used to make a terminal.
type ReadWriter struct {
	io.Reader
	io.Writer
}

// Terminal is a terminal used for input. If `nil`, stdin is used.
var Terminal *term.Terminal

// ReadLine reads a line from the input without trailing '\n'.
func ReadLine(prompt string) (string, error) {
	if Terminal != nil {
		_, err := Terminal.Write([]byte(prompt))
		if err != nil {
			return "", err
		}
		raw, err := Terminal.ReadLine()
		return strings.TrimRight(raw, "\n"), err
	}
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// ReadPassword reads a secret with prompt without echoing it.
func ReadPassword(prompt string) (string, error) {
	if Terminal != nil {
		return Terminal.ReadPassword(prompt)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ReadLine(prompt)
	}
	fmt.Print(prompt)
	pass, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(pass), "\n"), nil
}

// Confirm asks for a confirmation before proceeding.
func Confirm(msg string) error {
	ln, err := ReadLine(msg + "\nConfirm (y/N)? ")
	if err != nil {
		return err
	}
	ln = strings.ToLower(strings.TrimSpace(ln))
	if len(ln) == 0 || ln[0] != 'y' {
		return fmt.Errorf("operation is cancelled")
	}
	return nil
}
