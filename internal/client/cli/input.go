package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// maxPromptAttempts bounds how often a required field is asked for.
const maxPromptAttempts = 3

var (
	ErrEmptyInput       = errors.New("value must not be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// GetSimpleText writes "prompt\n> " to w and returns the next line from
// reader without surrounding whitespace. A final line without a newline is
// accepted.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetRequiredText asks for prompt until a non-empty answer is given, at most
// maxPromptAttempts times.
func GetRequiredText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	for i := 0; i < maxPromptAttempts; i++ {
		s, err := GetSimpleText(reader, prompt, w)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		fmt.Fprintln(w, "This field is required.")
	}
	return "", fmt.Errorf("%s: %w", prompt, ErrEmptyInput)
}

func readSecret(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetPassword reads a password from the terminal without echo. The caller
// owns the returned slice and should wipe it.
func GetPassword(w io.Writer) ([]byte, error) {
	pw, err := readSecret(w, "Enter password: ")
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, ErrEmptyInput
	}
	return pw, nil
}

// GetNewPassword reads a password twice and fails when the two differ.
func GetNewPassword(w io.Writer) ([]byte, error) {
	pw, err := GetPassword(w)
	if err != nil {
		return nil, err
	}
	again, err := readSecret(w, "Repeat password: ")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}

// GetMultiline reads lines until an empty one and joins them with '\n'.
// Used for post bodies.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if line == "" || err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
