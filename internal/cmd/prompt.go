package cmd

import (
	"bufio"
	"io"
	"strings"
)

// askYesNo reads a y/N answer from in, writing the question to out first.
// Any read failure or unrecognized answer counts as the default answer.
func askYesNo(out io.Writer, in io.Reader, question string, defaultYes bool) bool {
	suffix := "[y/N]"
	if defaultYes {
		suffix = "[Y/n]"
	}
	io.WriteString(out, question+" "+suffix+": ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && len(input) == 0 {
		return defaultYes
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultYes
	}
}

// askThreeWay reads a yes/no/cancel answer from in. Empty input and read
// failures resolve to cancel.
func askThreeWay(out io.Writer, in io.Reader, question string) string {
	io.WriteString(out, question+" [y/n/c]: ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && len(input) == 0 {
		return "cancel"
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return "yes"
	case "n", "no":
		return "no"
	default:
		return "cancel"
	}
}
