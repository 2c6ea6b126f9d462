package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// addInputFlags adds the flags selecting the input of a command.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "input document to compile")
	cmd.Flags().Bool("stdin", false, "read the input document from stdin")
}

// readInput returns the input document and its filename. There are three
// possible sources: --code, --stdin, or a path given as args[0].
func (a *app) readInput(cmd *cobra.Command, args []string) (string, string, error) {
	codeSet := cmd.Flags().Changed("code")
	stdinSet, _ := cmd.Flags().GetBool("stdin")
	pathSupplied := len(args) > 0

	count := 0
	for _, set := range []bool{codeSet, stdinSet, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", "", errors.New("multiple input sources specified")
	}
	if count == 0 {
		return "", "", errors.New("no input provided")
	}

	switch {
	case stdinSet:
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	}
	code, _ := cmd.Flags().GetString("code")
	return code, "", nil
}
