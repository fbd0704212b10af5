/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// flags.go defines global CLI flags and accessors for shared state.
//
// Separated from root.go to isolate flag definitions from command logic.
//
// Design: Flags are defined as package-level variables and bound to the
// root command. Commands read them through accessor functions rather than
// directly, keeping flag storage an implementation detail. The credential
// flag supports "-" to prompt interactively without echo, so passphrases
// need not appear in shell history.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/jpl-au/markview/internal/document"
	"github.com/jpl-au/markview/internal/secret"
	"github.com/jpl-au/markview/internal/textenc"
	"golang.org/x/term"
)

var (
	password     string
	encodingName string
)

// out is the output writer for commands. Defaults to os.Stdout.
// Tests can replace this to capture output.
var out io.Writer = os.Stdout

// Out returns the output writer.
func Out() io.Writer { return out }

// SetOut sets the output writer (for testing).
func SetOut(w io.Writer) { out = w }

// Credential resolves the --password flag into a secret. An empty flag
// yields nil; "-" prompts on the terminal without echo.
func Credential() (*secret.Secret, error) {
	switch password {
	case "":
		return nil, nil
	case "-":
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		if len(raw) == 0 {
			return nil, nil
		}
		return secret.New(string(raw)), nil
	default:
		return secret.New(password), nil
	}
}

// EncodingOverride returns the --encoding flag value, with ok false when
// the flag was not given. Validity is checked in PersistentPreRunE.
func EncodingOverride() (textenc.Encoding, bool) {
	if encodingName == "" {
		return textenc.UTF8, false
	}
	enc, err := textenc.Parse(encodingName)
	if err != nil {
		return textenc.UTF8, false
	}
	return enc, true
}

// loadDocument loads path into doc honouring the global credential and
// encoding flags. BOM detection applies unless --encoding overrides it.
func loadDocument(doc *document.Document, path string, cred *secret.Secret) bool {
	if enc, ok := EncodingOverride(); ok {
		return doc.LoadWithEncoding(path, cred, enc)
	}
	return doc.LoadWithCredential(path, cred)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Credential for encrypted documents (use - to prompt)")
	rootCmd.PersistentFlags().StringVar(&encodingName, "encoding", "", "Output text encoding: utf-8, utf-8-bom, utf-16le, utf-16be")
}
