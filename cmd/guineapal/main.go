// Command guineapal manages guinea pig care records stored on the local
// machine.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := newCLI().execute(args); err != nil {
		fmt.Fprintln(os.Stderr, "guineapal:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// userErrors are the failures caused by the request rather than the
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidPet,
	types.ErrDuplicateID,
	types.ErrPetNotFound,
	types.ErrInvalidDate,
	types.ErrInvalidRange,
	types.ErrSelfRelation,
	types.ErrSlotOccupied,
	types.ErrIneligible,
	types.ErrUnknownRelation,
	types.ErrRelationNotLinked,
	types.ErrNoAccount,
	types.ErrIncorrectPassword,
	types.ErrEmailTaken,
	types.ErrUsernameTaken,
	types.ErrPasswordMismatch,
	types.ErrMissingField,
	types.ErrNotAuthenticated,
	types.ErrEmptyPost,
	types.ErrEmptyComment,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrSecretsUnknown,
	types.ErrDSNRequired,
}

// usageError marks bad arguments or flags.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	// cobra reports unknown subcommands and missing flags as plain errors.
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag") {
		return exitUserError
	}
	return exitSysError
}
