package crosslink

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenPrefix versions the bootstrap token layout. A child built against a
// different layout rejects the token instead of misreading identities.
const tokenPrefix = "crosslink1"

const tokenFields = 6

// ChannelArgs carries everything a child needs to attach to a channel: the
// executable path and the identities of the four bundle primitives plus
// the slot size. The identities are only valid for the lifetime of the
// child they were created for and are delivered exactly once, on its
// command line.
type ChannelArgs struct {
	// Exe is the child executable path. It travels as its own argv
	// element, never inside the token, so path contents cannot collide
	// with the token syntax.
	Exe string

	// MemoryID, LockID, ReadyID, AckID are the primitive identities as
	// seen from inside the child.
	MemoryID int
	LockID   int
	ReadyID  int
	AckID    int

	// Size is the shared memory region size in bytes. Both sides must
	// agree on it; the creator declares it here.
	Size int
}

// Token serializes the primitive identities and slot size into a single
// argv token. The encoding is a pure function of the identities: no
// environment variable or file side channel is involved.
//
// All fields are decimal integers joined by semicolons, so the token
// contains no whitespace or quote characters and survives any command-line
// splitting rules unchanged.
func (a ChannelArgs) Token() string {
	return fmt.Sprintf("%s;%d;%d;%d;%d;%d",
		tokenPrefix, a.MemoryID, a.LockID, a.ReadyID, a.AckID, a.Size)
}

// Argv returns the full child argument vector: the executable path
// followed by the bootstrap token.
func (a ChannelArgs) Argv() []string {
	return []string{a.Exe, a.Token()}
}

// ParseToken decodes a bootstrap token produced by Token. The Exe field of
// the result is left empty; a child that needs it already knows its own
// argv[0].
func ParseToken(tok string) (ChannelArgs, error) {
	parts := strings.Split(tok, ";")
	if len(parts) != tokenFields || parts[0] != tokenPrefix {
		return ChannelArgs{}, chanErr("parse token", "not a crosslink bootstrap token")
	}
	vals := make([]int, 0, tokenFields-1)
	for _, p := range parts[1:] {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return ChannelArgs{}, chanErr("parse token", "malformed identity field "+strconv.Quote(p))
		}
		vals = append(vals, v)
	}
	args := ChannelArgs{
		MemoryID: vals[0],
		LockID:   vals[1],
		ReadyID:  vals[2],
		AckID:    vals[3],
		Size:     vals[4],
	}
	if args.Size == 0 {
		return ChannelArgs{}, chanErr("parse token", "zero slot size")
	}
	return args, nil
}

// FindToken scans an argument vector for a bootstrap token and decodes the
// first one found. It reports false if no argument parses as a token.
func FindToken(argv []string) (ChannelArgs, bool) {
	for _, arg := range argv {
		if !strings.HasPrefix(arg, tokenPrefix+";") {
			continue
		}
		if args, err := ParseToken(arg); err == nil {
			return args, true
		}
	}
	return ChannelArgs{}, false
}
