package types

import (
	"errors"
	"strconv"
	"strings"
)

// TxnID identifies a transaction. Valid ids are positive.
type TxnID int

func (id TxnID) String() string {
	return "T" + strconv.Itoa(int(id))
}

// Item names a data item such as x or acct_1.
type Item string

type OperationType int

const (
	Read OperationType = iota
	Write
	Increment
	Decrement
	Commit
	Abort
)

var ErrUnknownOperationType = errors.New("unknown operation type")

// Token returns the prefix used for the operation in history text.
func (t OperationType) Token() string {
	switch t {
	case Read:
		return "r"
	case Write:
		return "w"
	case Increment:
		return "inc"
	case Decrement:
		return "dec"
	case Commit:
		return "c"
	case Abort:
		return "a"
	default:
		return "?"
	}
}

func (t OperationType) String() string {
	switch t {
	case Read:
		return "read"
	case Write:
		return "write"
	case Increment:
		return "increment"
	case Decrement:
		return "decrement"
	case Commit:
		return "commit"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// IsData reports whether operations of this type access a data item.
func (t OperationType) IsData() bool {
	return t == Read || t.IsWriteClass()
}

// IsWriteClass reports whether the type modifies its item. Increment and
// decrement count as writes for conflict purposes.
func (t OperationType) IsWriteClass() bool {
	return t == Write || t == Increment || t == Decrement
}

func (t OperationType) IsTerminal() bool {
	return t == Commit || t == Abort
}

// ParseOperationType accepts both the history token and the long name.
func ParseOperationType(value string) (OperationType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "r", "read":
		return Read, nil
	case "w", "write":
		return Write, nil
	case "inc", "increment":
		return Increment, nil
	case "dec", "decrement":
		return Decrement, nil
	case "c", "commit":
		return Commit, nil
	case "a", "abort":
		return Abort, nil
	default:
		return 0, ErrUnknownOperationType
	}
}
