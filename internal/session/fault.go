package session

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	tcerr "tconsole/internal/errors"
)

// faultTyper lets an error choose the identifier it is reported under.
type faultTyper interface {
	FaultType() string
}

// FaultType returns the identifier printed in front of a fault
// message: the error's own FaultType when it has one, otherwise its
// package-qualified Go type name with pointers stripped.
func FaultType(err error) string {
	if ft, ok := err.(faultTyper); ok {
		return ft.FaultType()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t.Name() == "":
		return t.String()
	case t.PkgPath() == "":
		return t.Name()
	default:
		return t.PkgPath() + "." + t.Name()
	}
}

// FormatFault renders err as console output.  The first line is
// "<type>: <message>"; each wrapped cause adds a "caused by" line and
// a recovered panic appends its stack.
func FormatFault(err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\r\n", FaultType(err), err.Error())

	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(&sb, "caused by %s: %s\r\n", FaultType(cause), cause.Error())
	}

	var pe *tcerr.PanicError
	if errors.As(err, &pe) && len(pe.Stack) > 0 {
		sb.Write(pe.Stack)
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\r\n")
		}
	}
	return sb.String()
}

// WriteFault writes the rendered fault in one Write.  Fault output is
// not framed.
func WriteFault(w io.Writer, err error) error {
	_, werr := io.WriteString(w, FormatFault(err))
	return werr
}
