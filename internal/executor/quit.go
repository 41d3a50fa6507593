package executor

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"

	"tconsole/internal/command"
	tcerr "tconsole/internal/errors"
)

// Quit ends the session through the close protocol.  The -t flag sets
// a countdown in seconds; zero or a negative value closes at once.
//
//	quit
//	close -t3
//	exit --time=10
type Quit struct{}

// Help implements [Helper].
func (Quit) Help() string {
	return "close this session; -t N counts down N seconds first"
}

// Execute parses the countdown flag and hands over to the session's
// close protocol.  It returns no body: the session output is closed by
// the time it returns.
func (Quit) Execute(_ context.Context, sc Context, cmd *command.Command) (any, error) {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var after int
	fs.IntVarP(&after, "time", "t", 0, "seconds to wait before closing")

	if err := fs.Parse(cmd.Tokens); err != nil {
		return nil, tcerr.WrapCommand(cmd.Name, err)
	}
	return nil, sc.RequestClose(after)
}
