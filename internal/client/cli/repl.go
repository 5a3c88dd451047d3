package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/facevote/internal/client/workflow"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	state() workflow.State
	Start(ctx context.Context) error
	Vote(ctx context.Context, candidate string) error
	Retry(ctx context.Context) error
	Abandon(ctx context.Context) error
	NewSession(ctx context.Context) error
	Status(ctx context.Context) error
	Receipts(ctx context.Context) error
}

// helpText lists the commands that make sense in state s.
func helpText(s workflow.State) string {
	switch s {
	case workflow.Idle:
		return "Available commands: start, status, receipts, exit"
	case workflow.Voting:
		return "Available commands: vote <candidate>, status, abandon, exit"
	case workflow.Failed:
		return "Available commands: retry, abandon, status, exit"
	case workflow.Complete:
		return "Available commands: new, status, receipts, exit"
	default:
		return "Please wait, an operation is in progress. Available commands: status, exit"
	}
}

// runREPL starts a simple read–eval–print loop for the facevote CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
// When statusFn is nil no prompt is printed, which suits piped input.
//
// Commands
//
//	help             show the commands available in the current state
//	start            authenticate and check eligibility
//	vote <candidate> cast a ballot
//	retry            leave the failed state
//	abandon          drop the session and start over
//	new              begin a new session after a completed vote
//	status           show the session
//	receipts         list locally stored receipts
//	exit | quit      leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if statusFn != nil {
			printlnFn(fmt.Sprintf("facevote %s> ", statusFn()))
		}
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText(a.state()))

		case "start":
			_ = a.Start(ctx)

		case "vote":
			if len(args) == 0 {
				printlnFn("Usage: vote <candidate>")
				continue
			}
			_ = a.Vote(ctx, strings.Join(args, " "))

		case "retry":
			_ = a.Retry(ctx)

		case "abandon":
			_ = a.Abandon(ctx)

		case "new":
			_ = a.NewSession(ctx)

		case "status":
			_ = a.Status(ctx)

		case "receipts":
			_ = a.Receipts(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
