package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/dealroom/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// command is the signature shared by every REPL handler; args excludes the
// command name.
type command func(ctx context.Context, args []string) error

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Categories(ctx context.Context, args []string) error
	Cards(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Queue(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Cancel(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Preview(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Audit(ctx context.Context, args []string) error
	Sweep(ctx context.Context, args []string) error
	Deal(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  categories                      list document categories
  cards                           documents grouped by category
  status                          required categories progress
  (l)ist [-s text] [-c category] [-sort created|name|size|category] [-asc]
  add <category> <path>...        queue files for upload
  queue [category]                show queued files
  remove <category> <entry-id>    drop a queued file
  clear <category>                drop every file that is not uploading
  upload [category]               upload queued files
  cancel [category]               abort running uploads
  download <id>                   save a document locally
  preview <id>                    print a preview link
  delete <id> [-y]                delete a document
  refresh                         reload documents
  audit                           compare storage with metadata
  sweep                           retry failed storage deletes
  deal <id>|-                     switch deal (- for all deals)
  exit | quit                     leave the program`

// runREPL reads one line at a time from reader, parses the first token as
// the command and dispatches to a. The loop exits on EOF or when the user
// types "exit" or "quit". Handler errors are reported with their user
// message and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	commands := map[string]command{
		"categories": a.Categories,
		"cards":      a.Cards,
		"status":     a.Status,
		"l":          a.List,
		"list":       a.List,
		"add":        a.Add,
		"queue":      a.Queue,
		"remove":     a.Remove,
		"clear":      a.Clear,
		"upload":     a.Upload,
		"cancel":     a.Cancel,
		"download":   a.Download,
		"preview":    a.Preview,
		"delete":     a.Delete,
		"refresh":    a.Refresh,
		"audit":      a.Audit,
		"sweep":      a.Sweep,
		"deal":       a.Deal,
	}

	for {
		printlnFn(fmt.Sprintf("deals (%s) > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		fn, ok := commands[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := fn(ctx, args); err != nil {
			for _, msg := range userMessages(err) {
				printlnFn("error:", msg)
			}
		}
	}
}

// userMessages flattens joined errors into one user message each.
func userMessages(err error) []string {
	switch e := err.(type) {
	case *common.Error:
		return []string{e.Msg}
	case interface{ Unwrap() []error }:
		var out []string
		for _, inner := range e.Unwrap() {
			out = append(out, userMessages(inner)...)
		}
		return out
	default:
		return []string{common.UserMessage(err)}
	}
}

var errUsage = errors.New("usage")

func usage(text string) error {
	return common.NewError(common.KindValidation, "cli", "usage: "+text, errUsage)
}
