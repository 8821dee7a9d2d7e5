package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/fatih/color"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

var errorColor = color.New(color.FgRed)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context, args []string) error
	Passwd(ctx context.Context) error
	Email(ctx context.Context) error

	List(ctx context.Context, args []string) error
	Days(ctx context.Context) error
	Open(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	New(ctx context.Context, args []string) error
	Edit(ctx context.Context) error
	Set(ctx context.Context, args []string) error
	Save(ctx context.Context) error
	Back(ctx context.Context) error
	Discard(ctx context.Context) error
	Delete(ctx context.Context) error

	Tags(ctx context.Context) error
	Filter(ctx context.Context, args []string) error
	RenameTag(ctx context.Context, args []string) error
	Dashboard(ctx context.Context) error
	Groups(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = `Available commands:
  list [date]          entries of a day (today by default)
  days                 days that have entries
  open <n|id>          open an entry from the last list
  show                 show the open entry
  new [date]           create an entry and start editing
  edit                 edit the open entry
  set <field> <value>  title, body, tags, addtag, rmtag, mood, time
  save | back          finalize, or leave keeping a draft
  discard | delete     drop your edits, or remove the entry
  tags | filter <tag>  list tags, toggle a tag filter (filter clear)
  rename-tag <a> <b>   rename a tag everywhere
  dashboard            totals, moods, tags and groups
  groups [add|rename|rm|put|pull] ...
  import <file.csv> | export [file.csv]
  profile [set] | passwd | email | logout | exit`
)

// runREPL starts a read–eval–print loop for the Daybook CLI.
//
// It reads a line from in, parses the first token as the command, and
// dispatches to methods on 'a'. Command errors are printed and the loop goes
// on. Interactive prompts of the commands read from the same reader, so input
// is never split between two buffers. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Until the user is logged in only help, register, login and exit are
// accepted.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("daybook %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		case "register":
			report(a.Register(ctx))
			continue
		case "login":
			report(a.Login(ctx))
			continue
		}

		if !a.isLoggedIn() {
			printlnFn("Please login or register first")
			continue
		}

		err = nil
		switch cmd {
		case "logout":
			err = a.Logout(ctx)
		case "profile":
			err = a.Profile(ctx, args)
		case "passwd":
			err = a.Passwd(ctx)
		case "email":
			err = a.Email(ctx)
		case "l", "list":
			err = a.List(ctx, args)
		case "days":
			err = a.Days(ctx)
		case "o", "open":
			err = a.Open(ctx, args)
		case "show":
			err = a.Show(ctx)
		case "new":
			err = a.New(ctx, args)
		case "edit":
			err = a.Edit(ctx)
		case "set":
			err = a.Set(ctx, args)
		case "save":
			err = a.Save(ctx)
		case "back":
			err = a.Back(ctx)
		case "discard":
			err = a.Discard(ctx)
		case "delete":
			err = a.Delete(ctx)
		case "tags":
			err = a.Tags(ctx)
		case "filter":
			err = a.Filter(ctx, args)
		case "rename-tag":
			err = a.RenameTag(ctx, args)
		case "dashboard":
			err = a.Dashboard(ctx)
		case "groups":
			err = a.Groups(ctx, args)
		case "import":
			err = a.Import(ctx, args)
		case "export":
			err = a.Export(ctx, args)
		default:
			printlnFn("Unknown command:", cmd)
		}
		report(err)
	}
}

func report(err error) {
	if err != nil {
		printlnFn(errorColor.Sprint("Error: ", err))
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	email, mode := a.email, a.mode
	a.mu.Unlock()

	parts := make([]string, 0, 3)
	if email != "" {
		parts = append(parts, email)
	}
	if mode != "" {
		parts = append(parts, string(mode))
	}
	if a.editor != nil && a.editor.Mode() == journal.ModeEditing {
		parts = append(parts, "editing")
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ") "
}

// Root prints the greeting, restores the previous session, starts the
// connectivity watcher and runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to Daybook (type 'help' for commands)")
	a.restore(ctx)
	if !a.isLoggedIn() {
		printlnFn("Not logged in. Use 'login' or 'register'.")
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
