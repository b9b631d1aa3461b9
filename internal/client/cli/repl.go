package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	ChangeDir(ctx context.Context, name string) error
	Up(ctx context.Context) error
	Sync(ctx context.Context, name string) error
	Open(ctx context.Context, name string) error
	Upload(ctx context.Context, path string) error
	MakeDir(ctx context.Context, name string) error
	RemoveLocal(ctx context.Context, name string) error
	RemoveRemote(ctx context.Context, name string) error
	SetBufferSize(ctx context.Context, value string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the cryptdrive CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest of the line as the argument (names may contain
// spaces), and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             — show available commands
//	  - login            — authenticate
//	  - status           — show session state
//	  - exit | quit      — leave the program
//
//	Logged in:
//	  - help             — show available commands
//	  - (l)ist           — list the current folder
//	  - cd <name>        — enter a folder
//	  - up               — go to the parent folder
//	  - sync [name]      — sync an item, or the whole current folder
//	  - open <name>      — print the local path of a synced file
//	  - put <path>       — encrypt and upload a local file
//	  - mkdir <name>     — create a folder
//	  - rm <name>        — remove the local copy (with confirmation)
//	  - rmremote <name>  — delete the item on the server (with confirmation)
//	  - set buffer <n>   — change the stream buffer size
//	  - status           — show session state
//	  - logout           — log out and wipe local copies
//	  - exit | quit      — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cryptdrive %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := strings.Join(parts[1:], " ")

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, cd, up, sync, open, put, mkdir, rm, rmremote, set, status, logout, exit")
			} else {
				printlnFn("Available commands: login, status, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "cd":
			if arg == "" {
				printlnFn("Usage: cd <name>")
				continue
			}
			_ = a.ChangeDir(ctx, arg)

		case "up":
			_ = a.Up(ctx)

		case "sync":
			_ = a.Sync(ctx, arg)

		case "open", "get":
			if arg == "" {
				printlnFn("Usage: open <name>")
				continue
			}
			_ = a.Open(ctx, arg)

		case "put", "upload":
			if arg == "" {
				printlnFn("Usage: put <local path>")
				continue
			}
			_ = a.Upload(ctx, arg)

		case "mkdir":
			if arg == "" {
				printlnFn("Usage: mkdir <name>")
				continue
			}
			_ = a.MakeDir(ctx, arg)

		case "rm":
			if arg == "" {
				printlnFn("Usage: rm <name>")
				continue
			}
			_ = a.RemoveLocal(ctx, arg)

		case "rmremote":
			if arg == "" {
				printlnFn("Usage: rmremote <name>")
				continue
			}
			_ = a.RemoveRemote(ctx, arg)

		case "set":
			sub := strings.Fields(arg)
			if len(sub) != 2 || sub[0] != "buffer" {
				printlnFn("Usage: set buffer <size>")
				continue
			}
			_ = a.SetBufferSize(ctx, sub[1])

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
