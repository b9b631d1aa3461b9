package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) record(cmd, arg string) {
	f.calls = append(f.calls, cmd)
	f.args = append(f.args, arg)
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.record("login", "")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.record("logout", "")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.record("list", ""); return nil }
func (f *fakeExec) ChangeDir(ctx context.Context, name string) error {
	f.record("cd", name)
	return nil
}
func (f *fakeExec) Up(ctx context.Context) error { f.record("up", ""); return nil }
func (f *fakeExec) Sync(ctx context.Context, name string) error {
	f.record("sync", name)
	return nil
}
func (f *fakeExec) Open(ctx context.Context, name string) error {
	f.record("open", name)
	return nil
}
func (f *fakeExec) Upload(ctx context.Context, path string) error {
	f.record("put", path)
	return nil
}
func (f *fakeExec) MakeDir(ctx context.Context, name string) error {
	f.record("mkdir", name)
	return nil
}
func (f *fakeExec) RemoveLocal(ctx context.Context, name string) error {
	f.record("rm", name)
	return nil
}
func (f *fakeExec) RemoveRemote(ctx context.Context, name string) error {
	f.record("rmremote", name)
	return nil
}
func (f *fakeExec) SetBufferSize(ctx context.Context, value string) error {
	f.record("set", value)
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error { f.record("status", ""); return nil }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"list",
		"cd My Documents",
		"sync",
		"open notes.txt",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "list", "cd", "sync", "open"}
	if len(exec.calls) < len(wantOrder) {
		t.Fatalf("few calls: %+v", exec.calls)
	}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
}

func TestRunREPL_MultiWordArgument(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("cd My Documents 2026\nexit\n")
	exec := &fakeExec{loggedIn: true}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	if len(exec.args) != 1 || exec.args[0] != "My Documents 2026" {
		t.Fatalf("argument not joined: %v", exec.args)
	}
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("cd\nopen\nput\nmkdir\nrm\nrmremote\nset wrong\nquit\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_SyncWithoutArgumentIsAllowed(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("sync\nexit\n")
	exec := &fakeExec{loggedIn: true}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewScanner(input))

	if len(exec.calls) != 1 || exec.calls[0] != "sync" || exec.args[0] != "" {
		t.Fatalf("unexpected calls: %v %v", exec.calls, exec.args)
	}
}
