//go:build e2e && unix

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// binPath is set by TestMain once the binary is built
var binPath string

const (
	maxOutput    = 1 << 20 // keep the last 1 MiB the program drew
	waitTimeout  = 5 * time.Second
	pollInterval = 25 * time.Millisecond
	keyGap       = 40 * time.Millisecond
)

const (
	keyEnter    = "\r"
	keyEsc      = "\x1b"
	keyCtrlC    = "\x03"
	keySpace    = " "
	keyQuit     = "q"
	keyName     = "n"
	keyPrefix   = "i"
	keySearch   = "/"
	keyExport   = "e"
	keyReset    = "R"
	keyConfirm  = "y"
	keyNextPage = "l"
)

// ansiRe matches CSI, OSC, charset and keypad sequences plus carriage returns
var ansiRe = regexp.MustCompile(
	`(?:\x1b\[[0-9;?]*[ -/]*[@-~])|` +
		`(?:\x1b\][^\x07]*\x07)|` +
		`(?:\x1b[\(\)][A-Za-z])|` +
		`(?:\x1b=|\x1b>)|` +
		`\r`,
)

// session drives one dupexport process through a pseudo terminal and records
// everything it draws. Positions returned by mark are absolute, so they stay
// valid after old output is dropped.
type session struct {
	t      *testing.T
	cmd    *exec.Cmd
	pty    *os.File
	exited chan error

	mu   sync.Mutex
	out  []byte
	base int // bytes dropped from the front of out
}

// launch starts dupexport with home as $HOME and working directory
func launch(t *testing.T, home string, args ...string) *session {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LANG=C",
		"LC_ALL=C",
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
	)

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 120})
	require.NoError(t, err, "start %s", binPath)

	s := &session{t: t, cmd: cmd, pty: f, exited: make(chan error, 1)}
	go s.read()
	go func() { s.exited <- cmd.Wait() }()
	t.Cleanup(s.kill)
	return s
}

func (s *session) read() {
	buf := make([]byte, 8192)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.out = append(s.out, buf[:n]...)
			if over := len(s.out) - maxOutput; over > 0 {
				s.out = append([]byte(nil), s.out[over:]...)
				s.base += over
			}
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// press writes each key separately so the program never reads two keys as
// one paste
func (s *session) press(keys ...string) {
	s.t.Helper()
	for _, k := range keys {
		_, err := s.pty.Write([]byte(k))
		require.NoError(s.t, err, "write %q", k)
		time.Sleep(keyGap)
	}
}

// fill opens the input behind key, types text and commits it
func (s *session) fill(key, text string) {
	s.t.Helper()
	s.press(key, text, keyEnter)
}

func (s *session) mark() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base + len(s.out)
}

// plainSince returns the output drawn after mark with escape sequences removed
func (s *session) plainSince(mark int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := min(max(mark-s.base, 0), len(s.out))
	return ansiRe.ReplaceAllString(string(s.out[start:]), "")
}

// expect fails the test unless text is drawn within waitTimeout
func (s *session) expect(text string) {
	s.t.Helper()
	s.expectAfter(0, text)
}

// expectAfter is expect restricted to output drawn after mark
func (s *session) expectAfter(mark int, text string) {
	s.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !strings.Contains(s.plainSince(mark), text) {
		if time.Now().After(deadline) {
			screen := s.plainSince(0)
			if len(screen) > 2048 {
				screen = screen[len(screen)-2048:]
			}
			s.t.Fatalf("timed out waiting for %q\n--- screen tail ---\n%s", text, screen)
		}
		time.Sleep(pollInterval)
	}
}

// waitExit reports whether the process ended within timeout
func (s *session) waitExit(timeout time.Duration) bool {
	select {
	case err := <-s.exited:
		s.exited <- err
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}
	select {
	case err := <-s.exited:
		s.exited <- err
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *session) kill() {
	_ = s.pty.Close()
	if !s.waitExit(0) && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		s.waitExit(time.Second)
	}
}
