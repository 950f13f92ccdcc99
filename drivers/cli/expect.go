package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	expect "github.com/google/goexpect"
	"golang.org/x/crypto/ssh"
)

// DefaultPromptPattern matches ZXAN style prompts: "ZXAN#", "ZXAN(config)#",
// "ZXAN(config-if)#" or "olt>".
var DefaultPromptPattern = regexp.MustCompile(`(?m)[\w\-]+(\([\w\-/: ]+\))?[#>]\s*$`)

// DefaultPagerDisableCommand turns off "--More--" paging on the session.
const DefaultPagerDisableCommand = "terminal length 0"

// maxPages bounds how many "--More--" pages one command may produce
const maxPages = 256

// pagerResidue is the pager marker plus the backspaces and blanks ZXAN uses
// to erase it once a key is pressed.
var pagerResidue = regexp.MustCompile("--More--[\b ]*")

// ExpectSession wraps google/goexpect for OLT CLI interaction
type ExpectSession struct {
	expecter *expect.GExpect
	promptRE *regexp.Regexp
	readyRE  *regexp.Regexp // prompt or pager marker
	timeout  time.Duration
}

// ExpectSessionConfig holds configuration for creating an expect session
type ExpectSessionConfig struct {
	SSHClient    *ssh.Client
	Timeout      time.Duration
	CustomPrompt *regexp.Regexp
	DisablePager bool
	PagerCommand string
}

// NewExpectSession creates a new interactive CLI session using expect
func NewExpectSession(cfg ExpectSessionConfig) (*ExpectSession, error) {
	if cfg.SSHClient == nil {
		return nil, fmt.Errorf("SSH client is required")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	promptRE := cfg.CustomPrompt
	if promptRE == nil {
		promptRE = DefaultPromptPattern
	}

	exp, _, err := expect.SpawnSSH(cfg.SSHClient, cfg.Timeout,
		expect.Verbose(false),
		expect.CheckDuration(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn SSH expect session: %w", err)
	}

	session := &ExpectSession{
		expecter: exp,
		promptRE: promptRE,
		readyRE:  regexp.MustCompile(`--More--|(?:` + promptRE.String() + `)`),
		timeout:  cfg.Timeout,
	}

	if _, _, err := exp.Expect(promptRE, cfg.Timeout); err != nil {
		exp.Close()
		return nil, fmt.Errorf("failed to detect initial prompt: %w", err)
	}

	// Non-fatal: some firmware rejects the command but never pages anyway
	if cfg.DisablePager {
		cmd := cfg.PagerCommand
		if cmd == "" {
			cmd = DefaultPagerDisableCommand
		}
		_, _ = session.Execute(cmd)
	}

	return session, nil
}

// Execute sends a command and waits for the prompt, returning the output.
// Pages are followed with a space when the pager could not be disabled.
func (s *ExpectSession) Execute(command string) (string, error) {
	if s.expecter == nil {
		return "", fmt.Errorf("expect session not initialized")
	}

	if err := s.expecter.Send(command + "\n"); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	var raw strings.Builder
	for page := 0; ; page++ {
		output, match, err := s.expecter.Expect(s.readyRE, s.timeout)
		raw.WriteString(output)
		if err != nil {
			return raw.String(), fmt.Errorf("timeout waiting for prompt after command %q: %w", command, err)
		}
		if len(match) == 0 || !strings.HasPrefix(match[0], "--More--") {
			break
		}
		if page >= maxPages {
			return raw.String(), fmt.Errorf("command %q paged more than %d times", command, maxPages)
		}
		if err := s.expecter.Send(" "); err != nil {
			return raw.String(), fmt.Errorf("failed to page output: %w", err)
		}
	}

	return CleanOutput(raw.String(), command, s.promptRE), nil
}

// CleanOutput removes the command echo and prompt lines from raw session output.
func CleanOutput(output, command string, promptRE *regexp.Regexp) string {
	output = pagerResidue.ReplaceAllString(output, "")
	lines := strings.Split(strings.ReplaceAll(output, "\r", ""), "\n")
	var cleaned []string

	for i, line := range lines {
		if i == 0 && strings.Contains(line, command) {
			continue
		}
		if promptRE.MatchString(strings.TrimSpace(line)) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// Close closes the expect session
func (s *ExpectSession) Close() error {
	if s.expecter != nil {
		return s.expecter.Close()
	}
	return nil
}
