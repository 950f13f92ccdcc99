// Package cli is the SSH transport for OLT command-line backends. It keeps one
// interactive session open and runs commands through it one at a time.
package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// Driver implements types.CLIExecutor over SSH
type Driver struct {
	config *types.DirectoryConfig

	mu            sync.Mutex // one expect session is shared
	sshClient     *ssh.Client
	expectSession *ExpectSession
}

// NewDriver creates a new CLI driver. The connection is opened on first use.
func NewDriver(config *types.DirectoryConfig) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if config.Port == 0 {
		config.Port = 22
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Driver{
		config: config,
	}, nil
}

// Connect establishes the SSH connection and the expect session
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked(ctx)
}

func (d *Driver) connectLocked(ctx context.Context) error {
	if d.sshClient != nil && d.expectSession != nil {
		return nil
	}

	// Some OLTs require keyboard-interactive instead of password
	keyboardInteractive := ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = d.config.Password
		}
		return answers, nil
	})

	sshConfig := &ssh.ClientConfig{
		User: d.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(d.config.Password),
			keyboardInteractive,
		},
		Timeout:         d.config.Timeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // management network only
	}

	target := net.JoinHostPort(d.config.Address, strconv.Itoa(d.config.Port))

	dialer := &net.Dialer{Timeout: d.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return fmt.Errorf("failed to dial SSH: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, target, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SSH handshake failed: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	expectSession, err := NewExpectSession(ExpectSessionConfig{
		SSHClient:    client,
		Timeout:      d.config.Timeout,
		DisablePager: true,
		PagerCommand: common.MetadataStringWithDefault(d.config.Metadata, DefaultPagerDisableCommand, "cli_pager_command"),
	})
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to create expect session: %w", err)
	}

	d.sshClient = client
	d.expectSession = expectSession

	return nil
}

// Close closes the SSH connection
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Driver) closeLocked() error {
	if d.expectSession != nil {
		_ = d.expectSession.Close()
		d.expectSession = nil
	}
	if d.sshClient != nil {
		err := d.sshClient.Close()
		d.sshClient = nil
		return err
	}
	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sshClient != nil && d.expectSession != nil
}

// execLocked runs one command, reconnecting first if the session was dropped.
// A failed command tears the session down so the next call starts clean.
func (d *Driver) execLocked(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := d.connectLocked(ctx); err != nil {
		return "", err
	}

	output, err := d.expectSession.Execute(command)
	if err != nil {
		_ = d.closeLocked()
		return output, fmt.Errorf("command failed: %w", err)
	}

	return output, nil
}

// HealthCheck performs a health check
func (d *Driver) HealthCheck(ctx context.Context) error {
	_, err := d.ExecCommand(ctx, "show version")
	return err
}

// ExecCommand implements types.CLIExecutor - executes a single CLI command
func (d *Driver) ExecCommand(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execLocked(ctx, command)
}

// ExecCommands implements types.CLIExecutor - executes multiple CLI commands
// sequentially without letting another caller interleave.
func (d *Driver) ExecCommands(ctx context.Context, commands []string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	results := make([]string, 0, len(commands))
	for _, cmd := range commands {
		output, err := d.execLocked(ctx, cmd)
		if err != nil {
			return results, fmt.Errorf("command %q failed: %w", cmd, err)
		}
		results = append(results, output)
	}
	return results, nil
}

var (
	_ types.CLIExecutor = (*Driver)(nil)
	_ types.Transport   = (*Driver)(nil)
)
