// Package netconf is a read-only device directory over NETCONF (RFC 6241) on
// SSH. ONU state comes from the BBF TR-385 xpon-onu-states tree.
package netconf

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/bbf"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// NETCONF constants
const (
	NetconfBase10 = "urn:ietf:params:netconf:base:1.0"
	NetconfBase11 = "urn:ietf:params:netconf:base:1.1"

	// DefaultPort is the IANA NETCONF over SSH port
	DefaultPort = 830
)

const clientHello = `<?xml version="1.0" encoding="UTF-8"?>
<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <capabilities>
    <capability>urn:ietf:params:netconf:base:1.0</capability>
    <capability>urn:ietf:params:netconf:base:1.1</capability>
  </capabilities>
</hello>`

// Driver implements types.Directory over NETCONF
type Driver struct {
	config *types.DirectoryConfig
	ct     bbf.CTTemplate

	sshClient    *ssh.Client
	session      *ssh.Session
	framer       *framer
	capabilities []string
	sessionID    string
	messageID    uint64

	mu sync.Mutex
}

// NewDriver creates a NETCONF driver. The session is opened on first use.
func NewDriver(config *types.DirectoryConfig) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if config.Port == 0 {
		config.Port = DefaultPort
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Driver{
		config: config,
		ct:     bbf.CTTemplate(common.MetadataStringWithDefault(config.Metadata, string(bbf.DefaultCTTemplate), "netconf_ct_template", "bbf_ct_template")),
	}, nil
}

// Connect opens the SSH session and exchanges hellos
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked(ctx)
}

func (d *Driver) connectLocked(ctx context.Context) error {
	if d.framer != nil {
		return nil
	}

	sshConfig := &ssh.ClientConfig{
		User: d.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(d.config.Password),
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

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return fmt.Errorf("SSH session failed: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("stdin pipe failed: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("stdout pipe failed: %w", err)
	}

	if err := session.RequestSubsystem("netconf"); err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("NETCONF subsystem request failed: %w", err)
	}

	f := newFramer(stdout, stdin)
	capabilities, sessionID, err := exchangeHello(f)
	if err != nil {
		session.Close()
		client.Close()
		return fmt.Errorf("NETCONF hello exchange failed: %w", err)
	}

	d.sshClient = client
	d.session = session
	d.framer = f
	d.capabilities = capabilities
	d.sessionID = sessionID
	return nil
}

// exchangeHello reads the server hello, answers it, and switches to chunked
// framing when both sides speak base:1.1
func exchangeHello(f *framer) ([]string, string, error) {
	serverHello, err := f.ReadMessage()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read server hello: %w", err)
	}

	capabilities, sessionID, err := parseHello(serverHello)
	if err != nil {
		return nil, "", err
	}

	if err := f.WriteMessage([]byte(clientHello)); err != nil {
		return nil, "", fmt.Errorf("failed to send client hello: %w", err)
	}

	for _, c := range capabilities {
		if c == NetconfBase11 {
			f.chunked = true
			break
		}
	}
	return capabilities, sessionID, nil
}

// parseHello extracts capabilities and session ID from a hello message
func parseHello(data []byte) ([]string, string, error) {
	var hello struct {
		XMLName      xml.Name `xml:"hello"`
		SessionID    string   `xml:"session-id"`
		Capabilities []string `xml:"capabilities>capability"`
	}
	if err := xml.Unmarshal(data, &hello); err != nil {
		return nil, "", fmt.Errorf("invalid server hello: %w", err)
	}
	for i, c := range hello.Capabilities {
		hello.Capabilities[i] = strings.TrimSpace(c)
	}
	return hello.Capabilities, strings.TrimSpace(hello.SessionID), nil
}

// Close ends the NETCONF session
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.framer != nil {
		d.messageID++
		closeSession := fmt.Sprintf(`<rpc message-id="%d" xmlns="%s"><close-session/></rpc>`, d.messageID, NetconfBase10)
		_ = d.framer.WriteMessage([]byte(closeSession)) // best effort
	}
	return d.closeLocked()
}

func (d *Driver) closeLocked() error {
	d.framer = nil
	d.capabilities = nil
	d.sessionID = ""
	if d.session != nil {
		_ = d.session.Close()
		d.session = nil
	}
	if d.sshClient != nil {
		err := d.sshClient.Close()
		d.sshClient = nil
		return err
	}
	return nil
}

// IsConnected returns true while a session is open
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framer != nil
}

// SessionID returns the server-assigned session id
func (d *Driver) SessionID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// HasCapability checks if the server advertised a capability containing c
func (d *Driver) HasCapability(c string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, capability := range d.capabilities {
		if strings.Contains(capability, c) {
			return true
		}
	}
	return false
}

// RPCError is an rpc-error returned by the server
type RPCError struct {
	Type     string `xml:"error-type"`
	Tag      string `xml:"error-tag"`
	Severity string `xml:"error-severity"`
	Message  string `xml:"error-message"`
}

func (e *RPCError) Error() string {
	msg := fmt.Sprintf("NETCONF %s error: %s", e.Type, e.Tag)
	if e.Message != "" {
		msg += " - " + strings.TrimSpace(e.Message)
	}
	return msg
}

type rpcReply struct {
	XMLName   xml.Name   `xml:"rpc-reply"`
	MessageID string     `xml:"message-id,attr"`
	Errors    []RPCError `xml:"rpc-error"`
}

// RPC sends one operation and returns the raw rpc-reply. A reply carrying an
// rpc-error of severity error fails with *RPCError. A cancelled or failed
// exchange drops the session; the next call reconnects.
func (d *Driver) RPC(ctx context.Context, operation string) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connectLocked(ctx); err != nil {
		return nil, err
	}

	d.messageID++
	id := strconv.FormatUint(d.messageID, 10)
	rpc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rpc message-id="%s" xmlns="%s">
%s
</rpc>`, id, NetconfBase10, operation)

	type result struct {
		reply []byte
		err   error
	}
	done := make(chan result, 1)
	f := d.framer
	go func() {
		if err := f.WriteMessage([]byte(rpc)); err != nil {
			done <- result{err: fmt.Errorf("failed to send RPC: %w", err)}
			return
		}
		reply, err := f.ReadMessage()
		if err != nil {
			err = fmt.Errorf("failed to read RPC reply: %w", err)
		}
		done <- result{reply: reply, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		_ = d.closeLocked()
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		_ = d.closeLocked()
		return nil, res.err
	}

	var reply rpcReply
	if err := xml.Unmarshal(res.reply, &reply); err != nil {
		return nil, fmt.Errorf("invalid rpc-reply: %w", err)
	}
	if reply.MessageID != "" && reply.MessageID != id {
		_ = d.closeLocked()
		return nil, fmt.Errorf("rpc-reply message-id %s does not match request %s", reply.MessageID, id)
	}
	for i := range reply.Errors {
		if e := &reply.Errors[i]; e.Severity == "" || e.Severity == "error" {
			return res.reply, e
		}
	}
	return res.reply, nil
}

// Get performs a NETCONF get with an optional subtree filter
func (d *Driver) Get(ctx context.Context, filter string) ([]byte, error) {
	if filter == "" {
		return d.RPC(ctx, "<get/>")
	}
	return d.RPC(ctx, fmt.Sprintf(`<get>
  <filter type="subtree">
    %s
  </filter>
</get>`, filter))
}

// HealthCheck opens the session if needed and reads the ONU state tree
func (d *Driver) HealthCheck(ctx context.Context) error {
	_, err := d.onuStates(ctx)
	return err
}
