package netconf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// NETCONF 1.0 end-of-message marker
const endOfMessage = "]]>]]>"

var errBadChunk = errors.New("malformed NETCONF chunk")

// framer reads and writes NETCONF messages. It starts in end-of-message
// framing; chunked framing is switched on after a base:1.1 hello exchange.
type framer struct {
	w       io.Writer
	r       *bufio.Reader
	chunked bool
}

func newFramer(r io.Reader, w io.Writer) *framer {
	return &framer{w: w, r: bufio.NewReader(r)}
}

// WriteMessage frames and writes one message
func (f *framer) WriteMessage(msg []byte) error {
	var buf bytes.Buffer
	if f.chunked {
		fmt.Fprintf(&buf, "\n#%d\n", len(msg))
		buf.Write(msg)
		buf.WriteString("\n##\n")
	} else {
		buf.Write(msg)
		buf.WriteString(endOfMessage)
	}
	_, err := f.w.Write(buf.Bytes())
	return err
}

// ReadMessage reads one complete message
func (f *framer) ReadMessage() ([]byte, error) {
	if f.chunked {
		return f.readChunked()
	}
	return f.readEOM()
}

func (f *framer) readEOM() ([]byte, error) {
	var buf bytes.Buffer
	for {
		part, err := f.r.ReadBytes('>')
		buf.Write(part)
		if bytes.HasSuffix(buf.Bytes(), []byte(endOfMessage)) {
			msg := buf.Bytes()[:buf.Len()-len(endOfMessage)]
			return bytes.TrimSpace(msg), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (f *framer) readChunked() ([]byte, error) {
	var msg bytes.Buffer
	for {
		if err := f.expect('\n'); err != nil {
			return nil, err
		}
		if err := f.expect('#'); err != nil {
			return nil, err
		}

		line, err := f.r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = line[:len(line)-1]
		if line == "#" {
			return msg.Bytes(), nil
		}

		// RFC 6242 chunk sizes are 1..4294967295
		size, err := strconv.ParseUint(line, 10, 32)
		if err != nil || size == 0 {
			return nil, fmt.Errorf("%w: size %q", errBadChunk, line)
		}
		if _, err := io.CopyN(&msg, f.r, int64(size)); err != nil {
			return nil, err
		}
	}
}

func (f *framer) expect(want byte) error {
	b, err := f.r.ReadByte()
	if err != nil {
		return err
	}
	if b != want {
		return fmt.Errorf("%w: got %q, want %q", errBadChunk, b, want)
	}
	return nil
}
