package netconf

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramerEndOfMessage(t *testing.T) {
	var buf bytes.Buffer
	f := newFramer(&buf, &buf)

	require.NoError(t, f.WriteMessage([]byte("<hello/>")))
	require.NoError(t, f.WriteMessage([]byte("<rpc><get/></rpc>")))
	assert.Equal(t, "<hello/>]]>]]><rpc><get/></rpc>]]>]]>", buf.String())

	msg, err := f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<hello/>", string(msg))

	msg, err = f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<rpc><get/></rpc>", string(msg))

	_, err = f.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFramerChunked(t *testing.T) {
	var buf bytes.Buffer
	f := newFramer(&buf, &buf)
	f.chunked = true

	require.NoError(t, f.WriteMessage([]byte("<rpc-reply><ok/></rpc-reply>")))
	assert.Equal(t, "\n#28\n<rpc-reply><ok/></rpc-reply>\n##\n", buf.String())

	msg, err := f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<rpc-reply><ok/></rpc-reply>", string(msg))
}

func TestFramerMultipleChunks(t *testing.T) {
	f := newFramer(strings.NewReader("\n#5\n<data\n#3\n/>x\n##\n"), io.Discard)
	f.chunked = true

	msg, err := f.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "<data/>x", string(msg))
}

func TestFramerBadChunk(t *testing.T) {
	for _, input := range []string{
		"\n#0\n",
		"\n#abc\n",
		"\nX4\n<ok>",
		"#4\n<ok/>",
	} {
		t.Run(strings.TrimSpace(input), func(t *testing.T) {
			f := newFramer(strings.NewReader(input), io.Discard)
			f.chunked = true
			_, err := f.ReadMessage()
			assert.ErrorIs(t, err, errBadChunk)
		})
	}
}

func TestFramerTruncatedChunk(t *testing.T) {
	f := newFramer(strings.NewReader("\n#10\n<ok/>"), io.Discard)
	f.chunked = true
	_, err := f.ReadMessage()
	assert.Error(t, err)
}
