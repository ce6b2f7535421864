package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/danmuck/hexrelay/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFrame = "4e531118f219c10100000103011a0a"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := New(&buf).Run(context.Background(), append([]string{"hexconv"}, args...))
	return buf.String(), err
}

func TestConvertCommand(t *testing.T) {
	out, err := run(t, "convert", "--from", "hex", "--to", "bin", "0xFF")
	require.NoError(t, err)
	assert.Equal(t, "0b11111111\n", out)

	out, err = run(t, "convert", "--from", "dec", "--to", "hex", "255")
	require.NoError(t, err)
	assert.Equal(t, "0xFF\n", out)

	out, err = run(t, "convert", "--to", "hex", "--endian", "little", "0x1234")
	require.NoError(t, err)
	assert.Equal(t, "0x3412\n", out)
}

func TestConvertCommandErrors(t *testing.T) {
	_, err := run(t, "convert", "--from", "dec", "12a")
	assert.ErrorIs(t, err, protocol.ErrInvalidInput)

	_, err = run(t, "convert", "--to", "bin", "--padding", "4", "1")
	assert.ErrorIs(t, err, protocol.ErrInvalidConfig)

	_, err = run(t, "convert")
	assert.Error(t, err)
}

func TestHexToCommand(t *testing.T) {
	out, err := run(t, "hexto", "s16", "8000")
	require.NoError(t, err)
	assert.Equal(t, "-32768\n", out)

	out, err = run(t, "hexto", "--endian", "little", "u16", "3412")
	require.NoError(t, err)
	assert.Equal(t, "4660\n", out)

	out, err = run(t, "hexto", "array", "0a0b")
	require.NoError(t, err)
	assert.Equal(t, "[10,11]\n", out)

	out, err = run(t, "hexto", "ascii", "4869")
	require.NoError(t, err)
	assert.Equal(t, "Hi\n", out)

	_, err = run(t, "hexto", "u8", "ZZ")
	assert.ErrorIs(t, err, protocol.ErrInvalidInput)
}

func TestSplitAndExtractCommands(t *testing.T) {
	out, err := run(t, "split", sampleFrame+sampleFrame+"4e53")
	require.NoError(t, err)
	assert.Equal(t, sampleFrame+"\n"+sampleFrame+"\n", out)

	out, err = run(t, "extract", sampleFrame)
	require.NoError(t, err)
	assert.Equal(t, "id=19f21811 data=c10100000103011a\n", out)

	_, err = run(t, "extract", "4e53")
	assert.ErrorIs(t, err, protocol.ErrInvalidInput)
}

func TestDecodeCommand(t *testing.T) {
	out, err := run(t, "decode", sampleFrame)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
	assert.Equal(t, "19f21811", p["id"])
	assert.Equal(t, "c10100000103011a", p["data"])

	_, err = run(t, "decode", sampleFrame+"4e53ff0a")
	assert.Error(t, err)
}
