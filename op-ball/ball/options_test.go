package ball

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

func TestOptionsBuilder(t *testing.T) {
	opts := NewOptions().AddExecutorLzReceiveOption(200_000, 0).Bytes()
	require.Equal(t, "0x00030100110100000000000000000000000000030d40", hexutil.Encode(opts))

	opts = NewOptions().AddExecutorLzReceiveOption(200_000, 5).Bytes()
	require.Len(t, opts, 2+3+1+32)

	opts = NewOptions().AddDVNPrecrimeOption(1).Bytes()
	require.Equal(t, []byte{0, 3, 2, 0, 2, 1, 1}, opts)
}

func TestCombineOptionsEmptySides(t *testing.T) {
	opts := NewOptions().AddExecutorLzReceiveOption(1, 0).Bytes()

	out, err := CombineOptions(nil, opts)
	require.NoError(t, err)
	require.Equal(t, opts, out)

	out, err = CombineOptions(opts, nil)
	require.NoError(t, err)
	require.Equal(t, opts, out)

	out, err = CombineOptions(nil, nil)
	require.NoError(t, err)
	require.Empty(t, out)

	// Either side alone is passed through without validation.
	junk := []byte{0xde, 0xad}
	out, err = CombineOptions(nil, junk)
	require.NoError(t, err)
	require.Equal(t, junk, out)
}

func TestCombineOptionsEnforcedWins(t *testing.T) {
	enforced := NewOptions().AddExecutorLzReceiveOption(100_000, 0).Bytes()
	extra := NewOptions().
		AddExecutorLzReceiveOption(900_000, 0).
		AddDVNPrecrimeOption(0).
		Bytes()

	out, err := CombineOptions(enforced, extra)
	require.NoError(t, err)
	want := NewOptions().
		AddExecutorLzReceiveOption(100_000, 0).
		AddDVNPrecrimeOption(0).
		Bytes()
	require.Equal(t, want, out)

	again, err := CombineOptions(enforced, extra)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestCombineOptionsNativeDropsPerReceiver(t *testing.T) {
	alice, bob := common.HexToHash("0xa1"), common.HexToHash("0xb0")
	enforced := NewOptions().AddExecutorNativeDropOption(10, alice).Bytes()
	extra := NewOptions().
		AddExecutorNativeDropOption(99, alice).
		AddExecutorNativeDropOption(5, bob).
		Bytes()

	out, err := CombineOptions(enforced, extra)
	require.NoError(t, err)
	want := NewOptions().
		AddExecutorNativeDropOption(10, alice).
		AddExecutorNativeDropOption(5, bob).
		Bytes()
	require.Equal(t, want, out)
}

func TestCombineOptionsDVNIndexes(t *testing.T) {
	enforced := NewOptions().AddDVNPrecrimeOption(0).Bytes()
	extra := NewOptions().AddDVNPrecrimeOption(0).AddDVNPrecrimeOption(1).Bytes()

	out, err := CombineOptions(enforced, extra)
	require.NoError(t, err)
	require.Equal(t, NewOptions().AddDVNPrecrimeOption(0).AddDVNPrecrimeOption(1).Bytes(), out)
}

func TestCombineOptionsErrors(t *testing.T) {
	enforced := NewOptions().AddExecutorLzReceiveOption(1, 0).Bytes()
	tests := []struct {
		name  string
		extra []byte
		err   error
	}{
		{"type 1", []byte{0, 1, 0, 0}, ErrInvalidOptionType},
		{"type 2", []byte{0, 2}, ErrInvalidOptionType},
		{"one byte", []byte{0}, ErrInvalidOptions},
		{"truncated entry", []byte{0, 3, 1, 0}, ErrInvalidOptions},
		{"overrun", []byte{0, 3, 1, 0, 9, 1}, ErrInvalidOptions},
		{"empty executor body", []byte{0, 3, 1, 0, 0}, ErrInvalidOptions},
		{"short dvn body", []byte{0, 3, 2, 0, 1, 0}, ErrInvalidOptions},
		{"unknown worker", []byte{0, 3, 7, 0, 1, 1}, ErrInvalidWorkerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CombineOptions(enforced, tt.extra)
			require.ErrorIs(t, err, tt.err)
			_, err = CombineOptions(tt.extra, enforced)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestValidateOptions(t *testing.T) {
	require.NoError(t, ValidateOptions(nil))
	require.NoError(t, ValidateOptions([]byte{0, 3}))
	require.ErrorIs(t, ValidateOptions([]byte{0, 1}), ErrInvalidOptionType)
}

func TestEnforcedOptionsCombineSelectsSet(t *testing.T) {
	send := NewOptions().AddExecutorLzReceiveOption(1, 0).Bytes()
	sendAndCall := NewOptions().AddExecutorLzReceiveOption(2, 0).Bytes()
	e := EnforcedOptions{Send: send, SendAndCall: sendAndCall}

	out, err := e.Combine(nil, nil)
	require.NoError(t, err)
	require.Equal(t, send, out)

	out, err = e.Combine([]byte{1}, nil)
	require.NoError(t, err)
	require.Equal(t, sendAndCall, out)
}
