package ball

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/jinmel/interop/op-ball/metrics"
	"github.com/jinmel/interop/op-ball/storage"
	"github.com/jinmel/interop/op-ball/transport"
	"github.com/jinmel/interop/op-service/testlog"
)

var (
	localEID   = uint32(30168)
	remoteEID  = uint32(30101)
	localOApp  = common.HexToHash("0x5011")
	remoteOApp = common.HexToHash("0xe7e7")
	testAdmin  = common.HexToHash("0xad")
	endpointID = common.HexToHash("0x1e")

	errAck      = errors.New("ack failed")
	errDispatch = errors.New("dispatch failed")
)

type fakeTransport struct {
	ackErr      error
	dispatchErr error
	fee         transport.MessagingFee

	acked      []transport.Packet
	dispatched []transport.SendParams
	quoted     []transport.QuoteParams
}

var _ transport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Acknowledge(_ context.Context, receiver common.Hash, pkt transport.Packet) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	f.acked = append(f.acked, pkt)
	return nil
}

func (f *fakeTransport) Dispatch(_ context.Context, sender common.Hash, params transport.SendParams) (transport.Receipt, error) {
	if f.dispatchErr != nil {
		return transport.Receipt{}, f.dispatchErr
	}
	f.dispatched = append(f.dispatched, params)
	nonce := uint64(len(f.dispatched))
	return transport.Receipt{
		GUID:  transport.ComputeGUID(nonce, localEID, sender, params.DstEID, params.Receiver),
		Nonce: nonce,
	}, nil
}

func (f *fakeTransport) Quote(_ context.Context, params transport.QuoteParams) (transport.MessagingFee, error) {
	f.quoted = append(f.quoted, params)
	return f.fee, nil
}

type testApp struct {
	*App
	store *Store
	tr    *fakeTransport
}

func newTestApp(t *testing.T, pattern Pattern, peers ...PeerEntry) *testApp {
	t.Helper()
	if len(peers) == 0 {
		peers = []PeerEntry{{RemoteEID: remoteEID, Address: remoteOApp}}
	}
	reg, err := NewPeerRegistry(peers...)
	require.NoError(t, err)

	store := NewStore(storage.NewMemory(), DefaultStoreSeed)
	state, err := store.Init(testAdmin, testAdmin, InitParams{Admin: testAdmin, Endpoint: endpointID})
	require.NoError(t, err)

	tr := new(fakeTransport)
	app := NewApp(testlog.Logger(t, log.LevelDebug), Config{
		Address:   localOApp,
		Pattern:   pattern,
		ReturnFee: EstimatedReturnFee(),
	}, store, state, reg, tr, metrics.NoopMetrics)
	return &testApp{App: app, store: store, tr: tr}
}

func (a *testApp) setBallForTest(t *testing.T, v uint64) {
	t.Helper()
	require.NoError(t, a.setBall(uint256.NewInt(v)))
}

// persistedBall is the ball as a restarted process would load it.
func (a *testApp) persistedBall(t *testing.T) *uint256.Int {
	t.Helper()
	st, err := a.store.Load()
	require.NoError(t, err)
	return st.Ball
}

func inboundPacket(msg []byte) transport.Packet {
	return transport.Packet{
		Origin:   transport.Origin{SrcEID: remoteEID, Sender: remoteOApp, Nonce: 1},
		Receiver: localOApp,
		GUID:     transport.ComputeGUID(1, remoteEID, remoteOApp, localEID, localOApp),
		Message:  msg,
	}
}

func TestNewAppDefaultsToABA(t *testing.T) {
	a := newTestApp(t, "")
	require.Equal(t, PatternABA, a.cfg.Pattern)
	require.Equal(t, InitialBall(), a.Ball())
	require.Equal(t, localOApp, a.Address())
}

func TestBallReturnsCopy(t *testing.T) {
	a := newTestApp(t, PatternABA)
	b := a.Ball()
	b.SetUint64(1)
	require.Equal(t, InitialBall(), a.Ball())
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("aba")
	require.NoError(t, err)
	require.Equal(t, PatternABA, p)
	p, err = ParsePattern("vanilla")
	require.NoError(t, err)
	require.Equal(t, PatternVanilla, p)
	_, err = ParsePattern("composed")
	require.Error(t, err)
}

func TestEstimatedReturnFee(t *testing.T) {
	require.Equal(t, uint64(12_731_834), EstimatedReturnFee())
	require.Equal(t, uint64(1<<64-1), saturatingMul(1<<63, 4))
	require.Equal(t, uint64(0), saturatingMul(0, 4))
}

func TestInitialBall(t *testing.T) {
	want, ok := new(big.Int).SetString("100000000000000000000", 10)
	require.True(t, ok)
	require.Equal(t, want, InitialBall().ToBig())
}
