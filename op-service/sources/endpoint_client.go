package sources

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

var (
	errClearReverted      = errors.New("clear transaction reverted")
	errLzTokenUnsupported = errors.New("paying in lz token is not supported")
)

// EndpointABI is the subset of the LayerZero EndpointV2 interface the ball
// node talks to.
const EndpointABI = `[
  {"type":"function","name":"quote","stateMutability":"view",
   "inputs":[
     {"name":"_params","type":"tuple","components":[
       {"name":"dstEid","type":"uint32"},
       {"name":"receiver","type":"bytes32"},
       {"name":"message","type":"bytes"},
       {"name":"options","type":"bytes"},
       {"name":"payInLzToken","type":"bool"}]},
     {"name":"_sender","type":"address"}],
   "outputs":[
     {"name":"","type":"tuple","components":[
       {"name":"nativeFee","type":"uint256"},
       {"name":"lzTokenFee","type":"uint256"}]}]},
  {"type":"function","name":"send","stateMutability":"payable",
   "inputs":[
     {"name":"_params","type":"tuple","components":[
       {"name":"dstEid","type":"uint32"},
       {"name":"receiver","type":"bytes32"},
       {"name":"message","type":"bytes"},
       {"name":"options","type":"bytes"},
       {"name":"payInLzToken","type":"bool"}]},
     {"name":"_refundAddress","type":"address"}],
   "outputs":[
     {"name":"","type":"tuple","components":[
       {"name":"guid","type":"bytes32"},
       {"name":"nonce","type":"uint64"},
       {"name":"fee","type":"tuple","components":[
         {"name":"nativeFee","type":"uint256"},
         {"name":"lzTokenFee","type":"uint256"}]}]}]},
  {"type":"function","name":"clear","stateMutability":"nonpayable",
   "inputs":[
     {"name":"_oapp","type":"address"},
     {"name":"_origin","type":"tuple","components":[
       {"name":"srcEid","type":"uint32"},
       {"name":"sender","type":"bytes32"},
       {"name":"nonce","type":"uint64"}]},
     {"name":"_guid","type":"bytes32"},
     {"name":"_message","type":"bytes"}],
   "outputs":[]}
]`

// MessagingParams mirrors the EndpointV2 MessagingParams struct.
type MessagingParams struct {
	DstEid       uint32
	Receiver     [32]byte
	Message      []byte
	Options      []byte
	PayInLzToken bool
}

// MessagingFee mirrors the EndpointV2 MessagingFee struct.
type MessagingFee struct {
	NativeFee  *big.Int
	LzTokenFee *big.Int
}

// Origin mirrors the EndpointV2 Origin struct.
type Origin struct {
	SrcEid uint32
	Sender [32]byte
	Nonce  uint64
}

// EndpointBackend is what the client needs from a chain connection.
// *ethclient.Client satisfies it.
type EndpointBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type EndpointConfig struct {
	Address common.Address
	ChainID *big.Int
}

// EndpointClient calls and transacts against an EndpointV2 deployment.
type EndpointClient struct {
	log      log.Logger
	config   *EndpointConfig
	backend  EndpointBackend
	contract *bind.BoundContract
	auth     *bind.TransactOpts
}

func ParseEndpointABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(EndpointABI))
}

func NewEndpointClient(log log.Logger, backend EndpointBackend, config *EndpointConfig, key *ecdsa.PrivateKey) (*EndpointClient, error) {
	parsed, err := ParseEndpointABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse endpoint ABI")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, config.ChainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transactor")
	}
	return &EndpointClient{
		log:      log,
		config:   config,
		backend:  backend,
		contract: bind.NewBoundContract(config.Address, parsed, backend, backend, backend),
		auth:     auth,
	}, nil
}

// From is the account transactions are signed with.
func (c *EndpointClient) From() common.Address {
	return c.auth.From
}

func (c *EndpointClient) transactOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *c.auth
	opts.Context = ctx
	opts.Value = value
	return &opts
}

func (c *EndpointClient) Quote(ctx context.Context, sender common.Address, params MessagingParams) (MessagingFee, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx, From: sender}, &out, "quote", params, sender)
	if err != nil {
		return MessagingFee{}, errors.Wrap(err, "quote call failed")
	}
	return convertFee(out[0]), nil
}

func convertFee(v interface{}) MessagingFee {
	return *abi.ConvertType(v, new(MessagingFee)).(*MessagingFee)
}

// Send submits a send transaction paying nativeFee. It does not wait for the
// transaction to be included.
func (c *EndpointClient) Send(ctx context.Context, params MessagingParams, refund common.Address, nativeFee *big.Int) (*types.Transaction, error) {
	if params.PayInLzToken {
		return nil, errLzTokenUnsupported
	}
	tx, err := c.contract.Transact(c.transactOpts(ctx, nativeFee), "send", params, refund)
	if err != nil {
		return nil, errors.Wrap(err, "send transaction failed")
	}
	c.log.Info("Submitted send", "tx", tx.Hash(), "dst_eid", params.DstEid, "fee", nativeFee)
	return tx, nil
}

// Clear marks an inbound packet as consumed and waits until the transaction
// is mined, so the caller knows the packet cannot be replayed.
func (c *EndpointClient) Clear(ctx context.Context, oapp common.Address, origin Origin, guid [32]byte, message []byte) (*types.Receipt, error) {
	tx, err := c.contract.Transact(c.transactOpts(ctx, nil), "clear", oapp, origin, guid, message)
	if err != nil {
		return nil, errors.Wrap(err, "clear transaction failed")
	}
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "waiting for clear tx %s", tx.Hash())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Wrapf(errClearReverted, "tx %s", tx.Hash())
	}
	c.log.Debug("Cleared packet", "tx", tx.Hash(), "src_eid", origin.SrcEid, "nonce", origin.Nonce)
	return receipt, nil
}
