package ball

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jinmel/interop/op-ball/codec"
	"github.com/jinmel/interop/op-ball/storage"
)

// State is the application record: who administers it, which transport
// program it is registered with, and the current ball.
type State struct {
	Admin    common.Hash
	Endpoint common.Hash
	Ball     *uint256.Int
}

func (s *State) Copy() *State {
	return &State{
		Admin:    s.Admin,
		Endpoint: s.Endpoint,
		Ball:     s.Ball.Clone(),
	}
}

type InitParams struct {
	Admin    common.Hash
	Endpoint common.Hash
}

// Store persists State in a key/value store. Admin and endpoint live in one
// record, the ball in another so that ball updates are a single write.
type Store struct {
	kv        storage.KV
	configKey []byte
	ballKey   []byte
}

func NewStore(kv storage.KV, seed string) *Store {
	return &Store{
		kv:        kv,
		configKey: []byte(seed + "/config"),
		ballKey:   []byte(seed + "/ball"),
	}
}

// Init creates the state record. Only the deployer may do this, and only once.
func (s *Store) Init(caller, deployer common.Hash, params InitParams) (*State, error) {
	if caller != deployer {
		return nil, fmt.Errorf("%w: init by %s", ErrUnauthorized, caller)
	}
	_, err := s.kv.Get(s.configKey)
	if err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to read store config: %w", err)
	}

	st := &State{
		Admin:    params.Admin,
		Endpoint: params.Endpoint,
		Ball:     InitialBall(),
	}
	// The config record marks the store as initialized, so it goes last.
	if err := s.SaveBall(st.Ball); err != nil {
		return nil, err
	}
	config := make([]byte, 0, 2*common.HashLength)
	config = append(config, st.Admin[:]...)
	config = append(config, st.Endpoint[:]...)
	if err := s.kv.Put(s.configKey, config); err != nil {
		return nil, fmt.Errorf("failed to write store config: %w", err)
	}
	return st, nil
}

func (s *Store) Load() (*State, error) {
	config, err := s.kv.Get(s.configKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrStoreNotInitialized
	} else if err != nil {
		return nil, fmt.Errorf("failed to read store config: %w", err)
	}
	if len(config) != 2*common.HashLength {
		return nil, fmt.Errorf("%w: config is %d bytes", ErrInvalidStoreLength, len(config))
	}

	raw, err := s.kv.Get(s.ballKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: ball record missing", ErrInvalidBallLength)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read ball: %w", err)
	}
	if len(raw) != codec.Uint256Size {
		return nil, fmt.Errorf("%w: ball is %d bytes", ErrInvalidBallLength, len(raw))
	}

	return &State{
		Admin:    common.BytesToHash(config[:common.HashLength]),
		Endpoint: common.BytesToHash(config[common.HashLength:]),
		Ball:     new(uint256.Int).SetBytes32(raw),
	}, nil
}

func (s *Store) SaveBall(ball *uint256.Int) error {
	word := ball.Bytes32()
	if err := s.kv.Put(s.ballKey, word[:]); err != nil {
		return fmt.Errorf("failed to write ball: %w", err)
	}
	return nil
}
