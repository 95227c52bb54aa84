package ball

import (
	"errors"

	"github.com/jinmel/interop/op-ball/codec"
)

var (
	// ErrInvalidMessageLength is returned for payloads that fail the codec bounds checks.
	ErrInvalidMessageLength = codec.ErrInvalidMessageLength
	// ErrInvalidMessageType is returned when an inbound payload is not of the
	// single kind this deployment accepts.
	ErrInvalidMessageType = errors.New("invalid message type")
	// ErrInvalidBallLength is returned when a stored ball record is malformed.
	ErrInvalidBallLength = errors.New("invalid ball length")

	ErrInvalidStoreLength  = errors.New("invalid store record length")
	ErrStoreNotInitialized = errors.New("store not initialized")
	ErrAlreadyInitialized  = errors.New("store already initialized")
	ErrUnauthorized        = errors.New("unauthorized")

	ErrPeerNotFound       = errors.New("peer not found")
	ErrDuplicatePeer      = errors.New("duplicate peer")
	ErrUnauthorizedSender = errors.New("sender is not the configured peer")
	ErrSelfPeer           = errors.New("peer eid is the local eid")

	ErrInvalidOptionType = errors.New("invalid option type")
	ErrInvalidOptions    = errors.New("invalid options")
	ErrInvalidWorkerID   = errors.New("invalid worker id")
)
