package ball

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Message options use the type-3 layout:
//
//	uint16 type (=3) ‖ entries
//	entry:    uint8 workerID ‖ uint16 size ‖ body[size]
//	executor: body = uint8 optionType ‖ params
//	dvn:      body = uint8 dvnIdx ‖ uint8 optionType ‖ params
const (
	OptionsType3 uint16 = 3

	ExecutorWorkerID uint8 = 1
	DVNWorkerID      uint8 = 2

	ExecutorOptionLzReceive        uint8 = 1
	ExecutorOptionNativeDrop       uint8 = 2
	ExecutorOptionLzCompose        uint8 = 3
	ExecutorOptionOrderedExecution uint8 = 4

	DVNOptionPrecrime uint8 = 1
)

type workerOption struct {
	workerID   uint8
	dvnIdx     uint8
	optionType uint8
	params     []byte
	raw        []byte
}

// slot identifies what an option configures. Two options in the same slot conflict.
func (o workerOption) slot() string {
	key := []byte{o.workerID, o.dvnIdx, o.optionType}
	if o.workerID != ExecutorWorkerID {
		return string(key)
	}
	switch o.optionType {
	case ExecutorOptionLzReceive, ExecutorOptionOrderedExecution:
	case ExecutorOptionNativeDrop:
		// amount(16) ‖ receiver(32): one drop per receiver.
		if len(o.params) >= 48 {
			key = append(key, o.params[16:48]...)
		} else {
			key = append(key, o.params...)
		}
	case ExecutorOptionLzCompose:
		// index(2) ‖ gas ‖ value: one per compose index.
		if len(o.params) >= 2 {
			key = append(key, o.params[:2]...)
		} else {
			key = append(key, o.params...)
		}
	default:
		key = append(key, o.params...)
	}
	return string(key)
}

func parseOptions(opts []byte) ([]workerOption, error) {
	if len(opts) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidOptions, len(opts))
	}
	if typ := binary.BigEndian.Uint16(opts[:2]); typ != OptionsType3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOptionType, typ)
	}
	var out []workerOption
	for cursor := 2; cursor < len(opts); {
		if len(opts)-cursor < 3 {
			return nil, fmt.Errorf("%w: truncated entry at %d", ErrInvalidOptions, cursor)
		}
		worker := opts[cursor]
		size := int(binary.BigEndian.Uint16(opts[cursor+1 : cursor+3]))
		end := cursor + 3 + size
		if end > len(opts) {
			return nil, fmt.Errorf("%w: entry at %d overruns options", ErrInvalidOptions, cursor)
		}
		body := opts[cursor+3 : end]
		opt := workerOption{workerID: worker, raw: opts[cursor:end]}
		switch worker {
		case ExecutorWorkerID:
			if len(body) < 1 {
				return nil, fmt.Errorf("%w: empty executor option", ErrInvalidOptions)
			}
			opt.optionType, opt.params = body[0], body[1:]
		case DVNWorkerID:
			if len(body) < 2 {
				return nil, fmt.Errorf("%w: short dvn option", ErrInvalidOptions)
			}
			opt.dvnIdx, opt.optionType, opt.params = body[0], body[1], body[2:]
		default:
			return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerID, worker)
		}
		out = append(out, opt)
		cursor = end
	}
	return out, nil
}

// ValidateOptions checks that opts is empty or well-formed type-3 options.
func ValidateOptions(opts []byte) error {
	if len(opts) == 0 {
		return nil
	}
	_, err := parseOptions(opts)
	return err
}

// CombineOptions merges caller-supplied options into the enforced ones.
// Every enforced option is kept; a caller option is kept only if no enforced
// option occupies the same slot. With either side empty the other is
// returned as is.
func CombineOptions(enforced, extra []byte) ([]byte, error) {
	if len(enforced) == 0 {
		return common.CopyBytes(extra), nil
	}
	if len(extra) == 0 {
		return common.CopyBytes(enforced), nil
	}
	base, err := parseOptions(enforced)
	if err != nil {
		return nil, fmt.Errorf("enforced options: %w", err)
	}
	add, err := parseOptions(extra)
	if err != nil {
		return nil, fmt.Errorf("caller options: %w", err)
	}

	taken := make(map[string]struct{}, len(base))
	out := binary.BigEndian.AppendUint16(make([]byte, 0, len(enforced)+len(extra)), OptionsType3)
	for _, o := range base {
		taken[o.slot()] = struct{}{}
		out = append(out, o.raw...)
	}
	for _, o := range add {
		if _, ok := taken[o.slot()]; ok {
			continue
		}
		out = append(out, o.raw...)
	}
	return out, nil
}

// OptionsBuilder assembles type-3 options.
type OptionsBuilder struct {
	buf []byte
}

func NewOptions() *OptionsBuilder {
	return &OptionsBuilder{buf: binary.BigEndian.AppendUint16(nil, OptionsType3)}
}

func (b *OptionsBuilder) addExecutorOption(optionType uint8, params []byte) *OptionsBuilder {
	b.buf = append(b.buf, ExecutorWorkerID)
	b.buf = binary.BigEndian.AppendUint16(b.buf, uint16(len(params)+1))
	b.buf = append(b.buf, optionType)
	b.buf = append(b.buf, params...)
	return b
}

// AddExecutorLzReceiveOption sets the gas (and optional native value) the
// executor provides to the receive call on the destination.
func (b *OptionsBuilder) AddExecutorLzReceiveOption(gas, value uint64) *OptionsBuilder {
	params := appendUint128(nil, gas)
	if value > 0 {
		params = appendUint128(params, value)
	}
	return b.addExecutorOption(ExecutorOptionLzReceive, params)
}

func (b *OptionsBuilder) AddExecutorNativeDropOption(amount uint64, receiver common.Hash) *OptionsBuilder {
	params := appendUint128(nil, amount)
	params = append(params, receiver[:]...)
	return b.addExecutorOption(ExecutorOptionNativeDrop, params)
}

func (b *OptionsBuilder) AddExecutorOrderedExecutionOption() *OptionsBuilder {
	return b.addExecutorOption(ExecutorOptionOrderedExecution, nil)
}

func (b *OptionsBuilder) AddDVNPrecrimeOption(dvnIdx uint8) *OptionsBuilder {
	b.buf = append(b.buf, DVNWorkerID)
	b.buf = binary.BigEndian.AppendUint16(b.buf, 2)
	b.buf = append(b.buf, dvnIdx, DVNOptionPrecrime)
	return b
}

func (b *OptionsBuilder) Bytes() []byte {
	return common.CopyBytes(b.buf)
}

func appendUint128(buf []byte, v uint64) []byte {
	buf = append(buf, make([]byte, 8)...)
	return binary.BigEndian.AppendUint64(buf, v)
}
