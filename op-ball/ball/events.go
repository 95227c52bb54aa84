package ball

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// BallReceived is emitted when an inbound message sets the ball.
type BallReceived struct {
	OldBall    hexutil.Bytes `json:"oldBall"`
	NewBall    hexutil.Bytes `json:"newBall"`
	OldBallStr string        `json:"oldBallStr"`
	NewBallStr string        `json:"newBallStr"`
	SrcEID     uint32        `json:"srcEid"`
}

// BallSent is emitted when a user send decrements the ball.
type BallSent struct {
	CurrentBall    hexutil.Bytes `json:"currentBall"`
	NewBall        hexutil.Bytes `json:"newBall"`
	CurrentBallStr string        `json:"currentBallStr"`
	NewBallStr     string        `json:"newBallStr"`
	DstEID         uint32        `json:"dstEid"`
}

func newBallReceived(oldBall, newBall *uint256.Int, srcEID uint32) BallReceived {
	return BallReceived{
		OldBall:    ballBytes(oldBall),
		NewBall:    ballBytes(newBall),
		OldBallStr: ballString(oldBall),
		NewBallStr: ballString(newBall),
		SrcEID:     srcEID,
	}
}

func newBallSent(current, next *uint256.Int, dstEID uint32) BallSent {
	return BallSent{
		CurrentBall:    ballBytes(current),
		NewBall:        ballBytes(next),
		CurrentBallStr: ballString(current),
		NewBallStr:     ballString(next),
		DstEID:         dstEID,
	}
}

func ballBytes(v *uint256.Int) hexutil.Bytes {
	word := v.Bytes32()
	return word[:]
}

// ballString renders v in decimal.
func ballString(v *uint256.Int) string {
	return v.ToBig().String()
}
