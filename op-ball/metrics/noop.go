package metrics

import "github.com/holiman/uint256"

type noopMetrics struct{}

var NoopMetrics Metricer = new(noopMetrics)

func (*noopMetrics) RecordInfo(version string)               {}
func (*noopMetrics) RecordUp()                               {}
func (*noopMetrics) RecordBallReceived(uint32, *uint256.Int) {}
func (*noopMetrics) RecordBallSent(uint32, *uint256.Int)     {}
func (*noopMetrics) RecordBounce(uint32)                     {}
func (*noopMetrics) RecordRejected(string)                   {}
func (*noopMetrics) RecordDispatchFailed(uint32)             {}
