package stream

// Recorder receives performance hooks. It is owned by the caller and shared
// across streams. StartTimer begins a span; calling the returned func ends it.
type Recorder interface {
	StartTimer(name string) (stop func())
	Add(name string, delta float64)
}

const (
	TimerDecode = "decode"
	TimerEncode = "encode"

	CounterMessagesRead    = "messages_read"
	CounterBytesRead       = "bytes_read"
	CounterMessagesWritten = "messages_written"
	CounterBytesWritten    = "bytes_written"
	CounterBackpressure    = "write_backpressure"
)

type nopRecorder struct{}

func (nopRecorder) StartTimer(string) func() { return func() {} }

func (nopRecorder) Add(string, float64) {}
