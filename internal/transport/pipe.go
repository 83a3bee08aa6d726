package transport

import "sync"

// Pipe is an in-memory loopback handle: bytes written to it are delivered
// synchronously to its data listeners.
type Pipe struct {
	ls listeners

	mu    sync.Mutex
	ended bool
}

func NewPipe() *Pipe {
	return &Pipe{}
}

func (p *Pipe) OnData(fn func(chunk []byte)) { p.ls.addData(fn) }

func (p *Pipe) OnEnd(fn func()) { p.ls.addEnd(fn) }

func (p *Pipe) OnError(fn func(err error)) { p.ls.addError(fn) }

// Write delivers b to the data listeners. It never reports backpressure
// while the pipe is open.
func (p *Pipe) Write(b []byte, done func(err error)) bool {
	if p.isEnded() {
		if done != nil {
			done(ErrClosed)
		}
		p.ls.emitError(ErrClosed)
		return false
	}
	p.ls.emitData(b)
	if done != nil {
		done(nil)
	}
	return true
}

// Push delivers chunk as input, ignoring the write path.
func (p *Pipe) Push(chunk []byte) {
	if p.isEnded() {
		return
	}
	p.ls.emitData(chunk)
}

// End notifies end listeners once. Later writes fail with ErrClosed.
func (p *Pipe) End() {
	p.mu.Lock()
	if p.ended {
		p.mu.Unlock()
		return
	}
	p.ended = true
	p.mu.Unlock()
	p.ls.emitEnd()
}

// Fail notifies error listeners with err.
func (p *Pipe) Fail(err error) {
	p.ls.emitError(err)
}

func (p *Pipe) isEnded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}
