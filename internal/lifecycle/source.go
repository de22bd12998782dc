package lifecycle

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// Source delivers presence changes until Close is called.
type Source interface {
	Events() <-chan AppState
	Close() error
}

// SignalSource maps process signals to presence changes: SIGUSR1 moves the
// app to the background, SIGUSR2 and SIGCONT bring it back.
type SignalSource struct {
	signals chan os.Signal
	events  chan AppState
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewSignalSource starts listening for lifecycle signals.
func NewSignalSource() *SignalSource {
	s := &SignalSource{
		signals: make(chan os.Signal, 4),
		events:  make(chan AppState, 4),
		done:    make(chan struct{}),
	}
	signal.Notify(s.signals, unix.SIGUSR1, unix.SIGUSR2, unix.SIGCONT)
	s.wg.Add(1)
	go s.forward()
	return s
}

func (s *SignalSource) forward() {
	defer s.wg.Done()
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case sig := <-s.signals:
			state, ok := stateForSignal(sig)
			if !ok {
				continue
			}
			select {
			case s.events <- state:
			case <-s.done:
				return
			}
		}
	}
}

func stateForSignal(sig os.Signal) (AppState, bool) {
	switch sig {
	case unix.SIGUSR1:
		return StateBackground, true
	case unix.SIGUSR2, unix.SIGCONT:
		return StateActive, true
	default:
		return StateActive, false
	}
}

// Events returns the presence channel. It is closed after Close.
func (s *SignalSource) Events() <-chan AppState {
	return s.events
}

// Close stops signal delivery and releases the forwarding goroutine.
func (s *SignalSource) Close() error {
	s.once.Do(func() {
		signal.Stop(s.signals)
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// ChannelSource is a Source fed by Send.
type ChannelSource struct {
	mu     sync.Mutex
	events chan AppState
	closed bool
}

// NewChannelSource returns a source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{events: make(chan AppState, buffer)}
}

// Send delivers state. It reports false once the source is closed.
func (s *ChannelSource) Send(state AppState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.events <- state
	return true
}

func (s *ChannelSource) Events() <-chan AppState {
	return s.events
}

func (s *ChannelSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}
