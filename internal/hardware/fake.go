package hardware

import (
	"context"
	"sync"
)

// FakeSensor is a test double returning a scripted temperature.
type FakeSensor struct {
	mu sync.Mutex

	// Value is returned by Read unless ReadError is set.
	Value float64

	// ReadError, if set, will be returned by Read().
	ReadError error

	// Reads counts calls to Read.
	Reads int
}

func NewFakeSensor(v float64) *FakeSensor { return &FakeSensor{Value: v} }

func (f *FakeSensor) Read(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Value, nil
}

// FakeRelay is an in-memory relay recording every write.
type FakeRelay struct {
	mu sync.Mutex

	// On is the current output level.
	On bool

	// ReadError, SetError and SetupError, if set, are returned by the matching call.
	ReadError  error
	SetError   error
	SetupError error

	// Writes contains every level passed to SetState, in order.
	Writes []bool

	// SetupCalls counts calls to Setup.
	SetupCalls int

	// Block, if non-nil, makes every call wait until it is closed.
	Block chan struct{}
}

func NewFakeRelay(on bool) *FakeRelay { return &FakeRelay{On: on} }

func (f *FakeRelay) wait() {
	if f.Block != nil {
		<-f.Block
	}
}

func (f *FakeRelay) ReadState(ctx context.Context) (bool, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.On, nil
}

func (f *FakeRelay) SetState(ctx context.Context, on bool) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, on)
	f.On = on
	return nil
}

func (f *FakeRelay) Setup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetupCalls++
	return f.SetupError
}

// WriteCount returns the number of successful SetState calls.
func (f *FakeRelay) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Writes)
}

// State returns the current output level.
func (f *FakeRelay) State() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.On
}
