package gpio

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Event is one level change on a simulated output.
type Event struct {
	Pin  int
	High bool
	At   time.Time
}

// Sim is a GPIO bus with no hardware behind it. Outputs remember their
// level, inputs read whatever Drive last set (or a scripted Input), and
// every write can be logged and recorded.
type Sim struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	levels  map[int]bool
	inputs  map[int]Input
	audit   []Event
	record  bool
	verbose bool
}

type simLine struct {
	bus *Sim
	pin int
}

type simInput struct {
	bus *Sim
	pin int
}

func NewSim(clock clockwork.Clock) *Sim {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sim{
		clock:  clock,
		levels: make(map[int]bool),
		inputs: make(map[int]Input),
	}
}

// Record turns the audit trail on or off.
func (s *Sim) Record(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = on
}

// Verbose logs every write.
func (s *Sim) Verbose(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verbose = on
}

func (s *Sim) Output(pin int) (Line, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	s.set(pin, false)
	return &simLine{bus: s, pin: pin}, nil
}

func (s *Sim) Input(pin int) (Input, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.inputs[pin]; ok {
		return in, nil
	}
	return &simInput{bus: s, pin: pin}, nil
}

func (s *Sim) Close() error {
	return nil
}

// Script makes Input(pin) hand back in.
func (s *Sim) Script(pin int, in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[pin] = in
}

// Drive sets the level an unscripted input reads.
func (s *Sim) Drive(pin int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = high
}

// Level is the current level of a pin.
func (s *Sim) Level(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[pin]
}

// Audit returns a copy of the recorded writes.
func (s *Sim) Audit() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *Sim) ResetAudit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = s.audit[:0]
}

func (s *Sim) set(pin int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[pin] = high
	if s.verbose {
		log.Printf("Set pin %v to %v", pin, high)
	}
	if s.record {
		s.audit = append(s.audit, Event{Pin: pin, High: high, At: s.clock.Now()})
	}
}

func (l *simLine) Set(high bool) error {
	l.bus.set(l.pin, high)
	return nil
}

func (i *simInput) Read() bool {
	return i.bus.Level(i.pin)
}
