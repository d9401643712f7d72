package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"heating_controller/internal/models"
)

// ----------- Simulation constants -----------
const (
	SimAmbientC     = 15.0 // unheated room temperature °C
	SimPipeHotC     = 45.0 // pipe temperature with the stove running °C
	SimMaxRoomC     = 28.0 // a heated room never exceeds this °C
	RoomHeatCPerMin = 0.2  // °C per minute with valve and stove ON
	RoomCoolCPerMin = 0.05 // °C per minute drift toward ambient otherwise
	PipeHeatCPerMin = 5.0
	PipeCoolCPerMin = 2.0
	simStartOffsetC = 3.0 // rooms start this far above ambient
)

// SimHouse is a small thermal model used by the "sim" driver. Each room
// warms while both its valve and the stove are ON and drifts to ambient
// otherwise. State advances lazily on every access from the elapsed time.
type SimHouse struct {
	mu  sync.Mutex
	now func() time.Time

	updatedAt time.Time
	stoveOn   bool
	pipeC     float64
	rooms     map[string]*simRoom
}

type simRoom struct {
	tempC   float64
	valveOn bool
}

func NewSimHouse(roomKeys []string) *SimHouse {
	h := &SimHouse{
		now:   time.Now,
		pipeC: SimAmbientC,
		rooms: make(map[string]*simRoom, len(roomKeys)),
	}
	for _, k := range roomKeys {
		h.rooms[k] = &simRoom{tempC: SimAmbientC + simStartOffsetC}
	}
	h.updatedAt = h.now()
	return h
}

// advance moves the model forward to now. Caller holds mu.
func (h *SimHouse) advance() {
	now := h.now()
	elapsed := now.Sub(h.updatedAt).Minutes()
	if elapsed <= 0 {
		return
	}
	h.updatedAt = now

	if h.stoveOn {
		h.pipeC = minFloat(h.pipeC+PipeHeatCPerMin*elapsed, SimPipeHotC)
	} else {
		h.pipeC = maxFloat(h.pipeC-PipeCoolCPerMin*elapsed, SimAmbientC)
	}

	for _, r := range h.rooms {
		if r.valveOn && h.stoveOn {
			r.tempC = minFloat(r.tempC+RoomHeatCPerMin*elapsed, SimMaxRoomC)
			continue
		}
		if r.tempC > SimAmbientC {
			r.tempC = maxFloat(r.tempC-RoomCoolCPerMin*elapsed, SimAmbientC)
		}
	}
}

func (h *SimHouse) temperature(key string) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.advance()
	if key == models.KeyPipe {
		return h.pipeC, nil
	}
	r, ok := h.rooms[key]
	if !ok {
		return 0, &SensorError{ID: key, Err: fmt.Errorf("no simulated room")}
	}
	return r.tempC, nil
}

func (h *SimHouse) level(key string) (*bool, error) {
	if key == models.KeyStove {
		return &h.stoveOn, nil
	}
	r, ok := h.rooms[key]
	if !ok {
		return nil, fmt.Errorf("no simulated relay %q", key)
	}
	return &r.valveOn, nil
}

// Sensor returns a simulated sensor for a room key or the pipe.
func (h *SimHouse) Sensor(key string) Sensor { return &simSensor{h: h, key: key} }

// Relay returns a simulated relay for a room key or the stove. pin is only
// used in error reports.
func (h *SimHouse) Relay(key string, pin int) Relay { return &simRelay{h: h, key: key, pin: pin} }

type simSensor struct {
	h   *SimHouse
	key string
}

func (s *simSensor) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.h.temperature(s.key)
}

type simRelay struct {
	h   *SimHouse
	key string
	pin int
}

func (r *simRelay) ReadState(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.advance()
	lvl, err := r.h.level(r.key)
	if err != nil {
		return false, &RelayError{Pin: r.pin, Op: "read", Err: err}
	}
	return *lvl, nil
}

func (r *simRelay) SetState(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	r.h.advance()
	lvl, err := r.h.level(r.key)
	if err != nil {
		return &RelayError{Pin: r.pin, Op: "write", Err: err}
	}
	*lvl = on
	return nil
}

func (r *simRelay) Setup(ctx context.Context) error {
	_, err := r.ReadState(ctx)
	return err
}

// helpers
func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
