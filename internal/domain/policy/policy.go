package policy

import (
	"github.com/okian/elrobot/internal/domain/model"
)

// Default geometry constants. The center assumes a 500 pixel wide frame.
const (
	defaultCenter  = 250
	defaultOffAxis = 75
	defaultNear    = 90
	defaultFar     = 70

	defaultLinearScale  = 10.0
	defaultAngularScale = 100.0
)

// Geometry holds the thresholds of the geometry branch. All comparisons are
// strict.
type Geometry struct {
	Center  int // horizontal reference the face midpoint is compared to
	OffAxis int // |midpoint - center| above this turns the robot
	Near    int // box height above this moves forward
	Far     int // box height below this moves backward
}

// DefaultGeometry returns the stock thresholds.
func DefaultGeometry() Geometry {
	return Geometry{Center: defaultCenter, OffAxis: defaultOffAxis, Near: defaultNear, Far: defaultFar}
}

func (g Geometry) valid() bool {
	return g.OffAxis >= 0 && g.Far <= g.Near
}

// Scale multiplies unit motions into a command.
type Scale struct {
	Linear  float64
	Angular float64
}

// Source tells which branch produced a decision.
type Source string

// Decision sources.
const (
	SourceNamed     Source = "named"
	SourceGeometry  Source = "geometry"
	SourceDebounced Source = "debounced"
	SourceNoBox     Source = "no_box"
)

// Input is what the engine knows about one face slot at tick time.
type Input struct {
	Key   model.FaceKey
	Label string
	// Box is nil when no geometry is known for the slot.
	Box *model.Box
	// Samples is the monotonically increasing box sample counter of the slot.
	Samples uint64
}

// Decision is the outcome for one face slot.
type Decision struct {
	Motion  model.Motion
	Command model.Command
	Source  Source
}

// Engine evaluates the command policy. It keeps per-slot debounce state and
// is meant to be driven by a single control loop; it is not safe for
// concurrent use.
type Engine struct {
	named    map[string]model.Motion
	geometry Geometry
	scale    Scale
	debounce bool

	states         map[model.FaceKey]model.CommandState
	recomputations uint64
	debounced      uint64
}

// NewEngine creates an engine with the stock thresholds and scales and no
// named identities.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		named:    map[string]model.Motion{},
		geometry: DefaultGeometry(),
		scale:    Scale{Linear: defaultLinearScale, Angular: defaultAngularScale},
		states:   make(map[model.FaceKey]model.CommandState),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Named returns the fixed motion of a named identity.
func (e *Engine) Named(name string) (model.Motion, bool) {
	if name == "" {
		return model.Motion{}, false
	}
	m, ok := e.named[name]
	return m, ok
}

// Geometry applies the geometry branch to a box. Turning wins over
// advancing: height is only looked at when the face is inside the
// off-axis band.
func (e *Engine) Geometry(b model.Box) model.Motion {
	offAxis := b.Middle() - e.geometry.Center
	switch {
	case offAxis > e.geometry.OffAxis:
		return model.Motion{Angular: -1}
	case offAxis < -e.geometry.OffAxis:
		return model.Motion{Angular: 1}
	}

	height := b.Height()
	switch {
	case height > e.geometry.Near:
		return model.Motion{Linear: 1}
	case height < e.geometry.Far:
		return model.Motion{Linear: -1}
	}
	return model.Motion{}
}

// Command scales a unit motion. Only linear x and angular z are set.
func (e *Engine) Command(m model.Motion) model.Command {
	return model.Command{
		Linear:  model.Vector3{X: float64(m.Linear) * e.scale.Linear},
		Angular: model.Vector3{Z: float64(m.Angular) * e.scale.Angular},
	}
}

// Decide evaluates one face slot. Named identities are never debounced.
func (e *Engine) Decide(in Input) Decision {
	if m, ok := e.Named(in.Label); ok {
		return e.decision(m, SourceNamed)
	}

	if in.Box == nil {
		return e.decision(model.Motion{}, SourceNoBox)
	}

	if e.debounce {
		if st, ok := e.states[in.Key]; ok && st.LastAppliedSampleCount == in.Samples {
			e.debounced++
			return e.decision(st.LastDecision, SourceDebounced)
		}
	}

	m := e.Geometry(*in.Box)
	e.recomputations++
	if e.debounce {
		e.states[in.Key] = model.CommandState{LastAppliedSampleCount: in.Samples, LastDecision: m}
	}
	return e.decision(m, SourceGeometry)
}

func (e *Engine) decision(m model.Motion, src Source) Decision {
	return Decision{Motion: m, Command: e.Command(m), Source: src}
}

// State returns the debounce state of a slot.
func (e *Engine) State(key model.FaceKey) (model.CommandState, bool) {
	st, ok := e.states[key]
	return st, ok
}

// Recomputations counts geometry evaluations.
func (e *Engine) Recomputations() uint64 { return e.recomputations }

// Debounced counts decisions reused without recomputation.
func (e *Engine) Debounced() uint64 { return e.debounced }
