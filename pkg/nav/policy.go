// Package nav implements the autonomous navigation policy.
//
// The policy is a two-state machine (idle, exploring) driving a single
// background loop. Each iteration samples the ranging sensor, reads the
// cached vision detections, classifies the situation into a severity tier
// and issues one locomotion command. Obstacle responses blend deterministic
// turn alternation with stochastic perturbation so the robot neither
// oscillates between two walls nor wanders aimlessly in the open; a
// stuck counter escalates to a dedicated escape maneuver when alternation
// alone is not making progress.
package nav

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cybercrawl/go-spider/internal/log"
	"github.com/cybercrawl/go-spider/pkg/ranging"
	"github.com/cybercrawl/go-spider/pkg/vision"
)

// Lifecycle errors returned by Start and Stop. These are state conflicts,
// not faults; callers map them to user-facing responses.
var (
	ErrAlreadyRunning = errors.New("navigation already running")
	ErrNotRunning     = errors.New("navigation not running")
)

// State is the policy's lifecycle state.
type State string

const (
	StateIdle      State = "IDLE"
	StateExploring State = "EXPLORING"
)

// Direction of the last correction turn.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

func opposite(d Direction) Direction {
	if d == DirLeft {
		return DirRight
	}
	return DirLeft
}

// Mover is the locomotion surface the policy drives. Implemented by the
// gait sequencer.
type Mover interface {
	Stand() error
	Sit() error
	StepForward(paces int) error
	StepBack(paces int) error
	TurnLeft(steps int) error
	TurnRight(steps int) error
}

// Ranger supplies one smoothed distance reading per call.
type Ranger interface {
	Distance() ranging.Reading
}

// DisabledRanger is the null ranger used when the ultrasonic sensor is
// unavailable; every reading fails, which the policy treats as ambiguous
// rather than clear.
type DisabledRanger struct{}

func (DisabledRanger) Distance() ranging.Reading { return ranging.Invalid() }

// Config tunes the decision loop. The turn heuristics (randomization
// probabilities, opposite-turn and stuck thresholds) are tuning choices,
// not invariants, so they live here rather than as constants.
type Config struct {
	// Distance tiers (cm). Below CriticalCM the robot backs up and turns;
	// between CriticalCM and SafeCM it only corrects its heading.
	CriticalCM float64
	SafeCM     float64

	// Vision gate: detections of these classes above MinConfidence whose
	// center falls within the central CenterFraction of the frame width
	// force the critical tier regardless of the ranging distance.
	CriticalClasses []string
	MinConfidence   float64
	CenterFraction  float64
	FrameWidth      int

	// Turn heuristics.
	CriticalRandomChance float64 // chance a critical turn ignores alternation
	WarningRandomChance  float64 // chance a warning turn ignores alternation
	OppositeAfter        int     // consecutive obstacles before forcing the opposite turn
	StuckAfter           int     // consecutive obstacles before the escape maneuver

	// Pacing.
	LoopDelay     time.Duration // between iterations
	CautiousPause time.Duration // on a failed sensor reading
	FaultBackoff  time.Duration // after a recovered iteration panic

	// Rand drives the stochastic turn choices. Nil seeds from the clock.
	Rand *rand.Rand
}

// DefaultConfig returns the stock tuning for a 20cm obstacle threshold.
func DefaultConfig(obstacleThresholdCM float64, frameWidth int) Config {
	return Config{
		CriticalCM: obstacleThresholdCM,
		SafeCM:     obstacleThresholdCM + 10,

		CriticalClasses: []string{"person", "dog", "cat", "chair", "couch", "car"},
		MinConfidence:   0.7,
		CenterFraction:  0.6,
		FrameWidth:      frameWidth,

		CriticalRandomChance: 0.3,
		WarningRandomChance:  0.4,
		OppositeAfter:        3,
		StuckAfter:           5,

		LoopDelay:     50 * time.Millisecond,
		CautiousPause: 500 * time.Millisecond,
		FaultBackoff:  time.Second,
	}
}

// Status is the policy snapshot exposed to the web layer.
type Status struct {
	State           State    `json:"state"`
	Running         bool     `json:"is_running"`
	RunID           string   `json:"run_id,omitempty"`
	StepCount       int      `json:"step_count"`
	ObstacleCount   int      `json:"obstacle_count"`
	SensorEnabled   bool     `json:"sensor_enabled"`
	ActuatorEnabled bool     `json:"actuator_enabled"`
	DistanceCM      *float64 `json:"distance_cm,omitempty"` // last valid-or-not reading; nil when failed
}

// Policy owns the navigation loop and its counters.
type Policy struct {
	mover  Mover
	ranger Ranger
	vision vision.Provider
	cfg    Config
	rng    *rand.Rand

	sensorEnabled   bool
	actuatorEnabled bool

	// lifecycle serializes Start and Stop against each other. It is held
	// across the stand and sit maneuvers so mu stays free for status
	// snapshots while the servos settle.
	lifecycle sync.Mutex

	mu     sync.Mutex
	state  State
	runID  string
	cancel context.CancelFunc
	done   chan struct{}

	// Loop-owned counters. Written only by the loop goroutine while
	// exploring; read under mu for status snapshots.
	stepCount     int
	obstacleCount int
	consecutive   int
	lastTurn      Direction
	lastReading   ranging.Reading
}

// New creates an idle policy. sensorEnabled and actuatorEnabled are
// capability flags decided at construction time and only reported, never
// branched on: a disabled sensor ranger returns failed readings and a
// disabled actuator is a no-op, both behind the same interfaces.
func New(mover Mover, ranger Ranger, provider vision.Provider, cfg Config, sensorEnabled, actuatorEnabled bool) *Policy {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{
		mover:           mover,
		ranger:          ranger,
		vision:          provider,
		cfg:             cfg,
		rng:             rng,
		sensorEnabled:   sensorEnabled,
		actuatorEnabled: actuatorEnabled,
		state:           StateIdle,
	}
}

// Start stands the robot up and launches the exploration loop. Returns
// ErrAlreadyRunning when a loop is active; the running loop is unaffected.
func (p *Policy) Start() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	exploring := p.state == StateExploring
	p.mu.Unlock()
	if exploring {
		return ErrAlreadyRunning
	}

	// Standing takes the servos a while to settle; keep mu free so status
	// snapshots stay responsive in the meantime.
	if err := p.mover.Stand(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.runID = uuid.NewString()
	p.stepCount = 0
	p.obstacleCount = 0
	p.consecutive = 0
	p.lastTurn = DirNone
	p.state = StateExploring

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)

	log.Info("navigation started", "run_id", p.runID)
	return nil
}

// Stop cancels the loop, waits for the in-flight iteration to finish and
// sits the robot down. Returns ErrNotRunning when already idle.
func (p *Policy) Stop() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	if p.state != StateExploring {
		p.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := p.cancel, p.done
	p.state = StateIdle
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done

	if err := p.mover.Sit(); err != nil {
		log.Error("sit on stop failed", "error", err)
	}
	log.Info("navigation stopped")
	return nil
}

// Running reports whether the exploration loop is active.
func (p *Policy) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateExploring
}

// Status returns a point-in-time snapshot.
func (p *Policy) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Status{
		State:           p.state,
		Running:         p.state == StateExploring,
		RunID:           p.runID,
		StepCount:       p.stepCount,
		ObstacleCount:   p.obstacleCount,
		SensorEnabled:   p.sensorEnabled,
		ActuatorEnabled: p.actuatorEnabled,
	}
	if p.lastReading.OK {
		cm := p.lastReading.CM
		s.DistanceCM = &cm
	}
	return s
}

func (p *Policy) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.iterate()

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.LoopDelay):
		}
	}
}

// iterate runs one decision cycle. A panic anywhere inside is recovered
// and the loop continues after a backoff; a single bad reading or actuator
// fault must never kill navigation.
func (p *Policy) iterate() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("navigation iteration panicked", "panic", r)
			time.Sleep(p.cfg.FaultBackoff)
		}
	}()

	reading := p.ranger.Distance()
	p.mu.Lock()
	p.lastReading = reading
	p.mu.Unlock()

	switch {
	case !reading.OK:
		// Ambiguous, not an obstacle. Pause rather than turn.
		log.Debug("sensor reading failed, proceeding cautiously")
		p.mu.Lock()
		p.consecutive = 0
		p.mu.Unlock()
		time.Sleep(p.cfg.CautiousPause)

	case reading.CM < p.cfg.CriticalCM:
		p.avoidCritical(reading, false)

	case p.criticalObjectAhead():
		p.avoidCritical(reading, true)

	case reading.CM < p.cfg.SafeCM:
		p.correctHeading(reading)

	default:
		p.advance()
	}

	p.mu.Lock()
	stuck := p.consecutive >= p.cfg.StuckAfter
	p.mu.Unlock()
	if stuck {
		p.escape()
	}
}

// criticalObjectAhead reports whether the latest detections contain an
// allowlisted object, confidently recognized, centered in the robot's
// forward path. Off-center objects are ignored even at high confidence.
func (p *Policy) criticalObjectAhead() bool {
	dets := p.vision.Detections()
	if len(dets) == 0 {
		return false
	}

	half := float64(p.cfg.FrameWidth) * p.cfg.CenterFraction / 2
	center := float64(p.cfg.FrameWidth) / 2

	for _, d := range dets {
		if d.Confidence <= p.cfg.MinConfidence {
			continue
		}
		if !p.isCriticalClass(d.Class) {
			continue
		}
		if off := float64(d.CenterX) - center; off >= -half && off <= half {
			log.Info("critical object ahead", "class", d.Class, "confidence", d.Confidence)
			return true
		}
	}
	return false
}

func (p *Policy) isCriticalClass(class string) bool {
	for _, c := range p.cfg.CriticalClasses {
		if c == class {
			return true
		}
	}
	return false
}

// avoidCritical backs away from a close obstacle, then turns.
func (p *Policy) avoidCritical(r ranging.Reading, visionTriggered bool) {
	p.mu.Lock()
	p.consecutive++
	p.obstacleCount++
	dir := p.chooseTurn(p.cfg.CriticalRandomChance)
	p.lastTurn = dir
	p.mu.Unlock()

	log.Info("critical obstacle", "cm", r.CM, "vision", visionTriggered, "turn", dir)

	if err := p.mover.StepBack(2); err != nil {
		log.Error("back away failed", "error", err)
		return
	}
	p.turn(dir, 2)
}

// correctHeading nudges the robot away from a mid-range obstacle without
// backing up.
func (p *Policy) correctHeading(r ranging.Reading) {
	p.mu.Lock()
	p.consecutive++
	dir := p.chooseTurn(p.cfg.WarningRandomChance)
	p.lastTurn = dir
	p.mu.Unlock()

	log.Debug("obstacle warning", "cm", r.CM, "turn", dir)
	p.turn(dir, 1)
}

// advance takes one forward pace through clear space.
func (p *Policy) advance() {
	if err := p.mover.StepForward(1); err != nil {
		log.Error("forward step failed", "error", err)
		return
	}
	p.mu.Lock()
	p.stepCount++
	p.consecutive = 0
	p.lastTurn = DirNone
	p.mu.Unlock()
}

// escape is the stuck-recovery maneuver: retreat further than a normal
// avoidance, commit to a large randomized turn and probe forward once.
func (p *Policy) escape() {
	p.mu.Lock()
	steps := 3 + p.rng.Intn(3)
	dir := DirLeft
	if p.rng.Intn(2) == 1 {
		dir = DirRight
	}
	p.consecutive = 0
	p.lastTurn = dir
	p.mu.Unlock()

	log.Warn("stuck, escaping", "turn", dir, "turn_steps", steps)

	if err := p.mover.StepBack(3); err != nil {
		log.Error("escape retreat failed", "error", err)
		return
	}
	p.turn(dir, steps)
	if err := p.mover.StepForward(1); err != nil {
		log.Error("escape probe failed", "error", err)
	}
}

// chooseTurn picks the next turn direction. Default is alternation away
// from the last turn; a random chance overrides it, and once the
// consecutive count reaches the opposite-turn threshold the choice is
// pinned to the opposite of the last turn with no randomness. Caller
// holds mu.
func (p *Policy) chooseTurn(randomChance float64) Direction {
	if p.consecutive >= p.cfg.OppositeAfter && p.lastTurn != DirNone {
		return opposite(p.lastTurn)
	}
	if p.rng.Float64() < randomChance {
		if p.rng.Intn(2) == 0 {
			return DirLeft
		}
		return DirRight
	}
	if p.lastTurn == DirLeft {
		return DirRight
	}
	return DirLeft
}

func (p *Policy) turn(dir Direction, steps int) {
	var err error
	if dir == DirRight {
		err = p.mover.TurnRight(steps)
	} else {
		err = p.mover.TurnLeft(steps)
	}
	if err != nil {
		log.Error("turn failed", "direction", dir, "error", err)
	}
}
