package nav

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cybercrawl/go-spider/pkg/ranging"
	"github.com/cybercrawl/go-spider/pkg/vision"
)

// fakeMover records locomotion commands in order.
type fakeMover struct {
	mu      sync.Mutex
	calls   []string
	panicOn string

	// standGate, when set, makes Stand block until the channel closes,
	// simulating the servo settle time. standEntered is closed when Stand
	// begins waiting.
	standGate    chan struct{}
	standEntered chan struct{}
}

func (m *fakeMover) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn != "" && strings.HasPrefix(call, m.panicOn) {
		panic("actuator fault")
	}
	m.calls = append(m.calls, call)
	return nil
}

func (m *fakeMover) Stand() error {
	if m.standGate != nil {
		close(m.standEntered)
		<-m.standGate
	}
	return m.record("stand")
}
func (m *fakeMover) Sit() error                  { return m.record("sit") }
func (m *fakeMover) StepForward(paces int) error { return m.record(fmt.Sprintf("forward:%d", paces)) }
func (m *fakeMover) StepBack(paces int) error    { return m.record(fmt.Sprintf("back:%d", paces)) }
func (m *fakeMover) TurnLeft(steps int) error    { return m.record(fmt.Sprintf("left:%d", steps)) }
func (m *fakeMover) TurnRight(steps int) error   { return m.record(fmt.Sprintf("right:%d", steps)) }

func (m *fakeMover) count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *fakeMover) sequence() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// fakeRanger replays a scripted reading sequence, repeating the last one.
type fakeRanger struct {
	mu       sync.Mutex
	readings []ranging.Reading
	i        int
	samples  int
}

func (f *fakeRanger) sampleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}

func (f *fakeRanger) Distance() ranging.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	if f.i < len(f.readings) {
		r := f.readings[f.i]
		f.i++
		return r
	}
	if n := len(f.readings); n > 0 {
		return f.readings[n-1]
	}
	return ranging.Invalid()
}

func distances(cms ...float64) *fakeRanger {
	r := &fakeRanger{}
	for _, cm := range cms {
		r.readings = append(r.readings, ranging.Valid(cm))
	}
	return r
}

type fakeVision struct {
	dets []vision.Detection
}

func (f *fakeVision) Detections() []vision.Detection { return f.dets }

func testConfig() Config {
	cfg := DefaultConfig(20, 640)
	cfg.LoopDelay = time.Millisecond
	cfg.CautiousPause = 0
	cfg.FaultBackoff = 0
	cfg.Rand = rand.New(rand.NewSource(1))
	return cfg
}

func newTestPolicy(mover *fakeMover, ranger Ranger, dets []vision.Detection) *Policy {
	return New(mover, ranger, &fakeVision{dets: dets}, testConfig(), true, true)
}

func TestIterate_ClearAdvancesOnePace(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, distances(100), nil)

	p.iterate()

	if got := mover.sequence(); len(got) != 1 || got[0] != "forward:1" {
		t.Errorf("commands: got %v, want [forward:1]", got)
	}
	if s := p.Status(); s.StepCount != 1 || s.ObstacleCount != 0 {
		t.Errorf("status: got %+v", s)
	}
	if s := p.Status(); s.DistanceCM == nil || *s.DistanceCM != 100 {
		t.Errorf("distance_cm: got %v, want 100", s.DistanceCM)
	}
}

// The loop is the sensor's only driver. Status snapshots report the cached
// reading and must never fire a measurement of their own.
func TestStatus_ReportsCachedDistanceWithoutSampling(t *testing.T) {
	ranger := distances(42)
	p := newTestPolicy(&fakeMover{}, ranger, nil)

	p.iterate()
	sampled := ranger.sampleCount()

	for i := 0; i < 5; i++ {
		if s := p.Status(); s.DistanceCM == nil || *s.DistanceCM != 42 {
			t.Fatalf("distance_cm: got %v, want 42", s.DistanceCM)
		}
	}
	if got := ranger.sampleCount(); got != sampled {
		t.Errorf("status sampled the sensor: %d measurements after, %d before", got, sampled)
	}
}

func TestIterate_WarningTurnsWithoutBacking(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, distances(25), nil)

	p.iterate()

	if mover.count("back") != 0 {
		t.Errorf("warning tier backed up: %v", mover.sequence())
	}
	turns := mover.count("left") + mover.count("right")
	if turns != 1 {
		t.Errorf("turns: got %d, want 1 (%v)", turns, mover.sequence())
	}
	if p.consecutive != 1 {
		t.Errorf("consecutive: got %d, want 1", p.consecutive)
	}
	if s := p.Status(); s.ObstacleCount != 0 {
		t.Errorf("warning tier counted as full obstacle: %+v", s)
	}
}

func TestIterate_CriticalBacksThenTurns(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, distances(8), nil)

	p.iterate()

	got := mover.sequence()
	if len(got) != 2 || got[0] != "back:2" || (got[1] != "left:2" && got[1] != "right:2") {
		t.Errorf("commands: got %v, want [back:2 <turn>:2]", got)
	}
	if s := p.Status(); s.ObstacleCount != 1 || s.StepCount != 0 {
		t.Errorf("status: got %+v", s)
	}
}

func TestIterate_SensorErrorIsNotAnObstacle(t *testing.T) {
	mover := &fakeMover{}
	ranger := &fakeRanger{readings: []ranging.Reading{
		ranging.Valid(25), // warning, consecutive -> 1
		ranging.Invalid(), // error: counter resets, no motion
	}}
	p := newTestPolicy(mover, ranger, nil)

	p.iterate()
	if p.consecutive != 1 {
		t.Fatalf("consecutive after warning: got %d, want 1", p.consecutive)
	}

	before := len(mover.sequence())
	p.iterate()

	if p.consecutive != 0 {
		t.Errorf("consecutive after sensor error: got %d, want 0", p.consecutive)
	}
	if got := len(mover.sequence()); got != before {
		t.Errorf("sensor error issued motion commands: %v", mover.sequence()[before:])
	}
	if s := p.Status(); s.ObstacleCount != 0 {
		t.Errorf("sensor error counted as obstacle: %+v", s)
	}
}

func TestIterate_FiveCriticalReadsTriggerOneEscape(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, distances(8, 8, 8, 8, 8), nil)

	for i := 0; i < 4; i++ {
		p.iterate()
	}
	if mover.count("back:3") != 0 {
		t.Fatalf("escape fired before the stuck threshold: %v", mover.sequence())
	}

	p.iterate()

	if got := mover.count("back:3"); got != 1 {
		t.Errorf("escape retreats: got %d, want exactly 1 (%v)", got, mover.sequence())
	}
	if p.consecutive != 0 {
		t.Errorf("consecutive after escape: got %d, want 0", p.consecutive)
	}

	// The escape ends with one exploratory forward pace.
	seq := mover.sequence()
	if seq[len(seq)-1] != "forward:1" {
		t.Errorf("escape did not probe forward: %v", seq)
	}
}

func TestIterate_EscapeTurnIsThreeToFiveSteps(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		mover := &fakeMover{}
		cfg := testConfig()
		cfg.Rand = rand.New(rand.NewSource(seed))
		p := New(mover, distances(8), &fakeVision{}, cfg, true, true)

		for i := 0; i < 5; i++ {
			p.iterate()
		}

		seq := mover.sequence()
		// The turn right after back:3 is the escape turn.
		for i, c := range seq {
			if c != "back:3" {
				continue
			}
			var steps int
			if _, err := fmt.Sscanf(seq[i+1][strings.Index(seq[i+1], ":")+1:], "%d", &steps); err != nil {
				t.Fatalf("seed %d: unparseable escape turn %q", seed, seq[i+1])
			}
			if steps < 3 || steps > 5 {
				t.Errorf("seed %d: escape turn steps: got %d, want 3..5", seed, steps)
			}
		}
	}
}

func TestIterate_VisionOverridesClearDistance(t *testing.T) {
	mover := &fakeMover{}
	dets := []vision.Detection{{Class: "person", Confidence: 0.9, CenterX: 320, CenterY: 240}}
	p := newTestPolicy(mover, distances(100), dets)

	p.iterate()

	got := mover.sequence()
	if len(got) == 0 || got[0] != "back:2" {
		t.Errorf("person at frame center did not force critical response: %v", got)
	}
	if s := p.Status(); s.ObstacleCount != 1 {
		t.Errorf("status: got %+v", s)
	}
}

func TestIterate_OffCenterObjectIgnored(t *testing.T) {
	mover := &fakeMover{}
	// Central band on a 640px frame is [128, 512]; 60 is well outside.
	dets := []vision.Detection{{Class: "person", Confidence: 0.9, CenterX: 60}}
	p := newTestPolicy(mover, distances(100), dets)

	p.iterate()

	if got := mover.sequence(); len(got) != 1 || got[0] != "forward:1" {
		t.Errorf("off-center object changed behavior: %v", got)
	}
}

func TestIterate_LowConfidenceObjectIgnored(t *testing.T) {
	mover := &fakeMover{}
	dets := []vision.Detection{{Class: "person", Confidence: 0.5, CenterX: 320}}
	p := newTestPolicy(mover, distances(100), dets)

	p.iterate()

	if got := mover.sequence(); len(got) != 1 || got[0] != "forward:1" {
		t.Errorf("low-confidence object changed behavior: %v", got)
	}
}

func TestIterate_NonCriticalClassIgnored(t *testing.T) {
	mover := &fakeMover{}
	dets := []vision.Detection{{Class: "potted plant", Confidence: 0.95, CenterX: 320}}
	p := newTestPolicy(mover, distances(100), dets)

	p.iterate()

	if got := mover.sequence(); len(got) != 1 || got[0] != "forward:1" {
		t.Errorf("non-critical class changed behavior: %v", got)
	}
}

func TestIterate_RecoversFromActuatorPanic(t *testing.T) {
	mover := &fakeMover{panicOn: "forward"}
	p := newTestPolicy(mover, distances(100), nil)

	p.iterate() // must not propagate the panic

	if s := p.Status(); s.StepCount != 0 {
		t.Errorf("step counted despite fault: %+v", s)
	}

	// Next iteration works again once the fault clears.
	mover.panicOn = ""
	p.iterate()
	if s := p.Status(); s.StepCount != 1 {
		t.Errorf("loop did not recover: %+v", s)
	}
}

func TestChooseTurn_AlternatesByDefault(t *testing.T) {
	p := newTestPolicy(&fakeMover{}, distances(), nil)

	cases := []struct {
		last Direction
		want Direction
	}{
		{DirNone, DirLeft},
		{DirLeft, DirRight},
		{DirRight, DirLeft},
	}
	for _, tc := range cases {
		p.lastTurn = tc.last
		p.consecutive = 0
		if got := p.chooseTurn(0); got != tc.want {
			t.Errorf("after %v: got %v, want %v", tc.last, got, tc.want)
		}
	}
}

func TestChooseTurn_PinsOppositeWhenRepeatedlyBlocked(t *testing.T) {
	p := newTestPolicy(&fakeMover{}, distances(), nil)
	p.consecutive = 3
	p.lastTurn = DirLeft

	// Even with guaranteed randomization, the pin wins.
	for i := 0; i < 10; i++ {
		if got := p.chooseTurn(1.0); got != DirRight {
			t.Fatalf("got %v, want right (opposite of last)", got)
		}
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, &fakeRanger{}, nil)

	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s := p.Status(); s.State != StateExploring || !s.Running || s.RunID == "" {
		t.Errorf("status after start: %+v", s)
	}
	if mover.count("stand") != 1 {
		t.Errorf("stand calls: got %d, want 1", mover.count("stand"))
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s := p.Status(); s.State != StateIdle || s.Running {
		t.Errorf("status after stop: %+v", s)
	}
	if mover.count("sit") != 1 {
		t.Errorf("sit calls: got %d, want 1", mover.count("sit"))
	}

	if err := p.Stop(); err != ErrNotRunning {
		t.Errorf("second stop: got %v, want ErrNotRunning", err)
	}
	if mover.count("sit") != 1 {
		t.Errorf("second stop issued another sit: %d", mover.count("sit"))
	}
}

func TestStart_SecondCallIsRejected(t *testing.T) {
	mover := &fakeMover{}
	p := newTestPolicy(mover, &fakeRanger{}, nil)

	if err := p.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	before := p.Status()
	if err := p.Start(); err != ErrAlreadyRunning {
		t.Fatalf("second start: got %v, want ErrAlreadyRunning", err)
	}

	if after := p.Status(); after.StepCount != before.StepCount {
		t.Errorf("second start changed step_count: %d -> %d", before.StepCount, after.StepCount)
	}
	if after := p.Status(); after.RunID != before.RunID {
		t.Errorf("second start changed run_id")
	}
	if mover.count("stand") != 1 {
		t.Errorf("second start commanded stand again: %d", mover.count("stand"))
	}
}

// Status must answer while Start is still waiting on the stand maneuver;
// the web layer polls it on every request.
func TestStatus_DoesNotBlockDuringStand(t *testing.T) {
	gate := make(chan struct{})
	mover := &fakeMover{standGate: gate, standEntered: make(chan struct{})}
	p := newTestPolicy(mover, &fakeRanger{}, nil)

	startErr := make(chan error, 1)
	go func() { startErr <- p.Start() }()

	select {
	case <-mover.standEntered:
	case <-time.After(time.Second):
		t.Fatal("Start never reached the stand maneuver")
	}

	statusDone := make(chan Status, 1)
	go func() { statusDone <- p.Status() }()
	select {
	case s := <-statusDone:
		if s.Running {
			t.Errorf("reported running before stand completed: %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Status blocked while the robot was standing up")
	}

	close(gate)
	if err := <-startErr; err != nil {
		t.Fatalf("start: %v", err)
	}
	if !p.Running() {
		t.Error("not running after stand completed")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStatus_ReportsCapabilities(t *testing.T) {
	p := New(&fakeMover{}, &fakeRanger{}, &fakeVision{}, testConfig(), false, true)

	s := p.Status()
	if s.SensorEnabled || !s.ActuatorEnabled {
		t.Errorf("capabilities: got sensor=%v actuator=%v", s.SensorEnabled, s.ActuatorEnabled)
	}
}
