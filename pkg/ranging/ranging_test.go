package ranging

import (
	"testing"
	"time"
)

// fakeEcho replays a scripted sequence of echo pulse widths. A zero width
// means "no echo" (timeout).
type fakeEcho struct {
	widths []time.Duration
	calls  int
}

func (f *fakeEcho) TimeEcho(timeout time.Duration) (time.Duration, bool) {
	if f.calls >= len(f.widths) {
		return 0, false
	}
	w := f.widths[f.calls]
	f.calls++
	if w == 0 {
		return 0, false
	}
	return w, true
}

// widthFor returns the echo pulse width corresponding to a distance.
func widthFor(cm float64) time.Duration {
	return time.Duration(cm / cmPerSecond * float64(time.Second))
}

func TestMeasure_ConvertsPulseWidth(t *testing.T) {
	sensor := NewSensor(&fakeEcho{widths: []time.Duration{widthFor(100)}}, 200, 50*time.Millisecond)

	r := sensor.Measure()
	if !r.OK {
		t.Fatal("expected valid reading")
	}
	if r.CM < 99.9 || r.CM > 100.1 {
		t.Errorf("distance: got %v, want ~100", r.CM)
	}
}

func TestMeasure_TimeoutIsInvalid(t *testing.T) {
	sensor := NewSensor(&fakeEcho{widths: []time.Duration{0}}, 200, 50*time.Millisecond)

	if r := sensor.Measure(); r.OK {
		t.Errorf("expected invalid reading on timeout, got %v cm", r.CM)
	}
}

func TestMeasure_OutOfRangeIsInvalid(t *testing.T) {
	cases := []struct {
		name string
		cm   float64
	}{
		{"below blind zone", 1},
		{"beyond max", 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sensor := NewSensor(&fakeEcho{widths: []time.Duration{widthFor(tc.cm)}}, 200, 50*time.Millisecond)
			if r := sensor.Measure(); r.OK {
				t.Errorf("expected invalid reading for %v cm, got %v", tc.cm, r.CM)
			}
		})
	}
}

func TestAverage_SkipsInvalidSamples(t *testing.T) {
	// Two failed samples and one valid reading of 42: average is 42.
	sensor := NewSensor(&fakeEcho{widths: []time.Duration{0, widthFor(42), 0}}, 200, 50*time.Millisecond)

	r := sensor.Average(3, 0)
	if !r.OK {
		t.Fatal("expected valid average")
	}
	if r.CM < 41.9 || r.CM > 42.1 {
		t.Errorf("average: got %v, want ~42", r.CM)
	}
}

func TestAverage_AllInvalidIsInvalid(t *testing.T) {
	sensor := NewSensor(&fakeEcho{widths: []time.Duration{0, 0, 0}}, 200, 50*time.Millisecond)

	if r := sensor.Average(3, 0); r.OK {
		t.Errorf("expected invalid average, got %v cm", r.CM)
	}
}

func TestAverage_AveragesValidReadings(t *testing.T) {
	sensor := NewSensor(&fakeEcho{widths: []time.Duration{widthFor(30), widthFor(60)}}, 200, 50*time.Millisecond)

	r := sensor.Average(2, 0)
	if !r.OK {
		t.Fatal("expected valid average")
	}
	if r.CM < 44.9 || r.CM > 45.1 {
		t.Errorf("average: got %v, want ~45", r.CM)
	}
}

func TestSeverityOf_Partition(t *testing.T) {
	cases := []struct {
		cm   float64
		want Severity
	}{
		{2, SeverityCritical},
		{9.99, SeverityCritical},
		{10, SeverityDanger},
		{19.99, SeverityDanger},
		{20, SeverityWarning},
		{49.99, SeverityWarning},
		{50, SeveritySafe},
		{200, SeveritySafe},
	}

	for _, tc := range cases {
		if got := SeverityOf(Valid(tc.cm)); got != tc.want {
			t.Errorf("SeverityOf(%v cm): got %v, want %v", tc.cm, got, tc.want)
		}
	}
}

func TestSeverityOf_InvalidIsUnknown(t *testing.T) {
	if got := SeverityOf(Invalid()); got != SeverityUnknown {
		t.Errorf("SeverityOf(invalid): got %v, want unknown", got)
	}
}

func TestSeverityOf_Monotonic(t *testing.T) {
	prev := SeverityCritical
	for cm := 1.0; cm <= 200; cm += 0.5 {
		got := SeverityOf(Valid(cm))
		if got > prev {
			t.Fatalf("severity increased with distance at %v cm: %v after %v", cm, got, prev)
		}
		prev = got
	}
}
