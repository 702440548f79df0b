package frame

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/danmuck/xelactl/internal/grid"
	"github.com/danmuck/xelactl/internal/hub"
	"github.com/danmuck/xelactl/internal/testutil/testlog"
)

func calibrated(offset float64) []float64 {
	out := make([]float64, grid.Size)
	for i := range out {
		out[i] = offset + float64(i)/10
	}
	return out
}

func routine(t *testing.T, sensors map[string]any) []byte {
	t.Helper()
	msg := map[string]any{"type": TypeRoutine}
	for id, body := range sensors {
		msg[id] = body
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDecodeRoutineReshapesEverySensor(t *testing.T) {
	testlog.Start(t)
	payload := routine(t, map[string]any{
		"1":    map[string]any{"calibrated": calibrated(0), "raw": calibrated(100)},
		"2":    map[string]any{"calibrated": calibrated(50)},
		"seq":  7,
		"time": 1700000000.25,
	})

	f, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(f.Readings) != 2 {
		t.Fatalf("unexpected readings: %+v", f.Readings)
	}

	table := hub.NewTable()
	f.Apply(table)
	for id, offset := range map[string]float64{"1": 0, "2": 50} {
		want, _ := grid.FromFlat(calibrated(offset))
		got, ok := table.Get(id)
		if !ok || got != want {
			t.Fatalf("sensor %s: ok=%v grid mismatch", id, ok)
		}
	}
}

func TestDecodeIgnoresNonRoutine(t *testing.T) {
	testlog.Start(t)
	cases := [][]byte{
		[]byte(`{"type":"welcome","1":{"calibrated":[]}}`),
		[]byte(`{"1":{"calibrated":[1,2,3]}}`),
		[]byte(`{"type":5}`),
	}
	table := hub.NewTable()
	for _, payload := range cases {
		f, err := Decode(payload)
		if !errors.Is(err, ErrNotRoutine) {
			t.Fatalf("payload %s: expected ErrNotRoutine, got %v", payload, err)
		}
		f.Apply(table)
	}
	if table.Len() != 0 {
		t.Fatalf("non-routine messages changed the table")
	}
}

func TestDecodeMalformed(t *testing.T) {
	testlog.Start(t)
	for _, payload := range []string{``, `not json`, `[1,2]`, `null`, `{"type":"routine"`} {
		if _, err := Decode([]byte(payload)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("payload %q: expected ErrMalformed, got %v", payload, err)
		}
	}
}

func TestDecodeBadSensorDiscardsWholeMessage(t *testing.T) {
	testlog.Start(t)
	table := hub.NewTable()
	prev, _ := grid.FromFlat(calibrated(1))
	table.Replace("1", prev)

	withNull := make([]any, grid.Size)
	for i := range withNull {
		withNull[i] = 1.0
	}
	withNull[5] = nil

	bad := []map[string]any{
		{"calibrated": calibrated(0)[:71]},
		{"calibrated": append(calibrated(0), 1)},
		{"calibrated": []any{"a", "b"}},
		{"calibrated": withNull},
		{"raw": calibrated(0)},
		{"calibrated": "nope"},
	}
	for i, body := range bad {
		payload := routine(t, map[string]any{
			"1": body,
			"2": map[string]any{"calibrated": calibrated(9)},
		})
		f, err := Decode(payload)
		if !errors.Is(err, ErrSensorPayload) {
			t.Fatalf("case %d: expected ErrSensorPayload, got %v", i, err)
		}
		f.Apply(table)
	}
	// A bare number is not an object either.
	if _, err := Decode([]byte(`{"type":"routine","3":4}`)); !errors.Is(err, ErrSensorPayload) {
		t.Fatalf("expected ErrSensorPayload for scalar sensor body, got %v", err)
	}

	if got, _ := table.Get("1"); got != prev {
		t.Fatalf("existing entry changed by discarded message")
	}
	if _, ok := table.Get("2"); ok {
		t.Fatalf("sibling sensor applied from discarded message")
	}
}

func TestDecodeIsIdempotent(t *testing.T) {
	testlog.Start(t)
	payload := routine(t, map[string]any{"4": map[string]any{"calibrated": calibrated(3)}})
	once := hub.NewTable()
	twice := hub.NewTable()

	f, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f.Apply(once)
	f.Apply(twice)
	f2, _ := Decode(payload)
	f2.Apply(twice)

	a, b := once.Snapshot(), twice.Snapshot()
	if a.Len() != b.Len() || a.Grids["4"] != b.Grids["4"] {
		t.Fatalf("second application changed state")
	}
}

func TestDecodeRoutineWithoutSensors(t *testing.T) {
	testlog.Start(t)
	f, err := Decode([]byte(`{"type":"routine","extra":{"calibrated":[1]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(f.Readings) != 0 {
		t.Fatalf("non-numeric keys treated as sensors: %+v", f.Readings)
	}
}

func TestIsSensorID(t *testing.T) {
	for key, want := range map[string]bool{
		"1": true, "12": true, "007": true,
		"": false, "type": false, "-1": false, "1.5": false, " 1": false, "1a": false,
	} {
		if got := IsSensorID(key); got != want {
			t.Fatalf("IsSensorID(%q)=%v want %v", key, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	_, notRoutine := Decode([]byte(`{"type":"x"}`))
	_, bad := Decode([]byte(`{"type":"routine","1":{}}`))
	_, malformed := Decode([]byte(`{`))
	cases := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeAccepted},
		{notRoutine, OutcomeNotRoutine},
		{bad, OutcomeSensorPayload},
		{malformed, OutcomeMalformed},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
}
