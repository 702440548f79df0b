package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/xelactl/internal/grid"
)

const (
	TypeRoutine = "routine"

	fieldType       = "type"
	fieldCalibrated = "calibrated"
)

var (
	ErrMalformed     = errors.New("frame: malformed message")
	ErrNotRoutine    = errors.New("frame: not a routine message")
	ErrSensorPayload = errors.New("frame: invalid sensor payload")
)

// Outcome labels how one inbound message was handled.
type Outcome string

const (
	OutcomeAccepted      Outcome = "accepted"
	OutcomeMalformed     Outcome = "malformed"
	OutcomeNotRoutine    Outcome = "not_routine"
	OutcomeSensorPayload Outcome = "sensor_payload"
)

// Reading is one sensor's grid decoded from a routine message.
type Reading struct {
	SensorID string
	Grid     grid.Grid
}

// Frame is a fully validated routine message. It holds zero or more readings.
type Frame struct {
	Readings []Reading
}

// Sink receives whole-grid replacements.
type Sink interface {
	Replace(id string, g grid.Grid)
}

// Apply writes every reading into s.
func (f Frame) Apply(s Sink) {
	for _, r := range f.Readings {
		s.Replace(r.SensorID, r.Grid)
	}
}

// Decode parses one hub message. A non-nil error is the discard reason and
// the returned Frame is empty: a message is either applied whole or not at all.
func Decode(payload []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return Frame{}, ErrMalformed
	}

	rawType, ok := fields[fieldType]
	if !ok {
		return Frame{}, ErrNotRoutine
	}
	var msgType string
	if err := json.Unmarshal(rawType, &msgType); err != nil || msgType != TypeRoutine {
		return Frame{}, ErrNotRoutine
	}

	ids := make([]string, 0, len(fields))
	for key := range fields {
		if IsSensorID(key) {
			ids = append(ids, key)
		}
	}
	sort.Strings(ids)

	out := Frame{Readings: make([]Reading, 0, len(ids))}
	for _, id := range ids {
		g, err := decodeSensor(fields[id])
		if err != nil {
			return Frame{}, fmt.Errorf("%w: sensor %s: %v", ErrSensorPayload, id, err)
		}
		out.Readings = append(out.Readings, Reading{SensorID: id, Grid: g})
	}
	return out, nil
}

func decodeSensor(raw json.RawMessage) (grid.Grid, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return grid.Grid{}, errors.New("not an object")
	}
	rawValues, ok := body[fieldCalibrated]
	if !ok {
		return grid.Grid{}, errors.New("missing calibrated")
	}
	var values []*float64
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return grid.Grid{}, err
	}
	flat := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			return grid.Grid{}, fmt.Errorf("calibrated[%d] is null", i)
		}
		flat[i] = *v
	}
	return grid.FromFlat(flat)
}

// IsSensorID reports whether key is a non-empty run of ASCII digits.
func IsSensorID(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

// Classify maps a Decode error onto its outcome label.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, ErrNotRoutine):
		return OutcomeNotRoutine
	case errors.Is(err, ErrSensorPayload):
		return OutcomeSensorPayload
	default:
		return OutcomeMalformed
	}
}
