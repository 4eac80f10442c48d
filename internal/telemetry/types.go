package telemetry

// TimeLayout is the wall-clock format used for reading and verdict
// timestamps produced inside this module.
const TimeLayout = "15:04:05"

// NoDataTimestamp is the timestamp carried by EmptySnapshot.
const NoDataTimestamp = "no data yet"

// Reading is one raw sensor measurement.
type Reading struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp"`
	DeviceID  string  `json:"deviceId"`
	PH        float64 `json:"ph"`
	COD       float64 `json:"cod"`
}

// Verdict is one classification outcome tied to exactly one reading.
//
// GateOpen equals IsPollution today. It is stored separately so the
// actuator directive can diverge from the classification later.
type Verdict struct {
	ID          int64  `json:"id"`
	Timestamp   string `json:"timestamp"`
	RawID       int64  `json:"rawId"`
	IsPollution bool   `json:"isPollution"`
	GateOpen    bool   `json:"gateOpen"`
}

// Snapshot is the dashboard view: the latest verdict flattened together
// with the reading it refers to.
type Snapshot struct {
	PH        float64 `json:"ph"`
	COD       float64 `json:"cod"`
	Alert     bool    `json:"alert"`
	Gate      bool    `json:"gate"`
	Timestamp string  `json:"timestamp"`
}

// EmptySnapshot is returned by the dashboard before any verdict exists.
// Callers must read it as "no verdict yet", never as a measurement.
var EmptySnapshot = Snapshot{
	PH:        0,
	COD:       0,
	Alert:     false,
	Gate:      false,
	Timestamp: NoDataTimestamp,
}

// IsEmpty reports whether s is the no-data sentinel.
func (s Snapshot) IsEmpty() bool {
	return s == EmptySnapshot
}

// NewSnapshot joins a verdict with the reading it references.
func NewSnapshot(v Verdict, r Reading) Snapshot {
	return Snapshot{
		PH:        r.PH,
		COD:       r.COD,
		Alert:     v.IsPollution,
		Gate:      v.GateOpen,
		Timestamp: v.Timestamp,
	}
}
