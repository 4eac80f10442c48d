package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

// maxBodyBytes caps request bodies. A reading or verdict is well under 1 KiB.
const maxBodyBytes = 64 << 10

// uploadRequest is the body of POST /api/sensor/upload. Pointer fields
// distinguish "missing" from zero.
type uploadRequest struct {
	DeviceID  *string  `json:"deviceId"`
	Timestamp *string  `json:"timestamp"`
	PH        *float64 `json:"ph"`
	COD       *float64 `json:"cod"`
}

func (u uploadRequest) reading() (telemetry.Reading, error) {
	switch {
	case u.DeviceID == nil:
		return telemetry.Reading{}, telemetry.NewValidationError("deviceId", "field is required")
	case u.Timestamp == nil:
		return telemetry.Reading{}, telemetry.NewValidationError("timestamp", "field is required")
	case u.PH == nil:
		return telemetry.Reading{}, telemetry.NewValidationError("ph", "field is required")
	case u.COD == nil:
		return telemetry.Reading{}, telemetry.NewValidationError("cod", "field is required")
	}
	return telemetry.Reading{
		Timestamp: *u.Timestamp,
		DeviceID:  *u.DeviceID,
		PH:        *u.PH,
		COD:       *u.COD,
	}, nil
}

// verdictRequest is the body of POST /api/ml/submit_result.
type verdictRequest struct {
	Timestamp   *string `json:"timestamp"`
	RawID       *int64  `json:"rawId"`
	IsPollution *bool   `json:"isPollution"`
	GateOpen    *bool   `json:"gateOpen"`
}

func (v verdictRequest) verdict() (telemetry.Verdict, error) {
	switch {
	case v.Timestamp == nil:
		return telemetry.Verdict{}, telemetry.NewValidationError("timestamp", "field is required")
	case v.RawID == nil:
		return telemetry.Verdict{}, telemetry.NewValidationError("rawId", "field is required")
	case v.IsPollution == nil:
		return telemetry.Verdict{}, telemetry.NewValidationError("isPollution", "field is required")
	case v.GateOpen == nil:
		return telemetry.Verdict{}, telemetry.NewValidationError("gateOpen", "field is required")
	}
	return telemetry.Verdict{
		Timestamp:   *v.Timestamp,
		RawID:       *v.RawID,
		IsPollution: *v.IsPollution,
		GateOpen:    *v.GateOpen,
	}, nil
}

// errInvalidFormat marks bodies that are not a single JSON object.
var errInvalidFormat = errors.New("request body must be a single JSON object")

// decodeBody decodes one JSON object from r into dst.
//
// A field of the wrong JSON type yields a *telemetry.ValidationError naming
// the field. Anything that is not a JSON object yields an error wrapping
// errInvalidFormat.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return telemetry.NewValidationError(typeErr.Field, fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value))
		}
		return fmt.Errorf("%w: %v", errInvalidFormat, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return errInvalidFormat
	}
	return nil
}
