package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SecretField is the top-level key the pump injects into every structured
// payload so the server can authenticate the device that produced it.
const SecretField = "secret"

// Snapshot is one dump1090 aircraft.json document as received by the server.
type Snapshot struct {
	// Now is the time the snapshot was written, in seconds since the epoch.
	Now float64 `json:"now"`

	// Messages is the total number of Mode S messages processed by dump1090.
	Messages int64 `json:"messages"`

	// Aircraft holds one record per tracked aircraft.
	Aircraft []Aircraft `json:"aircraft"`

	// Secret is the device identifier injected by the pump.
	Secret string `json:"secret,omitempty"`
}

// Aircraft is one tracked-entity record. Every field except Hex is optional
// in dump1090 output; absent values decode to nil.
type Aircraft struct {
	Hex            string    `json:"hex"`                   // 24-bit ICAO identifier
	Type           *string   `json:"type,omitempty"`        // type of underlying message
	Flight         *string   `json:"flight,omitempty"`      // callsign
	AltBaro        *Altitude `json:"alt_baro,omitempty"`    // barometric altitude (ft) or "ground"
	AltGeom        *int64    `json:"alt_geom,omitempty"`    // geometric altitude (ft)
	GS             *float64  `json:"gs,omitempty"`          // ground speed (kt)
	IAS            *float64  `json:"ias,omitempty"`         // indicated airspeed (kt)
	TAS            *float64  `json:"tas,omitempty"`         // true airspeed (kt)
	Mach           *float64  `json:"mach,omitempty"`        //
	Track          *float64  `json:"track,omitempty"`       // true track over ground (deg)
	TrackRate      *float64  `json:"track_rate,omitempty"`  // deg/s
	Roll           *float64  `json:"roll,omitempty"`        // deg, negative is left roll
	MagHeading     *float64  `json:"mag_heading,omitempty"` //
	TrueHeading    *float64  `json:"true_heading,omitempty"`
	BaroRate       *float64  `json:"baro_rate,omitempty"` // ft/min
	GeomRate       *float64  `json:"geom_rate,omitempty"` // ft/min
	Squawk         *string   `json:"squawk,omitempty"`    // Mode A code
	Emergency      *string   `json:"emergency,omitempty"`
	Category       *string   `json:"category,omitempty"` // emitter category
	NavQNH         *float64  `json:"nav_qnh,omitempty"`
	NavAltitudeMCP *int64    `json:"nav_altitude_mcp,omitempty"`
	NavAltitudeFMS *int64    `json:"nav_altitude_fms,omitempty"`
	NavHeading     *float64  `json:"nav_heading,omitempty"`
	NavModes       []string  `json:"nav_modes,omitempty"`
	Lat            *float64  `json:"lat,omitempty"`
	Lon            *float64  `json:"lon,omitempty"`
	NIC            *int64    `json:"nic,omitempty"`
	RC             *int64    `json:"rc,omitempty"`
	SeenPos        *float64  `json:"seen_pos,omitempty"` // seconds since last position update
	Version        *int64    `json:"version,omitempty"`  // ADS-B version
	NICBaro        *int64    `json:"nic_baro,omitempty"`
	NACP           *int64    `json:"nac_p,omitempty"`
	NACV           *int64    `json:"nac_v,omitempty"`
	SIL            *int64    `json:"sil,omitempty"`
	SILType        *string   `json:"sil_type,omitempty"`
	GVA            *int64    `json:"gva,omitempty"`
	SDA            *int64    `json:"sda,omitempty"`
	MLAT           []string  `json:"mlat,omitempty"`
	TISB           []string  `json:"tisb,omitempty"`
	Messages       *int64    `json:"messages,omitempty"`
	Seen           *float64  `json:"seen,omitempty"` // seconds since any message
	RSSI           *float64  `json:"rssi,omitempty"` // dBFS
}

// Altitude is a barometric altitude in feet. dump1090 reports aircraft on the
// ground as the string "ground"; that decodes to zero with Ground set.
type Altitude struct {
	Feet   int64
	Ground bool
}

// UnmarshalJSON accepts either a JSON number or the string "ground".
func (a *Altitude) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != "ground" {
			return fmt.Errorf("types: altitude: unexpected string %q", s)
		}
		*a = Altitude{Ground: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("types: altitude: %w", err)
	}
	*a = Altitude{Feet: int64(f)}
	return nil
}

// MarshalJSON writes "ground" for grounded aircraft and a number otherwise.
func (a Altitude) MarshalJSON() ([]byte, error) {
	if a.Ground {
		return []byte(`"ground"`), nil
	}
	return json.Marshal(a.Feet)
}

// PumpResponse is the body returned by the server for a single-shot POST.
type PumpResponse struct {
	Status string `json:"status"`
}
