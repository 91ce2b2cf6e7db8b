package odid

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDecodeBasicID_Layout(t *testing.T) {
	block := make([]byte, MessageSize)
	block[0] = 0x02 // BasicID, protocol 2
	block[1] = 0x12 // serial number, rotorcraft
	copy(block[2:], "1581F5FJD229400B")

	got, err := DecodeBasicID(block)
	if err != nil {
		t.Fatalf("DecodeBasicID() error = %v", err)
	}
	if got.IDType != IDTypeSerialNumber {
		t.Errorf("IDType = %d, want %d", got.IDType, IDTypeSerialNumber)
	}
	if got.UAType != UATypeRotorcraft {
		t.Errorf("UAType = %d, want %d", got.UAType, UATypeRotorcraft)
	}
	if got.UASID != "1581F5FJD229400B" {
		t.Errorf("UASID = %q, want %q", got.UASID, "1581F5FJD229400B")
	}
}

func TestDecodeBasicID_FullWidthID(t *testing.T) {
	block := make([]byte, MessageSize)
	copy(block[2:], "ABCDEFGHIJKLMNOPQRSTUVWXYZ") // overruns into reserved bytes

	got, err := DecodeBasicID(block)
	if err != nil {
		t.Fatalf("DecodeBasicID() error = %v", err)
	}
	if got.UASID != "ABCDEFGHIJKLMNOPQRST" {
		t.Errorf("UASID = %q, want 20 bytes", got.UASID)
	}
}

func TestDecodeLocation_Layout(t *testing.T) {
	block := []byte{
		0x12,       // Location, protocol 2
		0x27,       // airborne, AGL, east, multiplier set
		0x0A,       // direction 10 (+180)
		0x04,       // speed raw 4
		0xFC,       // vertical -4 -> -2 m/s
		0x80, 0xFB, 0x65, 0x1E, // latitude 51.0000000
		0x00, 0x00, 0x00, 0x00, // longitude 0
		0xD0, 0x07, // baro 2000 -> 0 m
		0xF4, 0x08, // geo 2292 -> 146 m
		0x2C, 0x08, // height 2092 -> 46 m
		0x3B,       // vert 3, horiz 11
		0x21,       // baro 2, speed 1
		0x10, 0x27, // timestamp 10000
		0x01,
		0x00,
	}

	got, err := DecodeLocation(block)
	if err != nil {
		t.Fatalf("DecodeLocation() error = %v", err)
	}

	if got.Status != StatusAirborne {
		t.Errorf("Status = %d, want %d", got.Status, StatusAirborne)
	}
	if got.HeightType != HeightAboveGround {
		t.Errorf("HeightType = %d, want %d", got.HeightType, HeightAboveGround)
	}
	if got.Direction != 190 {
		t.Errorf("Direction = %v, want 190", got.Direction)
	}
	if got.SpeedHorizontal != 66.75 {
		t.Errorf("SpeedHorizontal = %v, want 66.75", got.SpeedHorizontal)
	}
	if got.SpeedVertical != -2 {
		t.Errorf("SpeedVertical = %v, want -2", got.SpeedVertical)
	}
	if !approx(got.Latitude, 51.0, 1e-9) {
		t.Errorf("Latitude = %v, want 51", got.Latitude)
	}
	if got.AltitudeBaro != 0 || got.AltitudeGeo != 146 || got.Height != 46 {
		t.Errorf("altitudes = %v/%v/%v, want 0/146/46", got.AltitudeBaro, got.AltitudeGeo, got.Height)
	}
	if got.HorizAccuracy != 11 || got.VertAccuracy != 3 {
		t.Errorf("accuracy = h%d v%d, want h11 v3", got.HorizAccuracy, got.VertAccuracy)
	}
	if got.SpeedAccuracy != 1 || got.BaroAccuracy != 2 {
		t.Errorf("accuracy = s%d b%d, want s1 b2", got.SpeedAccuracy, got.BaroAccuracy)
	}
	if got.Timestamp != 10000 {
		t.Errorf("Timestamp = %d, want 10000", got.Timestamp)
	}
}

func TestDecodeSystem_NegativeCoordinates(t *testing.T) {
	want := System{
		OperatorLocationType: OperatorLocationLiveGNSS,
		ClassificationType:   1,
		OperatorLatitude:     -33.8688197,
		OperatorLongitude:    151.2092955,
		AreaCount:            1,
		AreaRadius:           250,
		AreaCeiling:          120,
		AreaFloor:            -10,
		CategoryEU:           1,
		ClassEU:              2,
		OperatorAltitudeGeo:  55.5,
		Timestamp:            250000000,
	}

	block, err := EncodeSystem(want)
	if err != nil {
		t.Fatalf("EncodeSystem() error = %v", err)
	}
	got, err := DecodeSystem(block)
	if err != nil {
		t.Fatalf("DecodeSystem() error = %v", err)
	}

	if !approx(got.OperatorLatitude, want.OperatorLatitude, 1e-7) ||
		!approx(got.OperatorLongitude, want.OperatorLongitude, 1e-7) {
		t.Errorf("operator = %v,%v, want %v,%v",
			got.OperatorLatitude, got.OperatorLongitude, want.OperatorLatitude, want.OperatorLongitude)
	}
	got.OperatorLatitude, got.OperatorLongitude = want.OperatorLatitude, want.OperatorLongitude
	if got != want {
		t.Errorf("DecodeSystem() = %+v, want %+v", got, want)
	}
}

func TestLocationEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		in   Location
	}{
		{
			name: "slow westbound",
			in: Location{
				Status: StatusAirborne, Direction: 90, SpeedHorizontal: 12.5, SpeedVertical: 1.5,
				Latitude: 52.2053, Longitude: 0.1218, AltitudeBaro: 100, AltitudeGeo: 120, Height: 30,
			},
		},
		{
			name: "fast southbound",
			in: Location{
				Status: StatusAirborne, HeightType: HeightAboveGround, Direction: 180, SpeedHorizontal: 75,
				Latitude: -12.5, Longitude: -77.25, AltitudeGeo: -50, Height: 400,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := EncodeLocation(tt.in)
			if err != nil {
				t.Fatalf("EncodeLocation() error = %v", err)
			}
			if len(block) != MessageSize {
				t.Fatalf("len = %d, want %d", len(block), MessageSize)
			}
			got, err := DecodeLocation(block)
			if err != nil {
				t.Fatalf("DecodeLocation() error = %v", err)
			}
			if got.Direction != tt.in.Direction {
				t.Errorf("Direction = %v, want %v", got.Direction, tt.in.Direction)
			}
			if !approx(float64(got.SpeedHorizontal), float64(tt.in.SpeedHorizontal), 0.75) {
				t.Errorf("SpeedHorizontal = %v, want ~%v", got.SpeedHorizontal, tt.in.SpeedHorizontal)
			}
			if !approx(got.Latitude, tt.in.Latitude, 1e-7) || !approx(got.Longitude, tt.in.Longitude, 1e-7) {
				t.Errorf("position = %v,%v, want %v,%v", got.Latitude, got.Longitude, tt.in.Latitude, tt.in.Longitude)
			}
			if got.AltitudeGeo != tt.in.AltitudeGeo || got.Height != tt.in.Height {
				t.Errorf("altitude/height = %v/%v, want %v/%v", got.AltitudeGeo, got.Height, tt.in.AltitudeGeo, tt.in.Height)
			}
		})
	}
}

func TestOperatorIDEncodeDecode(t *testing.T) {
	block, err := EncodeOperatorID(OperatorID{OperatorID: "GBR-OP-1234ABCD"})
	if err != nil {
		t.Fatalf("EncodeOperatorID() error = %v", err)
	}
	if typ, _ := TypeOf(block); typ != MessageTypeOperatorID {
		t.Errorf("TypeOf() = %v, want %v", typ, MessageTypeOperatorID)
	}
	got, err := DecodeOperatorID(block)
	if err != nil {
		t.Fatalf("DecodeOperatorID() error = %v", err)
	}
	if got.OperatorID != "GBR-OP-1234ABCD" {
		t.Errorf("OperatorID = %q, want %q", got.OperatorID, "GBR-OP-1234ABCD")
	}
}

func TestDecode_Errors(t *testing.T) {
	location, _ := EncodeLocation(Location{})

	tests := []struct {
		name   string
		decode func([]byte) error
		block  []byte
		want   error
	}{
		{"basic id short", func(b []byte) error { _, err := DecodeBasicID(b); return err }, make([]byte, 10), ErrShortMessage},
		{"location empty", func(b []byte) error { _, err := DecodeLocation(b); return err }, nil, ErrShortMessage},
		{"system wrong type", func(b []byte) error { _, err := DecodeSystem(b); return err }, location, ErrWrongMessageType},
		{"operator wrong type", func(b []byte) error { _, err := DecodeOperatorID(b); return err }, location, ErrWrongMessageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(tt.block); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncode_RangeErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"uas id too long", func() error { _, err := EncodeBasicID(BasicID{UASID: "123456789012345678901"}); return err }()},
		{"latitude", func() error { _, err := EncodeLocation(Location{Latitude: 91}); return err }()},
		{"direction", func() error { _, err := EncodeLocation(Location{Direction: 361}); return err }()},
		{"altitude", func() error { _, err := EncodeLocation(Location{AltitudeGeo: 40000}); return err }()},
		{"operator id too long", func() error {
			_, err := EncodeOperatorID(OperatorID{OperatorID: "123456789012345678901"})
			return err
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrFieldRange) {
				t.Errorf("error = %v, want ErrFieldRange", tt.err)
			}
		})
	}
}

func TestEncodeSpeed(t *testing.T) {
	tests := []struct {
		speed    float32
		wantRaw  byte
		wantMult byte
	}{
		{0, 0, 0},
		{10, 40, 0},
		{63.75, 255, 0},
		{66.75, 4, 1},
		{500, 254, 1},
		{-1, 255, 0},
	}

	for _, tt := range tests {
		raw, mult := encodeSpeed(tt.speed)
		if raw != tt.wantRaw || mult != tt.wantMult {
			t.Errorf("encodeSpeed(%v) = %d,%d, want %d,%d", tt.speed, raw, mult, tt.wantRaw, tt.wantMult)
		}
	}
}

func TestTypeOf_Empty(t *testing.T) {
	if _, ok := TypeOf(nil); ok {
		t.Error("TypeOf(nil) ok = true, want false")
	}
}
