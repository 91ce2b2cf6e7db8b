package remoteid

import (
	"testing"

	"github.com/nerrad567/remoteid-mesh/internal/odid"
)

func mustAddr(t *testing.T, s string) Address {
	t.Helper()
	a, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q) error = %v", s, err)
	}
	return a
}

func addrN(n byte) Address {
	return Address{0x60, 0x60, 0x1f, 0x00, 0x00, n}
}

func basicIDPayload(t *testing.T, id string) []byte {
	t.Helper()
	block, err := odid.EncodeBasicID(odid.BasicID{IDType: odid.IDTypeSerialNumber, UASID: id})
	if err != nil {
		t.Fatalf("EncodeBasicID() error = %v", err)
	}
	return EncodeAdvertisement(1, block)
}

func locationPayload(t *testing.T, loc odid.Location) []byte {
	t.Helper()
	block, err := odid.EncodeLocation(loc)
	if err != nil {
		t.Fatalf("EncodeLocation() error = %v", err)
	}
	return EncodeAdvertisement(2, block)
}

func systemPayload(t *testing.T, lat, lon float64) []byte {
	t.Helper()
	block, err := odid.EncodeSystem(odid.System{OperatorLatitude: lat, OperatorLongitude: lon})
	if err != nil {
		t.Fatalf("EncodeSystem() error = %v", err)
	}
	return EncodeAdvertisement(3, block)
}

func operatorPayload(t *testing.T, id string) []byte {
	t.Helper()
	block, err := odid.EncodeOperatorID(odid.OperatorID{OperatorID: id})
	if err != nil {
		t.Fatalf("EncodeOperatorID() error = %v", err)
	}
	return EncodeAdvertisement(4, block)
}
