package firmata

import (
	"fmt"
	"testing"
	"time"

	"github.com/jeroenwalter/Arduino/firmata/mockserial"
)

// Two candidate devices, A and B. A never responds at either baud rate in
// the list and is skipped; B answers the firmware query at 9600. Finder
// must return a Session bound to B@9600 and leave A's transport disposed.
func TestFinderSkipsUnresponsiveDeviceAndBindsResponsiveOne(t *testing.T) {
	transports := map[string]*mockserial.Transport{}

	opener := func(device string, baud BaudRate) (Transport, error) {
		key := fmt.Sprintf("%s@%d", device, baud)
		tr := mockserial.New(key, int(baud))
		transports[key] = tr
		if device == "B" && baud == Baud9600 {
			tr.RespondToFirmwareRequests(2, 5, "Std")
		}
		return tr, nil
	}

	cfg := FinderConfig{
		Devices:           []string{"A", "B"},
		PrimaryBaudRates:  []BaudRate{Baud57600, Baud9600},
		FallbackBaudRates: nil,
		PerAttemptTimeout: 50 * time.Millisecond,
	}
	finder := NewFinder(opener, cfg)

	session, err := finder.Find()
	if err != nil {
		t.Fatal(err)
	}
	defer session.Dispose()

	fw, err := session.GetFirmware()
	if err != nil {
		t.Fatal(err)
	}
	if fw.Name != "Std" {
		t.Fatalf("got %+v, want firmware bound to B", fw)
	}

	for key, tr := range transports {
		if key == "B@9600" {
			if !tr.IsOpen() {
				t.Fatalf("expected winning transport %s to remain open", key)
			}
			continue
		}
		if tr.IsOpen() {
			t.Fatalf("expected probed-and-rejected transport %s to be closed", key)
		}
	}
}

func TestFinderAbortsDeviceOnUnauthorized(t *testing.T) {
	opener := func(device string, baud BaudRate) (Transport, error) {
		tr := mockserial.New(device, int(baud))
		if device == "A" {
			tr.FailOpen(&UnauthorizedError{Name: device})
		}
		if device == "B" {
			tr.RespondToFirmwareRequests(2, 5, "Std")
		}
		return tr, nil
	}

	cfg := FinderConfig{
		Devices:           []string{"A", "B"},
		PrimaryBaudRates:  []BaudRate{Baud57600},
		FallbackBaudRates: nil,
		PerAttemptTimeout: 50 * time.Millisecond,
	}
	finder := NewFinder(opener, cfg)

	session, err := finder.Find()
	if err != nil {
		t.Fatal(err)
	}
	defer session.Dispose()

	fw, err := session.GetFirmware()
	if err != nil {
		t.Fatal(err)
	}
	if fw.Name != "Std" {
		t.Fatalf("got %+v, want device B", fw)
	}
}

func TestFinderReturnsErrorWhenNoDeviceResponds(t *testing.T) {
	opener := func(device string, baud BaudRate) (Transport, error) {
		return mockserial.New(device, int(baud)), nil
	}

	cfg := FinderConfig{
		Devices:           []string{"A"},
		PrimaryBaudRates:  []BaudRate{Baud57600},
		FallbackBaudRates: nil,
		PerAttemptTimeout: 20 * time.Millisecond,
	}
	finder := NewFinder(opener, cfg)

	if _, err := finder.Find(); err == nil {
		t.Fatal("expected an error when no candidate responds")
	}
}
