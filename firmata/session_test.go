package firmata

import (
	"testing"
	"time"

	"github.com/jeroenwalter/Arduino/firmata/mockserial"
)

func TestSessionGetFirmwareRoundTrip(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud57600))
	s := NewSession(tr, time.Second)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	tr.RespondToFirmwareRequests(2, 5, "Std")

	fw, err := s.GetFirmware()
	if err != nil {
		t.Fatal(err)
	}
	if fw.Major != 2 || fw.Minor != 5 || fw.Name != "Std" {
		t.Fatalf("got %+v", fw)
	}
}

// A 50ms timeout against a device that never responds returns Timeout,
// bounded between 50ms and 200ms of wall clock.
func TestSessionGetFirmwareTimesOut(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud57600))
	s := NewSession(tr, 50*time.Millisecond)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	start := time.Now()
	_, err := s.GetFirmware()
	elapsed := time.Since(start)

	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("got %T (%v), want *TimeoutError", err, err)
	}
	if elapsed < 50*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Fatalf("elapsed %v outside [50ms,200ms]", elapsed)
	}
}

func TestSessionStartOwnsUnopenedTransport(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud9600))
	s := NewSession(tr, time.Second)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if !s.ownsTransport {
		t.Fatal("expected Session to take ownership of an unopened transport")
	}
	if err := s.Dispose(); err != nil {
		t.Fatal(err)
	}
	if tr.IsOpen() {
		t.Fatal("expected owned transport to be closed on Dispose")
	}
}

func TestSessionStartDoesNotOwnAlreadyOpenTransport(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud9600))
	if err := tr.Open(); err != nil {
		t.Fatal(err)
	}
	s := NewSession(tr, time.Second)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.ownsTransport {
		t.Fatal("expected Session not to take ownership of an already-open transport")
	}
	if err := s.Dispose(); err != nil {
		t.Fatal(err)
	}
	if !tr.IsOpen() {
		t.Fatal("expected unowned transport to remain open after Dispose")
	}
}

func TestSessionClearDropsQueuedMessages(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud57600))
	s := NewSession(tr, 50*time.Millisecond)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	tr.Feed([]byte{0xE3, 0x2A, 0x01})
	time.Sleep(10 * time.Millisecond)

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	_, err := s.waitFor(func(m Message) bool { return m.Kind == KindAnalogState })
	if _, ok := err.(*TimeoutError); !ok {
		t.Fatalf("expected stale analog state to have been cleared, got %v", err)
	}
}

func TestSessionWriteCommandsReachTransport(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud57600))
	s := NewSession(tr, time.Second)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	if err := s.ResetBoard(); err != nil {
		t.Fatal(err)
	}
	if len(tr.Written) != 1 || tr.Written[0] != 0xFF {
		t.Fatalf("got %v, want [0xFF]", tr.Written)
	}
}

func TestSessionGetFirmwareAsync(t *testing.T) {
	tr := mockserial.New("mock0", int(Baud57600))
	s := NewSession(tr, time.Second)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	tr.RespondToFirmwareRequests(2, 5, "Std")

	select {
	case res := <-s.GetFirmwareAsync():
		if res.Err != nil {
			t.Fatal(res.Err)
		}
		if res.Value.Name != "Std" {
			t.Fatalf("got %+v", res.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("async call did not complete")
	}
}
