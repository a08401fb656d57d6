package mockserial

// FirmwareSysEx builds the wire bytes a device sends in reply to
// RequestFirmware (0xF0 0x79 major minor 14-bit-packed-name 0xF7).
func FirmwareSysEx(major, minor byte, name string) []byte {
	out := []byte{0xF0, 0x79, major, minor}
	for _, r := range name {
		out = append(out, byte(r&0x7F), byte((r>>7)&0x7F))
	}
	out = append(out, 0xF7)
	return out
}

// RespondToFirmwareRequests watches Written for a RequestFirmware command
// (0xF0 0x79 0xF7) and, each time it sees one, feeds back a firmware
// SysEx reply built from FirmwareSysEx. Used to simulate a responsive
// device in Finder tests.
func (t *Transport) RespondToFirmwareRequests(major, minor byte, name string) {
	t.mu.Lock()
	t.onFirmwareRequest = func() {
		t.Feed(FirmwareSysEx(major, minor, name))
	}
	t.mu.Unlock()
}

var requestFirmware = []byte{0xF0, 0x79, 0xF7}

func (t *Transport) checkForFirmwareRequestLocked() {
	n := len(t.Written)
	if n < len(requestFirmware) {
		return
	}
	tail := t.Written[n-len(requestFirmware):]
	for i := range requestFirmware {
		if tail[i] != requestFirmware[i] {
			return
		}
	}
	if t.onFirmwareRequest != nil {
		cb := t.onFirmwareRequest
		go cb()
	}
}
