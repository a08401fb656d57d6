package serialport

import (
	"runtime"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// linuxPrefixes are the device-name prefixes preferred on POSIX
// when any of them exist: /dev/ttyS*, /dev/ttyUSB*, /dev/ttyACM*.
var linuxPrefixes = []string{"/dev/ttyS", "/dev/ttyUSB", "/dev/ttyACM"}

// CandidateDevices enumerates OS serial devices and filters them per
// the serial port discovery surface, grounded on
// snes/fxpakpro/driver.go's DetectDevice (which calls
// enumerator.GetDetailedPortsList and filters on IsUSB).
//
// On POSIX, candidates are filtered to the Linux-style prefixes
// (ttyS/ttyUSB/ttyACM) when any exist; otherwise any /dev/tty* port is
// offered except /dev/ttyC* and the literal /dev/tty controlling
// terminal. On Windows, go.bug.st/serial's enumerator already reads
// HARDWARE\DEVICEMAP\SERIALCOMM, so every port it reports is a candidate.
func CandidateDevices() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}

	if runtime.GOOS == "windows" {
		sort.Strings(names)
		return names, nil
	}

	filtered := filterPosixNames(names)
	sort.Strings(filtered)
	return filtered, nil
}

func filterPosixNames(names []string) []string {
	var preferred []string
	for _, n := range names {
		if hasAnyPrefix(n, linuxPrefixes) {
			preferred = append(preferred, n)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}

	var fallback []string
	for _, n := range names {
		if n == "/dev/tty" {
			continue
		}
		if strings.HasPrefix(n, "/dev/ttyC") {
			continue
		}
		if strings.HasPrefix(n, "/dev/tty") {
			fallback = append(fallback, n)
		}
	}
	return fallback
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
