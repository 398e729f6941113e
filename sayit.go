// Package sayit converts text into spoken MP3 audio using a pluggable
// text-to-speech provider.
package sayit

import "net"

// IsLocal returns true if the host represents the local machine.
// This function assumes the hostname has no port.
func IsLocal(hostname string) bool {
	if hostname == "localhost" {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return true
	}
	return false
}
