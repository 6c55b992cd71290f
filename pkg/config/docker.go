package config

import (
	"os"
	"sync"
)

var (
	dockerOnce   sync.Once
	dockerResult bool
)

// IsRunningInDocker reports whether the process is inside a Docker container,
// detected by the /.dockerenv marker file. The result is cached.
func IsRunningInDocker() bool {
	dockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		dockerResult = err == nil
	})
	return dockerResult
}

// ResolveHostForDocker rewrites loopback hosts to host.docker.internal when
// running inside Docker, so the history database on the host machine stays
// reachable. Non-loopback hosts pass through unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}

	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}

	return host
}
