//go:build darwin

package main

import (
	"os"
	"strings"
)

func init() {
	// When launched from launchd or a stripped sudo environment PATH may
	// lack the system admin directories where pfctl, ifconfig, netstat
	// and scutil live.
	systemPaths := []string{
		"/sbin",
		"/usr/sbin",
		"/bin",
		"/usr/bin",
	}

	current := os.Getenv("PATH")
	existing := make(map[string]bool)
	for _, p := range strings.Split(current, ":") {
		existing[p] = true
	}

	var toAdd []string
	for _, p := range systemPaths {
		if !existing[p] {
			toAdd = append(toAdd, p)
		}
	}

	if len(toAdd) == 0 {
		return
	}
	if current == "" {
		os.Setenv("PATH", strings.Join(toAdd, ":"))
		return
	}
	os.Setenv("PATH", current+":"+strings.Join(toAdd, ":"))
}
