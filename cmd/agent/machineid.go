package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const machineIDFileName = "machine-id"

// machineID derives a stable, opaque identifier for this machine: the SHA-256
// of the hostname. When no hostname is available, a random UUID is generated
// once and persisted under stateDir so the identity survives restarts.
func machineID(stateDir string) string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		sum := sha256.Sum256([]byte(hostname))
		return hex.EncodeToString(sum[:])
	}

	idPath := filepath.Join(stateDir, machineIDFileName)
	if data, err := os.ReadFile(idPath); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := uuid.NewString()
	_ = os.WriteFile(idPath, []byte(id+"\n"), 0o600)
	return id
}
