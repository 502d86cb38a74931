package store

import (
	"testing"
)

func TestRemoteStoreIntegration(t *testing.T) {
	// This test requires a real PostgreSQL database
	// In a production environment, you would use a test database or testcontainers
	t.Skip("Skipping database integration test - requires PostgreSQL instance")
}
