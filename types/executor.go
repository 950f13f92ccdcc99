package types

import "context"

// CLIExecutor runs commands on the device CLI. Vendor adapters build the
// command text; the driver owns the session.
type CLIExecutor interface {
	// ExecCommand executes a single CLI command and returns its output
	ExecCommand(ctx context.Context, command string) (string, error)

	// ExecCommands executes commands in order and stops at the first failure.
	// Outputs of the commands that ran are returned.
	ExecCommands(ctx context.Context, commands []string) ([]string, error)
}

// SNMPExecutor reads values from the device over SNMP.
type SNMPExecutor interface {
	// GetSNMP retrieves a single SNMP value
	GetSNMP(ctx context.Context, oid string) (interface{}, error)

	// WalkSNMP walks a subtree. Keys are the OID suffixes below oid.
	WalkSNMP(ctx context.Context, oid string) (map[string]interface{}, error)

	// BulkGetSNMP retrieves several OIDs at once, keyed by full OID
	BulkGetSNMP(ctx context.Context, oids []string) (map[string]interface{}, error)
}

// Transport is a connection a backend drives.
type Transport interface {
	// HealthCheck verifies the device answers
	HealthCheck(ctx context.Context) error

	// Close releases the connection
	Close() error
}
