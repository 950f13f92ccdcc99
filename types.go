// Package onuwatch builds device directories for the GPON ONU slot dashboard.
package onuwatch

// Re-export types from the types sub-package so callers can use onuwatch.Directory, etc.

import (
	"github.com/nanoncore/onuwatch/types"
)

// Type aliases
type (
	Protocol        = types.Protocol
	DirectoryConfig = types.DirectoryConfig
	Directory       = types.Directory
	Device          = types.Device
	DeviceDetail    = types.DeviceDetail
	UnactivatedONU  = types.UnactivatedONU
	CommandResponse = types.CommandResponse
	CommandError    = types.CommandError
	CLIExecutor     = types.CLIExecutor
	SNMPExecutor    = types.SNMPExecutor
)

// Re-export constants
const (
	ProtocolREST    = types.ProtocolREST
	ProtocolSNMP    = types.ProtocolSNMP
	ProtocolCLI     = types.ProtocolCLI
	ProtocolGNMI    = types.ProtocolGNMI
	ProtocolNETCONF = types.ProtocolNETCONF
	ProtocolMock    = types.ProtocolMock
)
