package onuwatch

import (
	"fmt"
	"sort"

	"github.com/nanoncore/onuwatch/drivers/cli"
	"github.com/nanoncore/onuwatch/drivers/gnmi"
	"github.com/nanoncore/onuwatch/drivers/mock"
	"github.com/nanoncore/onuwatch/drivers/netconf"
	"github.com/nanoncore/onuwatch/drivers/rest"
	"github.com/nanoncore/onuwatch/drivers/snmp"
	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/vendors/zte"
)

// CapabilityMatrix defines what each backend supports
var CapabilityMatrix = map[Protocol]BackendCapabilities{
	ProtocolREST: {
		Reads:       true,
		Unactivated: true,
		Commands:    true,
		Requires:    []string{"base_url"},
	},
	ProtocolSNMP: {
		Reads:       true,
		Unactivated: true,
		Commands:    false,
		Requires:    []string{"address"},
	},
	ProtocolCLI: {
		Reads:       true,
		Unactivated: true,
		Commands:    true,
		Requires:    []string{"address", "username"},
	},
	ProtocolGNMI: {
		Reads:       true,
		Unactivated: true,
		Commands:    false,
		Requires:    []string{"address"},
	},
	ProtocolNETCONF: {
		Reads:       true,
		Unactivated: true,
		Commands:    false,
		Requires:    []string{"address", "username"},
	},
	ProtocolMock: {
		Reads:       true,
		Unactivated: true,
		Commands:    true,
	},
}

// BackendCapabilities defines which directory operations a backend performs
type BackendCapabilities struct {
	// Reads covers Snapshot and Detail
	Reads bool

	// Unactivated lists unregistered ONUs
	Unactivated bool

	// Commands covers Register, Reboot and Remove
	Commands bool

	// Requires names the config fields the backend cannot run without
	Requires []string
}

// NewDirectory creates a device directory for the given protocol.
// An empty protocol falls back to config.Protocol, then to REST.
func NewDirectory(protocol Protocol, config *DirectoryConfig) (Directory, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if protocol == "" {
		protocol = config.Protocol
	}
	if protocol == "" {
		protocol = ProtocolREST
	}

	caps, ok := CapabilityMatrix[protocol]
	if !ok {
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
	if err := checkRequired(caps, config); err != nil {
		return nil, fmt.Errorf("%s backend: %w", protocol, err)
	}
	config.Protocol = protocol

	log := logger.New(logger.WithComponent(string(protocol)))

	var (
		dir Directory
		err error
	)
	switch protocol {
	case ProtocolREST:
		dir, err = newREST(config, log)
	case ProtocolMock:
		dir, err = newMock(config, log)
	case ProtocolGNMI:
		dir, err = newGNMI(config)
	case ProtocolNETCONF:
		dir, err = newNETCONF(config)
	case ProtocolSNMP:
		dir, err = newSNMP(config)
	case ProtocolCLI:
		dir, err = newCLI(config)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", protocol, err)
	}
	return dir, nil
}

func newREST(config *DirectoryConfig, log logger.Logger) (Directory, error) {
	d, err := rest.NewDriver(config, rest.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newMock(config *DirectoryConfig, log logger.Logger) (Directory, error) {
	d, err := mock.NewDriver(config, mock.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newGNMI(config *DirectoryConfig) (Directory, error) {
	d, err := gnmi.NewDriver(config)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func newNETCONF(config *DirectoryConfig) (Directory, error) {
	d, err := netconf.NewDriver(config)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SNMP reads through the ZTE private MIB; commands are unsupported
func newSNMP(config *DirectoryConfig) (Directory, error) {
	transport, err := snmp.NewDriver(config)
	if err != nil {
		return nil, err
	}
	a, err := zte.NewAdapter(config, nil, transport)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CLI reads and commands through the ZTE ZXAN grammar
func newCLI(config *DirectoryConfig) (Directory, error) {
	transport, err := cli.NewDriver(config)
	if err != nil {
		return nil, err
	}
	a, err := zte.NewAdapter(config, transport, nil)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func checkRequired(caps BackendCapabilities, config *DirectoryConfig) error {
	for _, field := range caps.Requires {
		var value string
		switch field {
		case "base_url":
			value = config.BaseURL
		case "address":
			value = config.Address
		case "username":
			value = config.Username
		}
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	return nil
}

// GetSupportedProtocols returns every backend protocol, sorted
func GetSupportedProtocols() []Protocol {
	protocols := make([]Protocol, 0, len(CapabilityMatrix))
	for p := range CapabilityMatrix {
		protocols = append(protocols, p)
	}
	sort.Slice(protocols, func(i, j int) bool { return protocols[i] < protocols[j] })
	return protocols
}

// GetBackendCapabilities returns the capabilities of a protocol
func GetBackendCapabilities(protocol Protocol) (BackendCapabilities, bool) {
	caps, ok := CapabilityMatrix[protocol]
	return caps, ok
}
