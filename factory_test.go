package onuwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/onuwatch/drivers/gnmi"
	"github.com/nanoncore/onuwatch/drivers/mock"
	"github.com/nanoncore/onuwatch/drivers/netconf"
	"github.com/nanoncore/onuwatch/drivers/rest"
	"github.com/nanoncore/onuwatch/vendors/zte"
)

func TestNewDirectory(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		config   *DirectoryConfig
		wantType interface{}
		wantErr  bool
	}{
		{"nil config", ProtocolREST, nil, nil, true},
		{"unknown protocol", Protocol("tl1"), &DirectoryConfig{}, nil, true},
		{"rest default", "", &DirectoryConfig{BaseURL: "http://127.0.0.1:8081"}, &rest.Driver{}, false},
		{"rest without base url", ProtocolREST, &DirectoryConfig{}, nil, true},
		{"protocol from config", "", &DirectoryConfig{Protocol: ProtocolMock}, &mock.Driver{}, false},
		{"mock", ProtocolMock, &DirectoryConfig{}, &mock.Driver{}, false},
		{"snmp", ProtocolSNMP, &DirectoryConfig{Address: "10.0.0.1"}, &zte.Adapter{}, false},
		{"snmp without address", ProtocolSNMP, &DirectoryConfig{}, nil, true},
		{"cli", ProtocolCLI, &DirectoryConfig{Address: "10.0.0.1", Username: "admin"}, &zte.Adapter{}, false},
		{"cli without username", ProtocolCLI, &DirectoryConfig{Address: "10.0.0.1"}, nil, true},
		{"gnmi", ProtocolGNMI, &DirectoryConfig{Address: "10.0.0.1"}, &gnmi.Driver{}, false},
		{"netconf", ProtocolNETCONF, &DirectoryConfig{Address: "10.0.0.1", Username: "admin"}, &netconf.Driver{}, false},
		{"netconf without username", ProtocolNETCONF, &DirectoryConfig{Address: "10.0.0.1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := NewDirectory(tt.protocol, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, dir)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, dir)
			assert.NoError(t, dir.Close())
		})
	}
}

func TestCapabilityMatrix(t *testing.T) {
	protocols := GetSupportedProtocols()
	assert.Equal(t, []Protocol{ProtocolCLI, ProtocolGNMI, ProtocolMock, ProtocolNETCONF, ProtocolREST, ProtocolSNMP}, protocols)

	for _, p := range protocols {
		caps, ok := GetBackendCapabilities(p)
		require.True(t, ok)
		assert.True(t, caps.Reads, "%s must support reads", p)
	}

	caps, _ := GetBackendCapabilities(ProtocolSNMP)
	assert.False(t, caps.Commands)

	caps, _ = GetBackendCapabilities(ProtocolNETCONF)
	assert.False(t, caps.Commands)
	assert.Equal(t, []string{"address", "username"}, caps.Requires)

	_, ok := GetBackendCapabilities("tl1")
	assert.False(t, ok)
}
