// Package snmp is the SNMP transport for read-only OLT backends.
package snmp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// OIDSysDescr is queried as a health check
const OIDSysDescr = "1.3.6.1.2.1.1.1.0"

// Driver implements types.SNMPExecutor using gosnmp.
// A GoSNMP handle is not safe for concurrent requests, so calls are serialized.
type Driver struct {
	config *types.DirectoryConfig

	mu   sync.Mutex
	snmp *gosnmp.GoSNMP
}

// NewDriver creates a new SNMP driver. The socket is opened on first use.
func NewDriver(config *types.DirectoryConfig) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	if config.Port == 0 {
		config.Port = 161
	}

	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Driver{
		config: config,
	}, nil
}

// newClient builds the gosnmp handle from config and metadata
// (snmp_version, snmp_community, snmp_retries, snmp_max_repetitions).
func (d *Driver) newClient() *gosnmp.GoSNMP {
	md := d.config.Metadata

	version := gosnmp.Version2c
	switch common.MetadataStringWithDefault(md, "2c", "snmp_version") {
	case "1":
		version = gosnmp.Version1
	case "3":
		version = gosnmp.Version3
	}

	port := d.config.Port
	if port < 0 || port > 65535 {
		port = 161
	}

	client := &gosnmp.GoSNMP{
		Target:         d.config.Address,
		Port:           uint16(port), //nolint:gosec // validated above
		Community:      common.MetadataStringWithDefault(md, "public", "snmp_community"),
		Version:        version,
		Timeout:        d.config.Timeout,
		Retries:        common.MetadataIntWithDefault(md, 2, "snmp_retries"),
		MaxRepetitions: uint32(common.MetadataIntWithDefault(md, 32, "snmp_max_repetitions")), //nolint:gosec // small config value
	}

	if version == gosnmp.Version3 {
		client.SecurityModel = gosnmp.UserSecurityModel
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 d.config.Username,
			AuthenticationProtocol:   gosnmp.SHA,
			AuthenticationPassphrase: d.config.Password,
			PrivacyProtocol:          gosnmp.AES,
			PrivacyPassphrase:        d.config.Password,
		}
		client.MsgFlags = gosnmp.AuthPriv
	}

	return client
}

// Connect opens the SNMP socket
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked()
}

func (d *Driver) connectLocked() error {
	if d.snmp != nil {
		return nil
	}

	client := d.newClient()
	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect SNMP: %w", err)
	}

	d.snmp = client
	return nil
}

// Close closes the SNMP socket
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.snmp != nil && d.snmp.Conn != nil {
		err := d.snmp.Conn.Close()
		d.snmp = nil
		return err
	}
	d.snmp = nil
	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snmp != nil
}

// prepare connects if needed and binds the request to ctx
func (d *Driver) prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.connectLocked(); err != nil {
		return err
	}
	d.snmp.Context = ctx
	return nil
}

// HealthCheck queries sysDescr
func (d *Driver) HealthCheck(ctx context.Context) error {
	_, err := d.GetSNMP(ctx, OIDSysDescr)
	return err
}

// GetSNMP implements types.SNMPExecutor - retrieves a single SNMP value
func (d *Driver) GetSNMP(ctx context.Context, oid string) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.prepare(ctx); err != nil {
		return nil, err
	}

	result, err := d.snmp.Get([]string{oid})
	if err != nil {
		return nil, fmt.Errorf("SNMP GET failed: %w", err)
	}

	if len(result.Variables) == 0 {
		return nil, fmt.Errorf("no result for OID %s", oid)
	}

	variable := result.Variables[0]
	if variable.Type == gosnmp.NoSuchObject || variable.Type == gosnmp.NoSuchInstance {
		return nil, fmt.Errorf("no such object %s", oid)
	}
	return convertValue(variable), nil
}

// WalkSNMP implements types.SNMPExecutor - performs a bulk walk
func (d *Driver) WalkSNMP(ctx context.Context, oid string) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.prepare(ctx); err != nil {
		return nil, err
	}

	results := make(map[string]interface{})
	walk := d.snmp.BulkWalk
	if d.snmp.Version == gosnmp.Version1 {
		walk = d.snmp.Walk
	}

	err := walk(oid, func(pdu gosnmp.SnmpPDU) error {
		index, ok := common.SNMPSuffix(pdu.Name, oid)
		if !ok {
			return nil
		}
		results[index] = convertValue(pdu)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SNMP WALK %s failed: %w", oid, err)
	}

	return results, nil
}

// BulkGetSNMP implements types.SNMPExecutor - retrieves multiple OIDs
func (d *Driver) BulkGetSNMP(ctx context.Context, oids []string) (map[string]interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.prepare(ctx); err != nil {
		return nil, err
	}

	results := make(map[string]interface{}, len(oids))
	// agents cap the varbinds per PDU
	for start := 0; start < len(oids); start += gosnmp.MaxOids {
		end := start + gosnmp.MaxOids
		if end > len(oids) {
			end = len(oids)
		}
		result, err := d.snmp.Get(oids[start:end])
		if err != nil {
			return nil, fmt.Errorf("SNMP GET failed: %w", err)
		}
		for _, variable := range result.Variables {
			if variable.Type == gosnmp.NoSuchObject || variable.Type == gosnmp.NoSuchInstance {
				continue
			}
			results[variable.Name] = convertValue(variable)
		}
	}

	return results, nil
}

// convertValue normalizes gosnmp values: strings for octet strings, int64 for
// integers and uint64 for counters and gauges.
func convertValue(pdu gosnmp.SnmpPDU) interface{} {
	switch pdu.Type {
	case gosnmp.OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			return strings.TrimRight(string(b), "\x00")
		}
		return pdu.Value
	case gosnmp.Integer:
		if v, ok := pdu.Value.(int); ok {
			return int64(v)
		}
		return pdu.Value
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32:
		if v, ok := pdu.Value.(uint); ok {
			return uint64(v)
		}
		if v, ok := pdu.Value.(uint32); ok {
			return uint64(v)
		}
		return pdu.Value
	case gosnmp.Counter64:
		return gosnmp.ToBigInt(pdu.Value).Uint64()
	default:
		return pdu.Value
	}
}

var (
	_ types.SNMPExecutor = (*Driver)(nil)
	_ types.Transport    = (*Driver)(nil)
)
