// Package gnmi is a read-only device directory over gNMI. ONU state comes from
// the BBF TR-385 xpon-onu-states tree.
package gnmi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/bbf"
	"github.com/nanoncore/onuwatch/vendors/common"
)

// DeviceCapabilities contains gNMI capability information
type DeviceCapabilities struct {
	SupportedModels    []ModelInfo
	SupportedEncodings []string
	GNMIVersion        string
}

// ModelInfo describes a supported YANG model
type ModelInfo struct {
	Name         string
	Organization string
	Version      string
}

// Driver implements types.Directory using gNMI/gRPC
type Driver struct {
	config       *types.DirectoryConfig
	ct           bbf.CTTemplate
	conn         *grpc.ClientConn
	gnmiClient   gnmipb.GNMIClient
	capabilities *DeviceCapabilities
	mu           sync.RWMutex
}

// NewDriver creates a new gNMI driver. The connection is made on first use.
func NewDriver(config *types.DirectoryConfig) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	// Default port for gNMI
	if config.Port == 0 {
		config.Port = 9339
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Driver{
		config: config,
		ct:     bbf.CTTemplate(common.MetadataStringWithDefault(config.Metadata, string(bbf.DefaultCTTemplate), "gnmi_ct_template", "bbf_ct_template")),
	}, nil
}

// Connect establishes a gRPC connection to the device
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked(ctx)
}

func (d *Driver) connectLocked(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}

	var opts []grpc.DialOption
	if d.config.TLSEnabled {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: d.config.TLSSkipVerify, //nolint:gosec // User-controlled
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, grpc.WithBlock()) //nolint:staticcheck // supported throughout 1.x

	target := fmt.Sprintf("%s:%d", d.config.Address, d.config.Port)

	connectCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	conn, err := grpc.DialContext(connectCtx, target, opts...) //nolint:staticcheck // supported throughout 1.x
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", target, err)
	}

	d.conn = conn
	d.gnmiClient = gnmipb.NewGNMIClient(conn)

	caps, err := d.fetchCapabilities(ctx)
	if err != nil {
		_ = conn.Close()
		d.conn = nil
		d.gnmiClient = nil
		return fmt.Errorf("capabilities check failed: %w", err)
	}
	d.capabilities = caps

	return nil
}

// Close closes the gRPC connection
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		err := d.conn.Close()
		d.conn = nil
		d.gnmiClient = nil
		d.capabilities = nil
		return err
	}
	return nil
}

// IsConnected returns true if connected
func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conn != nil
}

// client connects if needed and returns the gNMI stub
func (d *Driver) client(ctx context.Context) (gnmipb.GNMIClient, error) {
	d.mu.RLock()
	c := d.gnmiClient
	d.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.connectLocked(ctx); err != nil {
		return nil, err
	}
	return d.gnmiClient, nil
}

// Capabilities returns the device's gNMI capabilities
func (d *Driver) Capabilities(ctx context.Context) (*DeviceCapabilities, error) {
	if _, err := d.client(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.capabilities, nil
}

func (d *Driver) fetchCapabilities(ctx context.Context) (*DeviceCapabilities, error) {
	ctx = d.addAuthMetadata(ctx)

	capCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := d.gnmiClient.Capabilities(capCtx, &gnmipb.CapabilityRequest{})
	if err != nil {
		return nil, fmt.Errorf("capabilities request failed: %w", err)
	}

	caps := &DeviceCapabilities{
		GNMIVersion: resp.GNMIVersion,
	}
	for _, model := range resp.SupportedModels {
		caps.SupportedModels = append(caps.SupportedModels, ModelInfo{
			Name:         model.Name,
			Organization: model.Organization,
			Version:      model.Version,
		})
	}
	for _, enc := range resp.SupportedEncodings {
		caps.SupportedEncodings = append(caps.SupportedEncodings, enc.String())
	}

	return caps, nil
}

// Get retrieves values at the specified paths
func (d *Driver) Get(ctx context.Context, paths []string) (map[string]interface{}, error) {
	c, err := d.client(ctx)
	if err != nil {
		return nil, err
	}

	ctx = d.addAuthMetadata(ctx)

	gnmiPaths := make([]*gnmipb.Path, len(paths))
	for i, p := range paths {
		gnmiPaths[i] = ParsePath(p)
	}

	getReq := &gnmipb.GetRequest{
		Path:     gnmiPaths,
		Encoding: gnmipb.Encoding_JSON_IETF,
	}

	getCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	resp, err := c.Get(getCtx, getReq)
	if err != nil {
		return nil, fmt.Errorf("gNMI Get failed: %w", err)
	}

	result := make(map[string]interface{})
	for _, notification := range resp.Notification {
		prefix := PathToString(notification.Prefix)
		if prefix == "/" {
			prefix = ""
		}
		for _, update := range notification.Update {
			result[prefix+PathToString(update.Path)] = decodeTypedValue(update.Val)
		}
	}

	return result, nil
}

// HealthCheck verifies the device answers a capabilities request
func (d *Driver) HealthCheck(ctx context.Context) error {
	if _, err := d.client(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	caps, err := d.fetchCapabilities(ctx)
	if err != nil {
		return err
	}
	d.capabilities = caps
	return nil
}

// addAuthMetadata adds authentication to the context
func (d *Driver) addAuthMetadata(ctx context.Context) context.Context {
	if d.config.Username != "" && d.config.Password != "" {
		md := metadata.Pairs(
			"username", d.config.Username,
			"password", d.config.Password,
		)
		return metadata.NewOutgoingContext(ctx, md)
	}
	return ctx
}

// ParsePath converts a string path to gNMI Path
// Supports formats:
//   - /interfaces/interface[name=eth0]/state/counters
//   - bbf-xpon-onu-states:xpon-onu-states/onu-state[detected-serial-number='ZTEG00000001']
//
// A module prefix on the first element becomes the path origin.
func ParsePath(path string) *gnmipb.Path {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return &gnmipb.Path{}
	}

	// Split by / but keep key values intact
	var elems []string
	var current strings.Builder
	inKey := false
	for _, c := range path {
		switch c {
		case '[':
			inKey = true
			current.WriteRune(c)
		case ']':
			inKey = false
			current.WriteRune(c)
		case '/':
			if inKey {
				current.WriteRune(c)
			} else if current.Len() > 0 {
				elems = append(elems, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		elems = append(elems, current.String())
	}

	gnmiPath := &gnmipb.Path{}
	for i, elem := range elems {
		pathElem := &gnmipb.PathElem{}

		name := elem
		keyPart := ""
		if idx := strings.Index(elem, "["); idx != -1 {
			name, keyPart = elem[:idx], elem[idx:]
		}
		if i == 0 {
			if origin, rest, ok := strings.Cut(name, ":"); ok {
				gnmiPath.Origin = origin
				name = rest
			}
		}
		pathElem.Name = name

		for keyPart != "" {
			start := strings.Index(keyPart, "[")
			end := strings.Index(keyPart, "]")
			if start == -1 || end == -1 || end < start {
				break
			}
			kvPair := keyPart[start+1 : end]
			if key, value, ok := strings.Cut(kvPair, "="); ok {
				if pathElem.Key == nil {
					pathElem.Key = make(map[string]string)
				}
				pathElem.Key[key] = strings.Trim(value, "'\"")
			}
			keyPart = keyPart[end+1:]
		}

		gnmiPath.Elem = append(gnmiPath.Elem, pathElem)
	}

	return gnmiPath
}

// PathToString converts a gNMI Path to string format
func PathToString(path *gnmipb.Path) string {
	if path == nil {
		return ""
	}

	var parts []string
	for i, elem := range path.Elem {
		part := elem.Name
		if i == 0 && path.Origin != "" {
			part = path.Origin + ":" + part
		}
		for k, v := range elem.Key {
			part += fmt.Sprintf("[%s=%s]", k, v)
		}
		parts = append(parts, part)
	}

	return "/" + strings.Join(parts, "/")
}

// decodeTypedValue converts a gNMI TypedValue to Go value
func decodeTypedValue(tv *gnmipb.TypedValue) interface{} {
	if tv == nil {
		return nil
	}

	switch v := tv.Value.(type) {
	case *gnmipb.TypedValue_StringVal:
		return v.StringVal
	case *gnmipb.TypedValue_IntVal:
		return v.IntVal
	case *gnmipb.TypedValue_UintVal:
		return v.UintVal
	case *gnmipb.TypedValue_BoolVal:
		return v.BoolVal
	case *gnmipb.TypedValue_BytesVal:
		return v.BytesVal
	case *gnmipb.TypedValue_DoubleVal:
		return v.DoubleVal
	case *gnmipb.TypedValue_LeaflistVal:
		var result []interface{}
		for _, elem := range v.LeaflistVal.Element {
			result = append(result, decodeTypedValue(elem))
		}
		return result
	case *gnmipb.TypedValue_JsonVal:
		var result interface{}
		if err := json.Unmarshal(v.JsonVal, &result); err != nil {
			return string(v.JsonVal)
		}
		return result
	case *gnmipb.TypedValue_JsonIetfVal:
		var result interface{}
		if err := json.Unmarshal(v.JsonIetfVal, &result); err != nil {
			return string(v.JsonIetfVal)
		}
		return result
	case *gnmipb.TypedValue_AsciiVal:
		return v.AsciiVal
	default:
		return nil
	}
}
