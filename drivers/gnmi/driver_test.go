package gnmi

import (
	"context"
	"net"
	"sync"
	"testing"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/bbf"
)

const onuStatesJSON = `{"bbf-xpon-onu-states:xpon-onu-states": {"onu-state": [
  {"detected-serial-number": "ZTEGC8B1D2E3", "onu-id": 1, "channel-termination-ref": "CT_1/2",
   "onu-presence-state": "bbf-xpon-onu-types:onu-present-and-on-intended-channel-termination",
   "v-ani-ref": "alice", "equipment-id": "F660", "onu-state-last-change": "2024-03-02T08:00:00Z",
   "optical-info": {"rx-power": "-21.326", "tx-power": "2.2"}},
  {"detected-serial-number": "ZTEG00000002", "onu-id": 2, "channel-termination-ref": "CT_1/2",
   "onu-presence-state": "bbf-xpon-onu-types:onu-not-present-with-v-ani",
   "v-ani-ref": "bob", "onu-state-last-change": "2024-03-01T22:10:00Z"},
  {"detected-serial-number": "ZTEG00000009", "onu-id": 9, "channel-termination-ref": "CT_1/3",
   "onu-presence-state": "bbf-xpon-onu-types:onu-present-and-on-intended-channel-termination"},
  {"detected-serial-number": "HWTC9988AA01", "channel-termination-ref": "CT_1/2",
   "onu-presence-state": "bbf-xpon-onu-types:onu-present-and-no-v-ani-known-and-unclaimed",
   "equipment-id": "HG8245"}
]}}`

type fakeGNMI struct {
	gnmipb.UnimplementedGNMIServer

	mu       sync.Mutex
	lastPath string
	username string
}

func (f *fakeGNMI) Capabilities(ctx context.Context, req *gnmipb.CapabilityRequest) (*gnmipb.CapabilityResponse, error) {
	return &gnmipb.CapabilityResponse{
		GNMIVersion:        "0.8.0",
		SupportedEncodings: []gnmipb.Encoding{gnmipb.Encoding_JSON_IETF},
		SupportedModels: []*gnmipb.ModelData{
			{Name: "bbf-xpon-onu-states", Organization: "Broadband Forum", Version: "2021-09-13"},
		},
	}, nil
}

func (f *fakeGNMI) Get(ctx context.Context, req *gnmipb.GetRequest) (*gnmipb.GetResponse, error) {
	f.mu.Lock()
	f.lastPath = PathToString(req.Path[0])
	if md, ok := metadata.FromIncomingContext(ctx); ok && len(md.Get("username")) > 0 {
		f.username = md.Get("username")[0]
	}
	f.mu.Unlock()

	return &gnmipb.GetResponse{Notification: []*gnmipb.Notification{{
		Update: []*gnmipb.Update{{
			Path: &gnmipb.Path{Origin: "bbf-xpon-onu-states", Elem: []*gnmipb.PathElem{{Name: "xpon-onu-states"}}},
			Val:  &gnmipb.TypedValue{Value: &gnmipb.TypedValue_JsonIetfVal{JsonIetfVal: []byte(onuStatesJSON)}},
		}},
	}}}, nil
}

func startServer(t *testing.T) (*fakeGNMI, *Driver) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	fake := &fakeGNMI{}
	srv := grpc.NewServer()
	gnmipb.RegisterGNMIServer(srv, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	d, err := NewDriver(&types.DirectoryConfig{
		Address:  "127.0.0.1",
		Port:     lis.Addr().(*net.TCPAddr).Port,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return fake, d
}

func TestNewDriver(t *testing.T) {
	_, err := NewDriver(nil)
	assert.Error(t, err)

	_, err = NewDriver(&types.DirectoryConfig{})
	assert.Error(t, err)

	cfg := &types.DirectoryConfig{Address: "10.0.0.1"}
	d, err := NewDriver(cfg)
	require.NoError(t, err)
	assert.Equal(t, 9339, cfg.Port)
	assert.Equal(t, "CT_1/2", d.ChannelTermination(1, 2))
	assert.False(t, d.IsConnected())
}

func TestParsePath(t *testing.T) {
	p := ParsePath("/bbf-xpon-onu-states:xpon-onu-states/onu-state[detected-serial-number='ZTEG/1']")
	assert.Equal(t, "bbf-xpon-onu-states", p.Origin)
	require.Len(t, p.Elem, 2)
	assert.Equal(t, "xpon-onu-states", p.Elem[0].Name)
	assert.Equal(t, "onu-state", p.Elem[1].Name)
	assert.Equal(t, map[string]string{"detected-serial-number": "ZTEG/1"}, p.Elem[1].Key)

	assert.Equal(t, "/bbf-xpon-onu-states:xpon-onu-states/onu-state[detected-serial-number=ZTEG/1]", PathToString(p))
	assert.Empty(t, ParsePath("/").Elem)
}

func TestParseONUStatesShapes(t *testing.T) {
	list := []interface{}{
		map[string]interface{}{"detected-serial-number": "ZTEG:00000001", "onu-id": float64(3)},
	}
	states := ParseONUStates(list)
	require.Len(t, states, 1)
	assert.Equal(t, "ZTEG00000001", states[0].SerialNumber)
	assert.Equal(t, 3, states[0].OnuID)

	single := map[string]interface{}{"bbf-xpon-onu-states:detected-serial-number": "ZTEG00000004", "onu-id": "4"}
	states = ParseONUStates(single)
	require.Len(t, states, 1)
	assert.Equal(t, 4, states[0].OnuID)

	assert.Empty(t, ParseONUStates("garbage"))
}

func TestChannelTerminationTemplate(t *testing.T) {
	d, err := NewDriver(&types.DirectoryConfig{
		Address:  "10.0.0.1",
		Metadata: map[string]string{"gnmi_ct_template": "ct.{board}.{pon}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ct.3.7", d.ChannelTermination(3, 7))

	d, err = NewDriver(&types.DirectoryConfig{
		Address:  "10.0.0.1",
		Metadata: map[string]string{"bbf_ct_template": "pon-{board}-{pon}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pon-1-4", d.ChannelTermination(1, 4))
}

func TestSnapshot(t *testing.T) {
	fake, d := startServer(t)

	devices, err := d.Snapshot(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, types.Device{
		OnuID: 1, Name: "alice", OnuType: "F660", SerialNumber: "ZTEGC8B1D2E3",
		RxPower: "-21.33", Status: "Online", Board: 1, PON: 2,
	}, devices[0])
	assert.Equal(t, "Offline", devices[1].Status)
	assert.Equal(t, "", devices[1].RxPower)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, PathONUStates, fake.lastPath)
	assert.Equal(t, "admin", fake.username)
	assert.True(t, d.IsConnected())
}

func TestDetail(t *testing.T) {
	_, d := startServer(t)

	detail, err := d.Detail(context.Background(), 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "2.20", detail.TxPower)
	assert.Equal(t, "2024-03-02T08:00:00Z", detail.LastOnline)

	detail, err = d.Detail(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T22:10:00Z", detail.LastOffline)

	_, err = d.Detail(context.Background(), 1, 2, 50)
	assert.Error(t, err)
}

func TestUnactivated(t *testing.T) {
	_, d := startServer(t)

	onus, err := d.Unactivated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.UnactivatedONU{{
		OltIndex:     "gpon-olt_1/1/2",
		Model:        "HG8245",
		SerialNumber: "HWTC9988AA01",
		Status:       bbf.PresenceUnclaimed,
	}}, onus)
}

func TestHealthCheckAndCapabilities(t *testing.T) {
	_, d := startServer(t)

	require.NoError(t, d.HealthCheck(context.Background()))
	caps, err := d.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.8.0", caps.GNMIVersion)
	assert.Equal(t, []string{"JSON_IETF"}, caps.SupportedEncodings)
}

func TestCommandsUnsupported(t *testing.T) {
	d, err := NewDriver(&types.DirectoryConfig{Address: "10.0.0.1"})
	require.NoError(t, err)

	_, err = d.Register(context.Background(), &types.RegisterRequest{})
	assert.ErrorIs(t, err, types.ErrUnsupported)
	_, err = d.Reboot(context.Background(), &types.RebootRequest{})
	assert.ErrorIs(t, err, types.ErrUnsupported)
	_, err = d.Remove(context.Background(), &types.RemoveRequest{})
	assert.ErrorIs(t, err, types.ErrUnsupported)
}
