package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/types"
)

type recorded struct {
	method    string
	path      string
	requestID string
	body      map[string]interface{}
}

// apiServer serves canned replies per path and records every request.
type apiServer struct {
	mu       sync.Mutex
	requests []recorded
	replies  map[string]reply
}

type reply struct {
	status int
	body   string
}

func (s *apiServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{method: r.Method, path: r.URL.Path, requestID: r.Header.Get(RequestIDHeader)}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &rec.body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()

	rep, ok := s.replies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (s *apiServer) last() recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestDriver(t *testing.T, replies map[string]reply, opts ...Option) (*Driver, *apiServer) {
	t.Helper()
	api := &apiServer{replies: replies}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithLogger(logger.NewTestLogger())}, opts...)
	d, err := NewDriver(&types.DirectoryConfig{BaseURL: srv.URL}, opts...)
	require.NoError(t, err)
	return d, api
}

func TestNewDriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *types.DirectoryConfig
		wantErr bool
	}{
		{"nil config", nil, true},
		{"missing base url", &types.DirectoryConfig{}, true},
		{"bad scheme", &types.DirectoryConfig{BaseURL: "ftp://olt"}, true},
		{"valid", &types.DirectoryConfig{BaseURL: "http://127.0.0.1:8081"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDriver(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	d, api := newTestDriver(t, map[string]reply{
		"/api/v1/board/1/pon/8": {200, `{"code":200,"status":"OK","data":[
			{"onu_id":3,"name":"alice","onu_type":"F660","serial_number":"ZTEGC8B1D2E3","rx_power":"-21.33","status":"Online"},
			{"onu_id":7,"name":"bob","onu_type":"F609","serial_number":"ZTEG00000007","rx_power":"-27.10","status":"LOS","board":1,"pon":8}
		]}`},
	})

	devices, err := d.Snapshot(context.Background(), 1, 8)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, types.Device{
		OnuID: 3, Name: "alice", OnuType: "F660", SerialNumber: "ZTEGC8B1D2E3",
		RxPower: "-21.33", Status: "Online", Board: 1, PON: 8,
	}, devices[0])

	req := api.last()
	assert.Equal(t, http.MethodGet, req.method)
	_, err = uuid.Parse(req.requestID)
	assert.NoError(t, err, "request id must be a uuid")
}

func TestSnapshotEmptyData(t *testing.T) {
	d, _ := newTestDriver(t, map[string]reply{
		"/api/v1/board/2/pon/2": {200, `{"code":200,"status":"OK","data":null}`},
	})

	devices, err := d.Snapshot(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestSnapshotFailures(t *testing.T) {
	d, _ := newTestDriver(t, map[string]reply{
		"/api/v1/board/1/pon/1": {500, `boom`},
		"/api/v1/board/1/pon/2": {200, `not json`},
	})

	_, err := d.Snapshot(context.Background(), 1, 1)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)

	_, err = d.Snapshot(context.Background(), 1, 2)
	assert.Error(t, err)

	_, err = d.Snapshot(context.Background(), 9, 9)
	assert.Error(t, err, "404 is a failure")
}

func TestDetail(t *testing.T) {
	d, _ := newTestDriver(t, map[string]reply{
		"/api/v1/board/1/pon/8/onu/3": {200, `{"code":200,"status":"OK","data":{
			"onu_id":3,"name":"alice","status":"Online","rx_power":"-21.33","tx_power":"2.20",
			"description":"Blok C","ip_address":"10.0.0.3","last_online":"2024-03-02 08:00:00",
			"uptime":"2h 0m 0s","gpon_optical_distance":"1532"}}`},
	})

	detail, err := d.Detail(context.Background(), 1, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.Name)
	assert.Equal(t, "2.20", detail.TxPower)
	assert.Equal(t, "10.0.0.3", detail.IPAddress)
	assert.Equal(t, "1532", detail.GponOpticalDistance)
	assert.Equal(t, 1, detail.Board)
	assert.Equal(t, 8, detail.PON)
}

func TestUnactivated(t *testing.T) {
	d, _ := newTestDriver(t, map[string]reply{
		"/api/v1/onu/unactivated": {200, `{"code":200,"status":"OK","data":{"detected_onu":[
			{"olt_index":"gpon-olt_1/1/4","model":"F660","serial_number":"ZTEGC0FFEE01","status":"unknown"}]}}`},
	})

	onus, err := d.Unactivated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.UnactivatedONU{{
		OltIndex: "gpon-olt_1/1/4", Model: "F660", SerialNumber: "ZTEGC0FFEE01", Status: "unknown",
	}}, onus)
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		reply    reply
		wantCode int
	}{
		{"ok", reply{200, `{"code":200,"status":"OK"}`}, 200},
		{"created without body", reply{201, ``}, 200},
		{"2xx with odd code", reply{200, `{"code":0,"status":"queued"}`}, 200},
		{"rejected", reply{400, `{"code":400,"status":"serial already registered"}`}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, api := newTestDriver(t, map[string]reply{"/api/v1/onu/register": tt.reply})

			resp, err := d.Register(context.Background(), &types.RegisterRequest{
				OltIndex:     types.RegisterOLTIndex(2, 5),
				SerialNumber: "ZTEGC8B1D2E3",
				Region:       "Blok C",
				Code:         "CUST-1",
				Onu:          4,
				VlanID:       "200",
				Board:        2,
				PON:          5,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.Code)

			body := api.last().body
			assert.Equal(t, "gpon-olt_2/1/5", body["olt_index"])
			assert.Equal(t, float64(4), body["onu"])
			assert.Equal(t, "200", body["vlan_id"])
			assert.NotContains(t, body, "Board")
		})
	}
}

func TestReboot(t *testing.T) {
	tests := []struct {
		name     string
		reply    reply
		wantCode int
		wantOK   bool
	}{
		{"ok", reply{200, `{"code":200,"status":"OK"}`}, 200, true},
		{"string code", reply{200, `{"code":"200","status":"OK"}`}, 200, true},
		{"backend refused", reply{200, `{"code":500,"status":"onu offline"}`}, 500, false},
		{"no code", reply{200, `{"status":"OK"}`}, 0, false},
		{"http failure overrides body", reply{502, `{"code":200,"status":"OK"}`}, 502, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, api := newTestDriver(t, map[string]reply{"/api/v1/onu/reboot": tt.reply})

			resp, err := d.Reboot(context.Background(), &types.RebootRequest{
				OltIndex: types.CommandOLTIndex(2, 5), Onu: 4, Board: 2, PON: 5,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantOK, resp.OK())
			assert.Equal(t, "gpon-olt_1/2/5", api.last().body["olt_index"])
		})
	}
}

func TestRemove(t *testing.T) {
	d, api := newTestDriver(t, map[string]reply{
		"/api/v1/onu/remove": {200, `{"code":200,"status":"OK"}`},
	})

	resp, err := d.Remove(context.Background(), &types.RemoveRequest{OltIndex: types.CommandOLTIndex(1, 1), Onu: 9})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "/api/v1/onu/remove", api.last().path)
	assert.Equal(t, http.MethodPost, api.last().method)
}

func TestTransportError(t *testing.T) {
	d, err := NewDriver(&types.DirectoryConfig{BaseURL: "http://127.0.0.1:1"}, WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)

	_, err = d.Reboot(context.Background(), &types.RebootRequest{Onu: 1})
	assert.Error(t, err)
	assert.Error(t, d.HealthCheck(context.Background()))
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	d, api := newTestDriver(t, map[string]reply{
		"/api/v1/onu/unactivated": {200, `{"data":{"detected_onu":[]}}`},
	}, WithLogger(logger.NewWriterLogger(&buf)))

	_, err := d.Unactivated(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), api.last().requestID)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestHealthCheck(t *testing.T) {
	d, _ := newTestDriver(t, map[string]reply{"/": {200, `{}`}})
	assert.NoError(t, d.HealthCheck(context.Background()))
	assert.NoError(t, d.Close())
}
