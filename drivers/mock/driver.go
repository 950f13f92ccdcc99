// Package mock is an in-memory OLT simulator implementing the device directory.
// It is deterministic for a given seed and is used for demos and tests.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nanoncore/onuwatch/logger"
	"github.com/nanoncore/onuwatch/slots"
	"github.com/nanoncore/onuwatch/types"
	"github.com/nanoncore/onuwatch/vendors/common"
	"github.com/nanoncore/onuwatch/vendors/zte"
)

// ErrSimulatedFailure is returned by injected and random failures
var ErrSimulatedFailure = errors.New("simulated transport failure")

var errClosed = errors.New("simulator closed")

// Driver implements types.Directory without any equipment
type Driver struct {
	config    *types.DirectoryConfig
	logger    logger.Logger
	sessionID string

	mu         sync.RWMutex
	closed     bool
	seed       int64
	rng        *rand.Rand
	ports      map[portKey]map[int]*mockONU
	autofind   []mockUncfg
	cmdHistory []string
	failNext   map[string]error

	latency      time.Duration
	failRate     float64
	rebootTime   time.Duration
	registerOpts zte.RegisterOptions
	now          func() time.Time
}

type portKey struct{ board, pon int }

type mockONU struct {
	types.Device
	Description   string
	IPAddress     string
	TxPower       float64
	Distance      int
	OnlineSince   time.Time
	LastOffline   time.Time
	OfflineReason string
	RebootedAt    time.Time
}

type mockUncfg struct {
	board, pon int
	serial     string
	model      string
}

// Option customizes a Driver
type Option func(*Driver)

// WithLogger sets the logger commands are recorded on
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a simulator. Metadata keys: mock_seed, mock_latency_ms,
// mock_fail_percent, mock_reboot_seconds.
func NewDriver(config *types.DirectoryConfig, opts ...Option) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	md := config.Metadata
	seed := int64(common.MetadataIntWithDefault(md, 1, "mock_seed"))
	d := &Driver{
		config:     config,
		logger:     logger.Global(),
		sessionID:  uuid.NewString(),
		seed:       seed,
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // simulated data
		ports:      make(map[portKey]map[int]*mockONU),
		failNext:   make(map[string]error),
		latency:    time.Duration(common.MetadataIntWithDefault(md, 0, "mock_latency_ms")) * time.Millisecond,
		failRate:   float64(common.MetadataIntWithDefault(md, 0, "mock_fail_percent")) / 100,
		rebootTime: time.Duration(common.MetadataIntWithDefault(md, 30, "mock_reboot_seconds")) * time.Second,
		registerOpts: zte.RegisterOptions{
			OnuType:      common.MetadataStringWithDefault(md, "ALL", "zte_onu_type"),
			TcontProfile: common.MetadataStringWithDefault(md, "default", "zte_tcont_profile"),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.generateAutofind()
	return d, nil
}

// SessionID identifies this simulator instance
func (d *Driver) SessionID() string {
	return d.sessionID
}

// FailNext makes the next call of op ("snapshot", "detail", "unactivated",
// "register", "reboot", "remove") fail with err.
func (d *Driver) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = ErrSimulatedFailure
	}
	d.failNext[op] = err
}

// GetCommandHistory returns the CLI commands an equivalent ZTE OLT would have run
func (d *Driver) GetCommandHistory() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	history := make([]string, len(d.cmdHistory))
	copy(history, d.cmdHistory)
	return history
}

// Seed places an ONU on a port, replacing whatever occupies its slot.
func (d *Driver) Seed(device types.Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	onus := d.port(device.Board, device.PON)
	onus[device.OnuID] = &mockONU{Device: device, OnlineSince: d.now()}
}

// simulate applies latency and failure injection. Called without the lock held.
func (d *Driver) simulate(ctx context.Context, op string) error {
	if d.latency > 0 {
		select {
		case <-time.After(d.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errClosed
	}
	if err, ok := d.failNext[op]; ok {
		delete(d.failNext, op)
		return fmt.Errorf("%s: %w", op, err)
	}
	if d.failRate > 0 && d.rng.Float64() < d.failRate {
		return fmt.Errorf("%s: %w", op, ErrSimulatedFailure)
	}
	return nil
}

// Snapshot returns the ONUs on a board/PON
func (d *Driver) Snapshot(ctx context.Context, board, pon int) ([]types.Device, error) {
	if err := d.simulate(ctx, "snapshot"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.recordCommand(zte.ShowStateCommand(board, pon))
	onus := d.port(board, pon)
	devices := make([]types.Device, 0, len(onus))
	for _, onu := range onus {
		d.advance(onu)
		devices = append(devices, onu.Device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].OnuID < devices[j].OnuID })
	return devices, nil
}

// Detail returns the extended record of one ONU
func (d *Driver) Detail(ctx context.Context, board, pon, onuID int) (*types.DeviceDetail, error) {
	if err := d.simulate(ctx, "detail"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.recordCommand(zte.ShowDetailCommand(board, pon, onuID))
	onu, ok := d.port(board, pon)[onuID]
	if !ok {
		return nil, fmt.Errorf("ONU %s not found", types.ONUInterface(board, pon, onuID))
	}
	d.advance(onu)

	now := d.now()
	detail := &types.DeviceDetail{
		Device:              onu.Device,
		Description:         onu.Description,
		TxPower:             fmt.Sprintf("%.2f", onu.TxPower),
		IPAddress:           onu.IPAddress,
		OfflineReason:       onu.OfflineReason,
		GponOpticalDistance: fmt.Sprintf("%dm", onu.Distance),
	}
	if !onu.OnlineSince.IsZero() {
		detail.LastOnline = onu.OnlineSince.Format(zte.TimestampLayout)
		if onu.Status == slots.StatusOnline {
			detail.Uptime = zte.FormatDuration(now.Sub(onu.OnlineSince))
		}
	}
	if !onu.LastOffline.IsZero() {
		detail.LastOffline = onu.LastOffline.Format(zte.TimestampLayout)
		if onu.OnlineSince.After(onu.LastOffline) {
			detail.LastDownTimeDuration = zte.FormatDuration(onu.OnlineSince.Sub(onu.LastOffline))
		}
	}
	if onu.Status != slots.StatusOnline {
		detail.TxPower = zte.ConvertPower(zte.OpticalNotApplicable)
	}
	return detail, nil
}

// Unactivated lists simulated ONUs waiting for registration
func (d *Driver) Unactivated(ctx context.Context) ([]types.UnactivatedONU, error) {
	if err := d.simulate(ctx, "unactivated"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.recordCommand(zte.ShowUncfgCommand)
	onus := make([]types.UnactivatedONU, 0, len(d.autofind))
	for _, u := range d.autofind {
		onus = append(onus, types.UnactivatedONU{
			OltIndex:     types.CommandOLTIndex(u.board, u.pon),
			Model:        u.model,
			SerialNumber: u.serial,
			Status:       "unknown",
		})
	}
	return onus, nil
}

// Register places an ONU into an empty slot
func (d *Driver) Register(ctx context.Context, req *types.RegisterRequest) (*types.CommandResponse, error) {
	if err := d.simulate(ctx, "register"); err != nil {
		return nil, err
	}

	vlan, err := strconv.Atoi(strings.TrimSpace(req.VlanID))
	if err != nil {
		return d.reply(400, fmt.Sprintf("invalid vlan id %q", req.VlanID)), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	onus := d.port(req.Board, req.PON)
	if _, taken := onus[req.Onu]; taken {
		return d.reply(409, fmt.Sprintf("onu %d already exists", req.Onu)), nil
	}
	for _, p := range d.ports {
		for _, onu := range p {
			if strings.EqualFold(onu.SerialNumber, req.SerialNumber) {
				return d.reply(409, fmt.Sprintf("serial %s already registered", req.SerialNumber)), nil
			}
		}
	}

	model := d.registerOpts.OnuType
	for i, u := range d.autofind {
		if strings.EqualFold(u.serial, req.SerialNumber) {
			model = u.model
			d.autofind = append(d.autofind[:i], d.autofind[i+1:]...)
			break
		}
	}

	for _, cmd := range zte.RegisterCommands(req, vlan, d.registerOpts) {
		d.recordCommand(cmd)
	}

	now := d.now()
	onus[req.Onu] = &mockONU{
		Device: types.Device{
			OnuID:        req.Onu,
			Name:         req.Code,
			OnuType:      model,
			SerialNumber: strings.ToUpper(req.SerialNumber),
			RxPower:      fmt.Sprintf("%.2f", -17-d.rng.Float64()*8),
			Status:       slots.StatusOnline,
			Board:        req.Board,
			PON:          req.PON,
		},
		Description: req.Region,
		IPAddress:   fmt.Sprintf("100.64.%d.%d", req.Board*10+req.PON, req.Onu),
		TxPower:     1.5 + d.rng.Float64(),
		Distance:    200 + d.rng.Intn(9000),
		OnlineSince: now,
	}

	d.logger.Debug().Str("session", d.sessionID).Int("onu_id", req.Onu).Msg("Simulated register")
	return d.reply(types.CodeOK, "OK"), nil
}

// Reboot restarts an ONU; it reports Logging until the reboot time elapses
func (d *Driver) Reboot(ctx context.Context, req *types.RebootRequest) (*types.CommandResponse, error) {
	if err := d.simulate(ctx, "reboot"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	onu, ok := d.port(req.Board, req.PON)[req.Onu]
	if !ok {
		return d.reply(404, fmt.Sprintf("onu %d not found", req.Onu)), nil
	}
	for _, cmd := range zte.RebootCommands(req.Board, req.PON, req.Onu) {
		d.recordCommand(cmd)
	}

	now := d.now()
	onu.RebootedAt = now
	onu.LastOffline = now
	onu.OfflineReason = "Reboot"
	onu.Status = slots.StatusLogging
	onu.RxPower = zte.ConvertPower(zte.OpticalNotApplicable)

	d.logger.Debug().Str("session", d.sessionID).Int("onu_id", req.Onu).Msg("Simulated reboot")
	return d.reply(types.CodeOK, "OK"), nil
}

// Remove deletes an ONU from its slot
func (d *Driver) Remove(ctx context.Context, req *types.RemoveRequest) (*types.CommandResponse, error) {
	if err := d.simulate(ctx, "remove"); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	onus := d.port(req.Board, req.PON)
	if _, ok := onus[req.Onu]; !ok {
		return d.reply(404, fmt.Sprintf("onu %d not found", req.Onu)), nil
	}
	for _, cmd := range zte.RemoveCommands(req.Board, req.PON, req.Onu) {
		d.recordCommand(cmd)
	}
	delete(onus, req.Onu)

	d.logger.Debug().Str("session", d.sessionID).Int("onu_id", req.Onu).Msg("Simulated remove")
	return d.reply(types.CodeOK, "OK"), nil
}

// HealthCheck fails once the simulator is closed
func (d *Driver) HealthCheck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errClosed
	}
	d.recordCommand("show version")
	return nil
}

// Close stops the simulator; every later call fails
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Helper methods

func (d *Driver) reply(code int, status string) *types.CommandResponse {
	return &types.CommandResponse{
		Code:    code,
		Status:  status,
		Message: "task " + uuid.NewString(),
	}
}

func (d *Driver) recordCommand(cmd string) {
	d.cmdHistory = append(d.cmdHistory, cmd)
}

// advance finishes reboots whose time has elapsed
func (d *Driver) advance(onu *mockONU) {
	if onu.RebootedAt.IsZero() {
		return
	}
	if d.now().Sub(onu.RebootedAt) < d.rebootTime {
		return
	}
	onu.RebootedAt = time.Time{}
	onu.Status = slots.StatusOnline
	onu.OnlineSince = d.now()
	onu.RxPower = fmt.Sprintf("%.2f", -17-d.rng.Float64()*8)
}

var (
	onuModels   = []string{"ZTE-F660", "ZTE-F609", "ZTE-F670L", "HG8245H", "V2802GWT"}
	serialHeads = []string{"ZTEG", "ZTEG", "ZTEG", "HWTC", "VSOL"}
	regions     = []string{"Blok A", "Blok B", "Blok C", "Perumahan Indah", "Ruko Timur"}
)

// port returns the ONU table of a port, generating it on first use
func (d *Driver) port(board, pon int) map[int]*mockONU {
	key := portKey{board, pon}
	if onus, ok := d.ports[key]; ok {
		return onus
	}

	// each port has its own stream so tables do not depend on visit order
	r := rand.New(rand.NewSource(d.seed*10007 + int64(board)*131 + int64(pon))) //nolint:gosec // simulated data
	now := d.now()

	onus := make(map[int]*mockONU)
	count := 8 + r.Intn(56)
	for _, slot := range r.Perm(types.SlotCapacity)[:count] {
		onuID := slot + 1
		status := randomStatus(r)
		onu := &mockONU{
			Device: types.Device{
				OnuID:        onuID,
				Name:         fmt.Sprintf("cust-%d%02d%03d", board, pon, onuID),
				OnuType:      onuModels[r.Intn(len(onuModels))],
				SerialNumber: fmt.Sprintf("%s%08X", serialHeads[r.Intn(len(serialHeads))], r.Uint32()),
				Status:       status,
				Board:        board,
				PON:          pon,
			},
			Description: regions[r.Intn(len(regions))],
			IPAddress:   fmt.Sprintf("100.64.%d.%d", board*10+pon, onuID),
			TxPower:     1.5 + r.Float64(),
			Distance:    200 + r.Intn(9000),
			OnlineSince: now.Add(-time.Duration(1+r.Intn(30*24)) * time.Hour),
		}
		onu.LastOffline = onu.OnlineSince.Add(-time.Duration(1+r.Intn(600)) * time.Minute)
		onu.OfflineReason = zte.OfflineReason(int64(2 + r.Intn(12)))

		switch {
		case status == slots.StatusOnline && r.Intn(40) == 0:
			onu.RxPower = "N/A"
		case status == slots.StatusOnline:
			// mostly nominal, some weak, a few strong
			onu.RxPower = fmt.Sprintf("%.2f", -12-r.Float64()*17)
		default:
			onu.RxPower = zte.ConvertPower(zte.OpticalNotApplicable)
			onu.LastOffline = now.Add(-time.Duration(1+r.Intn(48*60)) * time.Minute)
		}
		onus[onuID] = onu
	}

	d.ports[key] = onus
	return onus
}

func randomStatus(r *rand.Rand) string {
	switch n := r.Intn(100); {
	case n < 70:
		return slots.StatusOnline
	case n < 80:
		return slots.StatusLOS
	case n < 88:
		return slots.StatusOffline
	case n < 93:
		return slots.StatusDyingGasp
	case n < 96:
		return slots.StatusLogging
	case n < 98:
		return slots.StatusSynchronization
	default:
		return slots.StatusAuthFailed
	}
}

func (d *Driver) generateAutofind() {
	for i := 0; i < 5; i++ {
		d.autofind = append(d.autofind, mockUncfg{
			board:  1 + d.rng.Intn(2),
			pon:    1 + d.rng.Intn(8),
			serial: fmt.Sprintf("%s%08X", serialHeads[d.rng.Intn(len(serialHeads))], d.rng.Uint32()),
			model:  onuModels[d.rng.Intn(len(onuModels))],
		})
	}
}

var _ types.Directory = (*Driver)(nil)
