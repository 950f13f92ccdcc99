package zte

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nanoncore/onuwatch/types"
)

const stateOutput = `OnuIndex   Admin State  OMCC State  Phase State  Channel
--------------------------------------------------------------
1/2/3:1    enable       enable      working      1(GPON)
1/2/3:2    enable       disable     LOS          1(GPON)
1/2/3:5    enable       disable     DyingGasp    1(GPON)
ONU Number: 3/3`

const baseInfoOutput = `OnuIndex                 Type          Mode    AuthInfo                State
---------------------------------------------------------------------------------
gpon-onu_1/2/3:1         ZTE-F660      sn      SN:ZTEGC8B1D2E3         ready
gpon-onu_1/2/3:2         ZTE-F609      sn      SN:ZTEG00000002         ready
gpon-onu_1/2/3:5         ALL           sn      SN:HWTC11223344         ready`

const rxPowerOutput = `Onu                 Rx power
-----------------------------------
gpon-onu_1/2/3:1    -21.326(dbm)
gpon-onu_1/2/3:2    N/A
gpon-onu_1/2/3:5    -27.904(dbm)`

const detailOutput = `ONU interface:          gpon-onu_1/2/3:1
Name:                   Alice
Type:                   ZTE-F660
State:                  ready
Admin state:            enable
Phase state:            working
Serial number:          ZTEGC8B1D2E3
Description:            Blok_C
ONU Distance:           1532m
Online Duration:        2h 14m 9s
------------------------------------------
       Authpass Time          OfflineTime             Cause
   1   2024-03-01 08:00:00    2024-03-02 07:59:00     DyingGasp
   2   2024-03-02 08:10:11    0000-00-00 00:00:00
   3   0000-00-00 00:00:00    0000-00-00 00:00:00`

const attenuationOutput = `           OLT                  ONU              Attenuation
--------------------------------------------------------------------------
 up      Rx :-22.184(dbm)      Tx:2.197(dbm)        24.381(dB)

 down    Tx :6.921(dbm)        Rx:-20.804(dbm)      27.725(dB)`

const uncfgOutput = `OnuIndex                 Sn                  State
---------------------------------------------------------------------
gpon-onu_1/1/4:1         ZTEGC0FFEE01        unknown
gpon-onu_1/3/2:1         HWTC9988AA01        unknown`

func TestCommandBuilders(t *testing.T) {
	if got := ShowStateCommand(2, 3); got != "show gpon onu state gpon-olt_1/2/3" {
		t.Errorf("ShowStateCommand() = %q", got)
	}
	if got := ShowDetailCommand(2, 3, 7); got != "show gpon onu detail-info gpon-onu_1/2/3:7" {
		t.Errorf("ShowDetailCommand() = %q", got)
	}

	wantReboot := []string{"configure terminal", "pon-onu-mng gpon-onu_1/2/3:7", "reboot", "end"}
	if got := RebootCommands(2, 3, 7); !reflect.DeepEqual(got, wantReboot) {
		t.Errorf("RebootCommands() = %v", got)
	}

	wantRemove := []string{"configure terminal", "interface gpon-olt_1/2/3", "no onu 7", "end"}
	if got := RemoveCommands(2, 3, 7); !reflect.DeepEqual(got, wantRemove) {
		t.Errorf("RemoveCommands() = %v", got)
	}
}

func TestRegisterCommands(t *testing.T) {
	req := &types.RegisterRequest{
		OltIndex:     "gpon-olt_2/1/3",
		SerialNumber: "ZTEGC8B1D2E3",
		Region:       "Blok C  North",
		Code:         "CUST 42",
		Onu:          7,
		VlanID:       "100",
		Board:        2,
		PON:          3,
	}

	cmds := RegisterCommands(req, 100, RegisterOptions{OnuType: "ALL", TcontProfile: "default"})
	joined := strings.Join(cmds, "\n")

	for _, want := range []string{
		"interface gpon-olt_1/2/3",
		"onu 7 type ALL sn ZTEGC8B1D2E3",
		"interface gpon-onu_1/2/3:7",
		"name CUST_42",
		"description Blok_C_North",
		"service-port 1 vport 1 user-vlan 100 vlan 100",
		"service 1 gemport 1 vlan 100",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("register commands missing %q:\n%s", want, joined)
		}
	}
	if cmds[0] != "configure terminal" || cmds[len(cmds)-1] != "end" {
		t.Errorf("register commands must enter and leave config mode: %v", cmds)
	}
}

func TestCheckOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"clean", "", false},
		{"ok output", "Successful.", false},
		{"error", "%Error 20203: No related information to show.", true},
		{"code", "%Code 32371: The ONU does not exist.", true},
		{"invalid", "      ^\n% Invalid input detected at '^' marker.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOutput(tt.output)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStateOutput(t *testing.T) {
	entries := ParseStateOutput(stateOutput)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].OnuID != 1 || entries[0].Phase != PhaseWorking {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[2].OnuID != 5 || entries[2].Phase.Label() != "Dying Gasp" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}

func TestParseBaseInfoOutput(t *testing.T) {
	entries := ParseBaseInfoOutput(baseInfoOutput)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := BaseInfoEntry{OnuID: 1, OnuType: "ZTE-F660", SerialNumber: "ZTEGC8B1D2E3"}
	if entries[0] != want {
		t.Errorf("entry 0 = %+v, want %+v", entries[0], want)
	}
}

func TestParseRxPowerOutput(t *testing.T) {
	got := ParseRxPowerOutput(rxPowerOutput)
	want := map[int]string{1: "-21.33", 2: "101.07", 5: "-27.90"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRxPowerOutput() = %v, want %v", got, want)
	}
}

func TestParseAttenuationOutput(t *testing.T) {
	rx, tx := ParseAttenuationOutput(attenuationOutput)
	if rx != "-20.80" || tx != "2.20" {
		t.Errorf("ParseAttenuationOutput() = %s, %s", rx, tx)
	}

	rx, tx = ParseAttenuationOutput("")
	if rx != "101.07" || tx != "101.07" {
		t.Errorf("empty output = %s, %s", rx, tx)
	}
}

func TestParseDetailOutput(t *testing.T) {
	d := ParseDetailOutput(detailOutput, 2, 3, 1)

	if d.Name != "Alice" || d.OnuType != "ZTE-F660" || d.SerialNumber != "ZTEGC8B1D2E3" {
		t.Errorf("identity = %+v", d.Device)
	}
	if d.Status != "Online" {
		t.Errorf("Status = %q", d.Status)
	}
	if d.Board != 2 || d.PON != 3 || d.OnuID != 1 {
		t.Errorf("address = %d/%d:%d", d.Board, d.PON, d.OnuID)
	}
	if d.Description != "Blok_C" || d.GponOpticalDistance != "1532m" || d.Uptime != "2h 14m 9s" {
		t.Errorf("detail = %+v", d)
	}
	if d.LastOnline != "2024-03-02 08:10:11" {
		t.Errorf("LastOnline = %q", d.LastOnline)
	}
	if d.LastOffline != "2024-03-02 07:59:00" || d.OfflineReason != "DyingGasp" {
		t.Errorf("LastOffline = %q, OfflineReason = %q", d.LastOffline, d.OfflineReason)
	}
}

func TestParseUncfgOutput(t *testing.T) {
	got := ParseUncfgOutput(uncfgOutput)
	want := []types.UnactivatedONU{
		{OltIndex: "gpon-olt_1/1/4", SerialNumber: "ZTEGC0FFEE01", Status: "unknown"},
		{OltIndex: "gpon-olt_1/3/2", SerialNumber: "HWTC9988AA01", Status: "unknown"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseUncfgOutput() = %+v, want %+v", got, want)
	}

	legacy := `OltIndex            Model                SN                  PW
--------------------------------------------------------------------
gpon-olt_1/2/1      F660V5.2             ZTEGC0000009        N/A`
	got = ParseUncfgOutput(legacy)
	if len(got) != 1 || got[0].Model != "F660V5.2" || got[0].OltIndex != "gpon-olt_1/2/1" {
		t.Errorf("legacy = %+v", got)
	}
}
