package tpcl

import (
	"errors"
	"testing"

	"github.com/tecprint/tpcl-engine/pkg/device"
)

// statusFrame builds a full 23-byte WS response around a status code.
func statusFrame(code string, remaining, free, total string) []byte {
	frame := []byte{0x01, 0x02}
	frame = append(frame, code...)
	frame = append(frame, '0')
	frame = append(frame, remaining...)
	frame = append(frame, "00"...)
	frame = append(frame, free...)
	frame = append(frame, total...)
	frame = append(frame, '\r', '\n')
	return frame
}

func TestDecodeStatusReady(t *testing.T) {
	s, err := DecodeStatus(statusFrame("00", "0000", "65535", "65535"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Condition != CondReady || !s.Condition.Ready() {
		t.Errorf("condition = %v, want ready", s.Condition)
	}
	if s.BufferFree != 65535 || s.BufferTotal != 65535 {
		t.Errorf("counters = %d/%d, want 65535/65535", s.BufferFree, s.BufferTotal)
	}
}

func TestDecodeStatusConditions(t *testing.T) {
	cases := []struct {
		code  string
		cond  Condition
		ready bool
	}{
		{"00", CondReady, true},
		{"02", CondOperating, true},
		{"40", CondPrintDone, true},
		{"41", CondFeedDone, true},
		{"01", CondCoverOpen, false},
		{"11", CondPaperJam, false},
		{"13", CondPaperOut, false},
		{"21", CondRibbonOut, false},
		{"54", CondSDFull, false},
		{"99", CondUnknownFault, false},
	}
	for _, tc := range cases {
		s, err := DecodeStatus(statusFrame(tc.code, "0000", "65535", "65535"))
		if err != nil {
			t.Fatalf("code %s: %v", tc.code, err)
		}
		if s.Condition != tc.cond {
			t.Errorf("code %s: condition = %v, want %v", tc.code, s.Condition, tc.cond)
		}
		if s.Condition.Ready() != tc.ready {
			t.Errorf("code %s: ready = %v, want %v", tc.code, s.Condition.Ready(), tc.ready)
		}
		if s.Code != tc.code {
			t.Errorf("code %s: decoded code %s", tc.code, s.Code)
		}
	}
}

func TestDecodeStatusCounters(t *testing.T) {
	s, err := DecodeStatus(statusFrame("02", "0042", "01234", "65535"))
	if err != nil {
		t.Fatal(err)
	}
	if s.LabelsRemaining != 42 {
		t.Errorf("labels remaining = %d, want 42", s.LabelsRemaining)
	}
	if s.BufferFree != 1234 {
		t.Errorf("buffer free = %d, want 1234", s.BufferFree)
	}
	if s.BufferTotal != 65535 {
		t.Errorf("buffer total = %d, want 65535", s.BufferTotal)
	}
}

func TestDecodeStatusUnreadable(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01, 0x02, '0', '0'}, // truncated
		statusFrame("00", "0000", "65535", "65535")[1:], // missing SOH
		[]byte("ERROR: unexpected"),
	}
	for _, buf := range cases {
		if _, err := DecodeStatus(buf); !errors.Is(err, ErrUnreadable) {
			t.Errorf("DecodeStatus(%q) error = %v, want ErrUnreadable", buf, err)
		}
	}
}

func TestQueryStatus(t *testing.T) {
	buf := &device.Buffer{Response: statusFrame("00", "0000", "65535", "65535")}
	s, err := QueryStatus(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Condition.Ready() {
		t.Errorf("condition = %v, want ready", s.Condition)
	}
	if got := buf.Out.String(); got != "{WS|}\n" {
		t.Errorf("query wrote %q", got)
	}
	if buf.Flushes != 1 {
		t.Errorf("flushes = %d, want 1", buf.Flushes)
	}
}

func TestQueryStatusTimeout(t *testing.T) {
	buf := &device.Buffer{}
	if _, err := QueryStatus(buf, nil); !errors.Is(err, ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestQueryStatusFault(t *testing.T) {
	buf := &device.Buffer{Response: statusFrame("01", "0000", "65535", "65535")}
	s, err := QueryStatus(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Condition != CondCoverOpen {
		t.Errorf("condition = %v, want cover open", s.Condition)
	}
	if s.Condition.Ready() {
		t.Error("cover open reported ready")
	}
}
