package tpcl

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tecprint/tpcl-engine/pkg/device"
)

// ErrUnreadable marks a status query that produced no decodable response:
// a timeout, a truncated frame, or missing SOH/STX sentinel bytes. It is
// not a printer fault; the printer may simply be wired one-way.
var ErrUnreadable = errors.New("tpcl: status response unreadable")

// Condition is the decoded printer condition.
type Condition int

const (
	CondReady Condition = iota
	CondOperating
	CondPrintDone
	CondFeedDone
	CondCoverOpen
	CondExclusiveAccess
	CondPaused
	CondWaitingStrip
	CondCommandError
	CondSerialError
	CondPaperJam
	CondCutterJam
	CondPaperOut
	CondFeedCoverOpen
	CondMotorOverheat
	CondHeadOverheat
	CondRibbonOut
	CondPrintDonePaperOut
	CondSDWriteError
	CondSDFormatError
	CondSDFull
	CondEEPROMError
	CondUnknownFault
)

// Ready reports whether printing may proceed under this condition.
func (c Condition) Ready() bool {
	switch c {
	case CondReady, CondOperating, CondPrintDone, CondFeedDone:
		return true
	}
	return false
}

func (c Condition) String() string {
	switch c {
	case CondReady:
		return "ready"
	case CondOperating:
		return "operating"
	case CondPrintDone:
		return "print succeeded"
	case CondFeedDone:
		return "feed succeeded"
	case CondCoverOpen:
		return "top cover open"
	case CondExclusiveAccess:
		return "exclusively accessed by other host"
	case CondPaused:
		return "paused"
	case CondWaitingStrip:
		return "waiting for stripping"
	case CondCommandError:
		return "command error"
	case CondSerialError:
		return "RS-232C error"
	case CondPaperJam:
		return "paper jam"
	case CondCutterJam:
		return "paper jam at cutter"
	case CondPaperOut:
		return "the label has run out"
	case CondFeedCoverOpen:
		return "feed attempt while cover open"
	case CondMotorOverheat:
		return "stepping motor overheat"
	case CondHeadOverheat:
		return "thermal head overheat"
	case CondRibbonOut:
		return "the ribbon has run out"
	case CondPrintDonePaperOut:
		return "print succeeded, the label has run out"
	case CondSDWriteError:
		return "SD card write error"
	case CondSDFormatError:
		return "SD card format error"
	case CondSDFull:
		return "SD card full"
	case CondEEPROMError:
		return "PC command mode / initialize SD / EEPROM error"
	}
	return "unknown fault"
}

var conditionByCode = map[string]Condition{
	"00": CondReady,
	"02": CondOperating,
	"40": CondPrintDone,
	"41": CondFeedDone,
	"01": CondCoverOpen,
	"03": CondExclusiveAccess,
	"04": CondPaused,
	"05": CondWaitingStrip,
	"06": CondCommandError,
	"07": CondSerialError,
	"11": CondPaperJam,
	"12": CondCutterJam,
	"13": CondPaperOut,
	"15": CondFeedCoverOpen,
	"16": CondMotorOverheat,
	"18": CondHeadOverheat,
	"21": CondRibbonOut,
	"23": CondPrintDonePaperOut,
	"50": CondSDWriteError,
	"51": CondSDFormatError,
	"54": CondSDFull,
	"55": CondEEPROMError,
}

// Status is a decoded WS response.
//
// The wire format is SOH STX, a two-character status code, a one-byte
// status type flag, then ASCII decimal counters: four characters of
// labels remaining, two of length, five of receive buffer free space,
// five of receive buffer capacity, CR LF.
type Status struct {
	Code            string
	Condition       Condition
	LabelsRemaining int
	BufferFree      int
	BufferTotal     int
}

func asciiInt(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// DecodeStatus decodes a raw WS response buffer. Responses shorter than
// 13 bytes or without the SOH/STX sentinel return ErrUnreadable.
func DecodeStatus(buf []byte) (Status, error) {
	if len(buf) < 13 || buf[0] != 0x01 || buf[1] != 0x02 {
		return Status{}, fmt.Errorf("%w: %d bytes", ErrUnreadable, len(buf))
	}

	s := Status{Code: string(buf[2:4])}
	cond, ok := conditionByCode[s.Code]
	if !ok {
		cond = CondUnknownFault
	}
	s.Condition = cond

	s.LabelsRemaining = asciiInt(buf[5:9])
	if len(buf) >= 16 {
		s.BufferFree = asciiInt(buf[11:16])
	}
	if len(buf) >= 21 {
		s.BufferTotal = asciiInt(buf[16:21])
	}
	return s, nil
}

const (
	statusPollAttempts = 22
	statusPollInterval = time.Millisecond
)

// QueryStatus sends a WS command and polls the channel for the response.
// The printer answers within 20ms when it answers at all; after 22
// one-millisecond polls the query gives up with ErrUnreadable.
func QueryStatus(ch device.Channel, log *slog.Logger) (Status, error) {
	if log == nil {
		log = slog.Default()
	}

	if _, err := ch.Puts("{WS|}\n"); err != nil {
		return Status{}, fmt.Errorf("tpcl: writing status query: %w", err)
	}
	if err := ch.Flush(); err != nil {
		return Status{}, fmt.Errorf("tpcl: flushing status query: %w", err)
	}

	buf := make([]byte, 256)
	n := 0
	for attempt := 0; attempt < statusPollAttempts; attempt++ {
		var err error
		n, err = ch.Read(buf)
		if err != nil {
			return Status{}, fmt.Errorf("tpcl: reading status response: %w", err)
		}
		if n != 0 {
			break
		}
		time.Sleep(statusPollInterval)
	}
	if n == 0 {
		log.Warn("status query timed out", "attempts", statusPollAttempts)
		return Status{}, fmt.Errorf("%w: no response", ErrUnreadable)
	}

	status, err := DecodeStatus(buf[:n])
	if err != nil {
		return Status{}, err
	}
	log.Debug("status response", "code", status.Code, "condition", status.Condition.String())
	return status, nil
}
