package trace

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatText   Format = iota // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time   string `json:"time"`
		Seq    uint64 `json:"seq"`
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Name   string `json:"name"`
		Bytes  int64  `json:"bytes,omitempty"`
		Detail string `json:"detail,omitempty"`
	}
	data, err := json.Marshal(jsonEvent{
		Time:   ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Name:   ev.Name,
		Bytes:  ev.Bytes,
		Detail: ev.Detail,
	})
	if err != nil {
		return nil
	}
	return append(data, '\n')
}

// formatText renders "#seq kind name 64B (detail)".
func formatText(ev *Event) []byte {
	var sb strings.Builder
	sb.WriteByte('#')
	sb.WriteString(strconv.FormatUint(ev.Seq, 10))
	sb.WriteByte(' ')
	sb.WriteString(ev.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(ev.Name)
	if ev.Bytes != 0 {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(ev.Bytes, 10))
		sb.WriteByte('B')
	}
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteByte(')')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}
