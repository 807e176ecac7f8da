// Package ipc defines the host<->plugin-host-process wire protocol: a
// newline-delimited, base64-encoded JSON frame per message over stdio, plus
// the shared-memory audio transport header. Grounded on
// original_source/omni_shared/src/lib.rs, widened per the call-site
// evidence in original_source/omni_engine/src/plugin_node.rs (that file
// sends/expects several variants lib.rs's retrieved snapshot lacks:
// PluginLoaded, ProcessWithEvents, GetParamInfo, ParamInfoList, OpenEditor,
// GetState, SetState) and spec section 6's authoritative variant list.
//
// The wire encoding is JSON (via json-iterator/go) rather than bincode:
// this is an internal engine<->host-process contract with no external
// compatibility requirement, and the corpus carries a JSON codec, not a
// binary serializer.
package ipc

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/omniproject/omniengine/internal/nodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OmniMagic is the shared-memory header's magic number, matching the
// reference's OMNI_MAGIC constant exactly.
const OmniMagic uint32 = 0x01131109

// DefaultShmemSize is the default region size in bytes.
const DefaultShmemSize = 65536

// ShmemConfig identifies a shared-memory region by an OS-specific id and size.
type ShmemConfig struct {
	OSID string `json:"os_id"`
	Size uint32 `json:"size"`
}

// ShmemHeader is the fixed header written at offset 0 of the region.
type ShmemHeader struct {
	Magic        uint32 `json:"magic"`
	Status       uint32 `json:"status"`
	InputOffset  uint32 `json:"input_offset"`
	OutputOffset uint32 `json:"output_offset"`
	ParamOffset  uint32 `json:"param_offset"`
}

// Shmem header status codes.
const (
	StatusIdle uint32 = iota
	StatusPendingProcess
	StatusDone
)

// NoteEventWire is the IPC-transported form of nodes.NoteEvent.
type NoteEventWire struct {
	SampleOffset int    `json:"sample_offset"`
	Key          uint8  `json:"key"`
	Velocity     uint8  `json:"velocity"`
	On           bool   `json:"on"`
}

func toWireNotes(events []nodes.NoteEvent) []NoteEventWire {
	out := make([]NoteEventWire, len(events))
	for i, e := range events {
		out[i] = NoteEventWire{SampleOffset: e.SampleOffset, Key: e.Key, Velocity: e.Velocity, On: e.On}
	}
	return out
}

// ParamChange is one pending parameter update drained from the shadow queue.
type ParamChange struct {
	ParamID uint32  `json:"param_id"`
	Value   float32 `json:"value"`
}

// HostCommandKind discriminates HostCommand payloads.
type HostCommandKind string

const (
	CmdInitialize        HostCommandKind = "Initialize"
	CmdLoadPlugin        HostCommandKind = "LoadPlugin"
	CmdProcessFrame      HostCommandKind = "ProcessFrame"
	CmdProcessWithMidi   HostCommandKind = "ProcessWithMidi"
	CmdProcessWithEvents HostCommandKind = "ProcessWithEvents"
	CmdSetParameter      HostCommandKind = "SetParameter"
	CmdGetParamInfo      HostCommandKind = "GetParamInfo"
	CmdOpenEditor        HostCommandKind = "OpenEditor"
	CmdGetState          HostCommandKind = "GetState"
	CmdSetState          HostCommandKind = "SetState"
	CmdShutdown          HostCommandKind = "Shutdown"
)

// HostCommand is the host(engine)->plugin-process message envelope. Exactly
// one of the payload fields is populated per Kind, matching the reference's
// enum-with-payload shape expressed as a tagged Go struct (Go has no sum
// type with payload; this mirrors the teacher's enum-plus-struct idiom from
// internal/types.go).
type HostCommand struct {
	Kind HostCommandKind `json:"kind"`

	PluginID    string      `json:"plugin_id,omitempty"`
	ShmemConfig ShmemConfig `json:"shmem_config,omitempty"`
	Path        string      `json:"path,omitempty"`
	Count       int         `json:"count,omitempty"`
	Events      []NoteEventWire `json:"events,omitempty"`
	Params      []ParamChange   `json:"params,omitempty"`
	ParamID     uint32      `json:"param_id,omitempty"`
	Value       float32     `json:"value,omitempty"`
	State       []byte      `json:"state,omitempty"`
}

// PluginEventKind discriminates PluginEvent payloads.
type PluginEventKind string

const (
	EvtInitialized     PluginEventKind = "Initialized"
	EvtPluginLoaded    PluginEventKind = "PluginLoaded"
	EvtFrameProcessed  PluginEventKind = "FrameProcessed"
	EvtParamInfoList   PluginEventKind = "ParamInfoList"
	EvtError           PluginEventKind = "Error"
	EvtHeartbeat       PluginEventKind = "Heartbeat"
)

// PluginEvent is the plugin-process->host message envelope.
type PluginEvent struct {
	Kind    PluginEventKind  `json:"kind"`
	Error   string           `json:"error,omitempty"`
	Params  []nodes.ParamInfo `json:"params,omitempty"`
}

// EncodeLine base64-encodes the JSON encoding of v and writes it as one
// newline-terminated frame to w.
func EncodeLine(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ipc: encode: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	_, err = fmt.Fprintln(w, encoded)
	return err
}

// DecodeLine reads one newline-terminated base64 frame from r and decodes
// it into v.
func DecodeLine(r *bufio.Reader, v any) error {
	line, err := r.ReadString('\n')
	if err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(trimNewline(line))
	if err != nil {
		return fmt.Errorf("ipc: decode base64: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("ipc: decode json: %w", err)
	}
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// NoteEventsToWire exposes toWireNotes for pluginproxy's command builders.
func NoteEventsToWire(events []nodes.NoteEvent) []NoteEventWire { return toWireNotes(events) }
