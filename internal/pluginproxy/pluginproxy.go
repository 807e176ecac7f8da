// Package pluginproxy hosts an out-of-process instrument/effect plugin:
// spawn, stdio line-protocol IPC, shared-memory audio transport, crash
// resurrection, and a parameter shadow used both as a live cache and as the
// resurrection replay source. Grounded on
// original_source/omni_engine/src/plugin_node.rs; child-process lifecycle
// style (spawn, piped stdio, alive-polling, teardown) borrowed from the
// teacher's internal/supercollider.StartSuperCollider/Cleanup, adapted from
// an OSC-driven external synth to this stdio/shmem plugin-host contract.
package pluginproxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omniproject/omniengine/internal/enginerr"
	"github.com/omniproject/omniengine/internal/ipc"
	"github.com/omniproject/omniengine/internal/nodes"
)

// DefaultDeadline bounds the per-block blocking IPC round trip; on timeout
// the proxy substitutes silence and schedules resurrection (spec 4.6/5).
const DefaultDeadline = 50 * time.Millisecond

// Proxy is the PluginProxy AudioNode variant.
type Proxy struct {
	hostPath   string
	pluginPath string
	deadline   time.Duration

	shmemID   string
	shmemSize uint32
	shmem     *ipc.Shmem

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	exited chan struct{}

	mu           sync.Mutex
	paramShadow  map[uint32]float32
	pendingQueue []ipc.ParamChange
	lastTouchID  uint32
	lastTouchVal float32
	generation   uint64
	latency      uint32

	channels int
}

// New spawns the plugin host process for pluginPath and runs the
// Initialize/LoadPlugin handshake. hostPath is the (out-of-scope, external)
// plugin host process binary.
func New(hostPath, pluginPath string, shmemSize uint32, channels int) (*Proxy, error) {
	if shmemSize == 0 {
		shmemSize = ipc.DefaultShmemSize
	}
	p := &Proxy{
		hostPath:    hostPath,
		pluginPath:  pluginPath,
		deadline:    DefaultDeadline,
		shmemID:     uuid.NewString(),
		shmemSize:   shmemSize,
		paramShadow: make(map[uint32]float32),
		channels:    channels,
	}
	if err := p.spawnAndInit(); err != nil {
		return nil, fmt.Errorf("%w: %v", enginerr.ErrFatalPluginLoad, err)
	}
	return p, nil
}

func (p *Proxy) spawnAndInit() error {
	shmem, err := ipc.CreateShmem(p.shmemID, p.shmemSize)
	if err != nil {
		return err
	}
	p.shmem = shmem

	cmd := exec.Command(p.hostPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = logWriter{}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn plugin host: %w", err)
	}
	p.cmd = cmd
	p.stdin = stdin
	p.reader = bufio.NewReader(stdout)
	p.exited = make(chan struct{})
	go func() {
		cmd.Wait()
		close(p.exited)
	}()

	if err := p.sendAndAwait(ipc.HostCommand{
		Kind:        ipc.CmdInitialize,
		PluginID:    uuid.NewString(),
		ShmemConfig: ipc.ShmemConfig{OSID: p.shmemID, Size: p.shmemSize},
	}, ipc.EvtInitialized); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := p.sendAndAwait(ipc.HostCommand{Kind: ipc.CmdLoadPlugin, Path: p.pluginPath}, ipc.EvtPluginLoaded); err != nil {
		return fmt.Errorf("load plugin: %w", err)
	}
	return nil
}

type logWriter struct{}

func (logWriter) Write(b []byte) (int, error) {
	log.Printf("pluginproxy: child stderr: %s", b)
	return len(b), nil
}

func (p *Proxy) sendAndAwait(cmd ipc.HostCommand, want ipc.PluginEventKind) error {
	if err := ipc.EncodeLine(p.stdin, cmd); err != nil {
		return err
	}
	var evt ipc.PluginEvent
	if err := ipc.DecodeLine(p.reader, &evt); err != nil {
		return err
	}
	if evt.Kind == ipc.EvtError {
		return fmt.Errorf("plugin error: %s", evt.Error)
	}
	if evt.Kind != want {
		return fmt.Errorf("unexpected response %q, wanted %q", evt.Kind, want)
	}
	return nil
}

// hasExited performs a non-blocking check of the child's liveness.
func (p *Proxy) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// checkResurrection respawns the child and replays state if it has exited.
func (p *Proxy) checkResurrection() error {
	if !p.hasExited() {
		return nil
	}
	log.Printf("pluginproxy: child exited, resurrecting %s", p.pluginPath)
	if err := p.spawnAndInit(); err != nil {
		return fmt.Errorf("%w: resurrection failed: %v", enginerr.ErrResurrectableCrash, err)
	}
	p.mu.Lock()
	shadow := make(map[uint32]float32, len(p.paramShadow))
	for k, v := range p.paramShadow {
		shadow[k] = v
	}
	p.mu.Unlock()
	for id, v := range shadow {
		if err := ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdSetParameter, ParamID: id, Value: v}); err != nil {
			log.Printf("pluginproxy: replay param %d failed: %v", id, err)
		}
	}
	return enginerr.ErrResurrectableCrash
}

// Process implements nodes.Node.
func (p *Proxy) Process(buffer []float32, sampleRate float64, events nodes.BlockEvents) error {
	if resErr := p.checkResurrection(); resErr != nil {
		for i := range buffer {
			buffer[i] = 0
		}
		return resErr
	}

	frameCount := len(buffer) / max(p.channels, 1)
	p.shmem.WriteFloats(p.shmem.ReadHeader().InputOffset, buffer)

	p.mu.Lock()
	pending := p.pendingQueue
	p.pendingQueue = nil
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.deadline)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var cmd ipc.HostCommand
		if len(events.Notes) == 0 && len(pending) == 0 {
			cmd = ipc.HostCommand{Kind: ipc.CmdProcessFrame, Count: frameCount}
		} else if len(pending) == 0 {
			cmd = ipc.HostCommand{Kind: ipc.CmdProcessWithMidi, Count: frameCount, Events: ipc.NoteEventsToWire(events.Notes)}
		} else {
			cmd = ipc.HostCommand{Kind: ipc.CmdProcessWithEvents, Count: frameCount, Events: ipc.NoteEventsToWire(events.Notes), Params: pending}
		}
		if err := ipc.EncodeLine(p.stdin, cmd); err != nil {
			done <- err
			return
		}
		var evt ipc.PluginEvent
		done <- ipc.DecodeLine(p.reader, &evt)
	}()

	select {
	case err := <-done:
		if err != nil {
			for i := range buffer {
				buffer[i] = 0
			}
			log.Printf("pluginproxy: process response error: %v", err)
			return p.checkResurrection()
		}
		copy(buffer, p.shmem.ReadFloats(p.shmem.ReadHeader().OutputOffset, len(buffer)))
		return nil
	case <-ctx.Done():
		for i := range buffer {
			buffer[i] = 0
		}
		log.Printf("pluginproxy: process deadline exceeded for %s", p.pluginPath)
		return p.checkResurrection()
	}
}

// SetParam implements nodes.Node: writes the shadow map and queues a
// ParamEvent delivered at sample offset 0 of the next process call.
func (p *Proxy) SetParam(id uint32, value float32) {
	p.mu.Lock()
	p.paramShadow[id] = value
	p.pendingQueue = append(p.pendingQueue, ipc.ParamChange{ParamID: id, Value: value})
	p.lastTouchID = id
	p.lastTouchVal = value
	p.generation++
	p.mu.Unlock()
	if err := ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdSetParameter, ParamID: id, Value: value}); err != nil {
		log.Printf("pluginproxy: set param %d failed: %v", id, err)
	}
}

// GetPluginParams implements nodes.Node.
func (p *Proxy) GetPluginParams() []nodes.ParamInfo {
	if err := ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdGetParamInfo}); err != nil {
		log.Printf("pluginproxy: get param info failed: %v", err)
		return nil
	}
	var evt ipc.PluginEvent
	if err := ipc.DecodeLine(p.reader, &evt); err != nil {
		log.Printf("pluginproxy: get param info response failed: %v", err)
		return nil
	}
	return evt.Params
}

// OpenEditor implements nodes.Node.
func (p *Proxy) OpenEditor() {
	if err := ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdOpenEditor}); err != nil {
		log.Printf("pluginproxy: open editor failed: %v", err)
	}
}

// SimulateCrash implements nodes.Node: kills the child so the next Process
// call observes an exit and resurrects.
func (p *Proxy) SimulateCrash() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// GetState implements nodes.Node.
func (p *Proxy) GetState() ([]byte, error) {
	if err := ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdGetState}); err != nil {
		return nil, err
	}
	var evt ipc.PluginEvent
	if err := ipc.DecodeLine(p.reader, &evt); err != nil {
		return nil, err
	}
	if evt.Kind == ipc.EvtError {
		return nil, fmt.Errorf("plugin: get state: %s", evt.Error)
	}
	return nil, nil
}

// SetState implements nodes.Node. State bytes are not auto-restored after a
// resurrection; the engine re-applies them explicitly when known (spec 4.6).
func (p *Proxy) SetState(data []byte) error {
	return ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdSetState, State: data})
}

// GetNoteNames implements nodes.Node.
func (p *Proxy) GetNoteNames() (string, []string) { return p.pluginPath, nil }

// GetLastTouched implements nodes.Node.
func (p *Proxy) GetLastTouched() (uint32, float32, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTouchID, p.lastTouchVal, p.generation
}

// GetLatency implements nodes.Node.
func (p *Proxy) GetLatency() uint32 { return p.latency }

// Close sends Shutdown and releases the shmem region. Intended to run on
// the off-thread dropper, never on the audio thread, since child
// termination may block.
func (p *Proxy) Close() error {
	if p.stdin != nil {
		_ = ipc.EncodeLine(p.stdin, ipc.HostCommand{Kind: ipc.CmdShutdown})
		_ = p.stdin.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		_, _ = p.cmd.Process.Wait()
	}
	if p.shmem != nil {
		return p.shmem.Close()
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
