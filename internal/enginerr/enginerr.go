// Package enginerr defines the closed set of error kinds the engine core
// distinguishes between. Real-time paths never propagate these upward; they
// substitute silence and log. Query command handlers return them to the UI
// via the command's reply channel.
package enginerr

import "errors"

var (
	// ErrNotInitialized is returned when plugin IPC is used before Initialize completes.
	ErrNotInitialized = errors.New("plugin: not initialized")
	// ErrDecode is returned when an audio file fails to decode.
	ErrDecode = errors.New("asset: decode error")
	// ErrResurrectableCrash marks a plugin child process exit the proxy can recover from.
	ErrResurrectableCrash = errors.New("plugin: child process exited")
	// ErrFatalPluginLoad marks a plugin load failure that the engine cannot retry.
	ErrFatalPluginLoad = errors.New("plugin: fatal load failure")
	// ErrCommandChannelClosed signals the engine should terminate after the current block.
	ErrCommandChannelClosed = errors.New("engine: command channel closed")
	// ErrAssetMissing marks a clip referencing an id absent from the current pool snapshot.
	ErrAssetMissing = errors.New("asset: missing from pool")
)
