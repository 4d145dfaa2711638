// Package wasmguest binds the bridge to the WebAssembly plugin ABI.
//
// A plugin main built with GOOS=wasip1 -buildmode=c-shared calls Register
// from init. The resulting reactor exports plugin_load, plugin_unload,
// plugin_dispatch and plugin_timer and imports its host functions from the
// "vpx" module. Exports return a protocol.WasmStatus instead of aborting, so
// a failed load only takes down the plugin's own instance.
package wasmguest
