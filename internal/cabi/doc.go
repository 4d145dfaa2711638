// Package cabi binds the bridge to the host's C ABI.
//
// A plugin main blank-imports nothing but this package and calls Register from
// init; building it with -buildmode=c-shared yields a library exporting
// PluginLoad and PluginUnload. The host then calls PluginLoad with its
// endpoint id and MsgPluginAPI table, delivers events through one C
// trampoline, and calls PluginUnload once before unloading the library.
//
// Host tables are only ever read through static C helpers (calls.h) since cgo
// cannot call function pointers. Subscription contexts are bridge tokens, not
// Go pointers, so the host may keep them for as long as it likes.
package cabi
