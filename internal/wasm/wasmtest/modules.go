// Package wasmtest holds hand assembled plugin binaries for tests.
package wasmtest

// EmptyModule is a valid Wasm 1.0 module with no sections.
var EmptyModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
}

// ProbeModule is a hand assembled plugin:
//
//	plugin_load(ep)       -> vpx.subscribe(ep, 3, 7)
//	plugin_unload()       -> vpx.unsubscribe(3)
//	plugin_dispatch(id,c) -> mem[0]++, mem[4] = c, 0
//	plugin_timer(c)       -> mem[8] = c, 0
var ProbeModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32)->i32, ()->i32, (i32 i32)->i32, (i32 i32 i32)->i32
	0x01, 0x17, 0x04,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x00, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f,
	// import: vpx.subscribe (type 3), vpx.unsubscribe (type 0)
	0x02, 0x23, 0x02,
	0x03, 0x76, 0x70, 0x78, 0x09, 0x73, 0x75, 0x62, 0x73, 0x63, 0x72, 0x69, 0x62, 0x65, 0x00, 0x03,
	0x03, 0x76, 0x70, 0x78, 0x0b, 0x75, 0x6e, 0x73, 0x75, 0x62, 0x73, 0x63, 0x72, 0x69, 0x62, 0x65, 0x00, 0x00,
	// function: load, unload, dispatch, timer
	0x03, 0x05, 0x04, 0x00, 0x01, 0x02, 0x00,
	// memory: 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export
	0x07, 0x49, 0x05,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
	0x0b, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f, 0x6c, 0x6f, 0x61, 0x64, 0x00, 0x02,
	0x0d, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f, 0x75, 0x6e, 0x6c, 0x6f, 0x61, 0x64, 0x00, 0x03,
	0x0f, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f, 0x64, 0x69, 0x73, 0x70, 0x61, 0x74, 0x63, 0x68, 0x00, 0x04,
	0x0c, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f, 0x74, 0x69, 0x6d, 0x65, 0x72, 0x00, 0x05,
	// code
	0x0a, 0x38, 0x04,
	0x0a, 0x00, 0x20, 0x00, 0x41, 0x03, 0x41, 0x07, 0x10, 0x00, 0x0b,
	0x06, 0x00, 0x41, 0x03, 0x10, 0x01, 0x0b,
	0x18, 0x00,
	0x41, 0x00, 0x41, 0x00, 0x28, 0x02, 0x00, 0x41, 0x01, 0x6a, 0x36, 0x02, 0x00,
	0x41, 0x04, 0x20, 0x01, 0x36, 0x02, 0x00,
	0x41, 0x00, 0x0b,
	0x0b, 0x00, 0x41, 0x08, 0x20, 0x00, 0x36, 0x02, 0x00, 0x41, 0x00, 0x0b,
}

// ForeignImportModule imports env.f, which no plugin may do.
var ForeignImportModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x02, 0x09, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x01, 0x66, 0x00, 0x00,
}

// ArgsReactorModule is a reactor whose _initialize traps unless the host
// passes program arguments, like a Go plugin with a package init reading
// os.Args[0]. argc is left at mem[0].
//
//	_initialize()         -> wasi.args_sizes_get(0, 4); mem[0] == 0 -> unreachable
//	plugin_*              -> 0
var ArgsReactorModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32 i32)->i32, ()->(), (i32)->i32, ()->i32
	0x01, 0x13, 0x04, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x00, 0x60, 0x01, 0x7f, 0x01,
	0x7f, 0x60, 0x00, 0x01, 0x7f,
	// import: wasi_snapshot_preview1.args_sizes_get (type 0)
	0x02, 0x29, 0x01, 0x16, 0x77, 0x61, 0x73, 0x69, 0x5f, 0x73, 0x6e, 0x61, 0x70, 0x73, 0x68, 0x6f,
	0x74, 0x5f, 0x70, 0x72, 0x65, 0x76, 0x69, 0x65, 0x77, 0x31, 0x0e, 0x61, 0x72, 0x67, 0x73, 0x5f,
	0x73, 0x69, 0x7a, 0x65, 0x73, 0x5f, 0x67, 0x65, 0x74, 0x00, 0x00,
	// function: _initialize, load, unload, dispatch, timer
	0x03, 0x06, 0x05, 0x01, 0x02, 0x03, 0x00, 0x02,
	// memory: 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export
	0x07, 0x57, 0x06, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x0b, 0x5f, 0x69, 0x6e,
	0x69, 0x74, 0x69, 0x61, 0x6c, 0x69, 0x7a, 0x65, 0x00, 0x01, 0x0b, 0x70, 0x6c, 0x75, 0x67, 0x69,
	0x6e, 0x5f, 0x6c, 0x6f, 0x61, 0x64, 0x00, 0x02, 0x0d, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f,
	0x75, 0x6e, 0x6c, 0x6f, 0x61, 0x64, 0x00, 0x03, 0x0f, 0x70, 0x6c, 0x75, 0x67, 0x69, 0x6e, 0x5f,
	0x64, 0x69, 0x73, 0x70, 0x61, 0x74, 0x63, 0x68, 0x00, 0x04, 0x0c, 0x70, 0x6c, 0x75, 0x67, 0x69,
	0x6e, 0x5f, 0x74, 0x69, 0x6d, 0x65, 0x72, 0x00, 0x05,
	// code
	0x0a, 0x29, 0x05, 0x13, 0x00, 0x41, 0x00, 0x41, 0x04, 0x10, 0x00, 0x1a, 0x41, 0x00, 0x28, 0x02,
	0x00, 0x45, 0x04, 0x40, 0x00, 0x0b, 0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b, 0x04, 0x00, 0x41, 0x00,
	0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b, 0x04, 0x00, 0x41, 0x00, 0x0b,
}
