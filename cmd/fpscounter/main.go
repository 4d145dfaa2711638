// Command fpscounter is the FPS counter plugin.
//
// Build the native plugin with
//
//	go build -buildmode=c-shared -o plugin-fpscounter.so ./cmd/fpscounter
//
// or the WebAssembly package binary with
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o plugin.wasm ./cmd/fpscounter
package main

func main() {}
