package main

import (
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/rainbow"
	"github.com/woxQAQ/vpxplugin-go/internal/wasmguest"
)

func init() {
	wasmguest.Register(rainbow.New)
}
