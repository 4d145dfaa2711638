package main

import (
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/fpscounter"
	"github.com/woxQAQ/vpxplugin-go/internal/wasmguest"
)

func init() {
	wasmguest.Register(fpscounter.New)
}
