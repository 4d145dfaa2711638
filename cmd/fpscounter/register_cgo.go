//go:build cgo && !wasip1

package main

import (
	"github.com/woxQAQ/vpxplugin-go/internal/cabi"
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/fpscounter"
)

func init() {
	cabi.Register(fpscounter.New)
}
