//go:build cgo && !wasip1

package main

import (
	"github.com/woxQAQ/vpxplugin-go/internal/cabi"
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/rainbow"
)

func init() {
	cabi.Register(rainbow.New)
}
