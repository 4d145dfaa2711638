// Package rainbow is a sample plugin declaring a choice option.
package rainbow

import (
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// Colors are the choices of the color option, by index.
var Colors = []string{"Red", "Blue"}

// ColorOption is the option read at load.
var ColorOption = protocol.OptionSpec{
	PageID:   "rainbow",
	OptionID: "color",
	Show:     protocol.ShowUI | protocol.ShowTweak,
	Name:     "Use red or blue",
	Min:      0,
	Max:      1,
	Step:     1,
	Default:  0,
	Unit:     protocol.OptionUnitNone,
	Values:   Colors,
}

// Plugin is the rainbow plugin.
type Plugin struct {
	logger *zap.Logger

	// Color is the index into Colors chosen at load.
	Color int
}

// New returns a rainbow plugin.
func New() bridge.Plugin {
	return &Plugin{}
}

func (p *Plugin) OnLoad(api *bridge.API) error {
	p.logger = api.Logger()
	p.logger.Info("Rainbow plugin loading")

	v, err := api.Option(ColorOption)
	if err != nil {
		return err
	}
	p.Color = int(v)
	p.logger.Info("Rainbow plugin option", zap.String("color", Colors[p.Color]))
	return nil
}

func (p *Plugin) OnUnload() {
	p.logger.Info("Rainbow plugin unloading")
}
