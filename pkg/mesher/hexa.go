package mesher

import (
	"errors"
	"fmt"

	"github.com/chazu/hexablock/pkg/fromskin"
)

// ComputeHexas fills the used blocks through the skin filler. Failures are
// never fatal: they are logged, recorded in the report, and the affected
// blocks are left without volumes.
func (h *HexaBlocks) ComputeHexas() {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("mesher: skin filler panicked: %v", r)
			h.log.WithError(err).Error("volume meshing aborted")
			h.report.HexaErrors = append(h.report.HexaErrors, err)
		}
	}()

	vols, err := h.filler.Fill(h.doc, h, h.sink)
	for id, v := range vols {
		h.volumesOnHexa[id] = v
		h.report.Hexas++
	}
	if err == nil {
		return
	}

	var per fromskin.Errors
	if errors.As(err, &per) {
		for _, e := range per {
			h.log.WithField("hexa", e.Hexa).WithError(e.Err).Warn("block not meshed")
			h.report.HexaErrors = append(h.report.HexaErrors, e)
		}
		return
	}
	h.log.WithError(err).Warn("volume meshing failed")
	h.report.HexaErrors = append(h.report.HexaErrors, err)
}
