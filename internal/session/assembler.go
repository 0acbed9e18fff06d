package session

import (
	"github.com/micwire/micwire/internal/bridge"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/types"
	"github.com/micwire/micwire/internal/util"
)

// assembler gathers interleaved frames into planar blocks, runs each
// full block through the engine adapter, and reinterleaves the result
// onto the output bridge. Partial blocks are never submitted; whatever
// sits below the cursor at teardown is discarded so the engine's filter
// state stays aligned to block boundaries.
type assembler struct {
	adapter *engine.Adapter
	in      engine.Block
	out     engine.Block
	cursor  int
}

func newAssembler(adapter *engine.Adapter) *assembler {
	a := &assembler{adapter: adapter}
	for ch := 0; ch < types.Channels; ch++ {
		a.in[ch] = make([]float32, types.BlockSize)
		a.out[ch] = make([]float32, types.BlockSize)
	}
	return a
}

// feed deinterleaves one frame into the block buffers. When the block
// fills it is processed and pushed frame-by-frame onto the output
// bridge; a full output bridge is a fatal session error, not silent
// loss, because it means the render path has stalled.
func (a *assembler) feed(f bridge.Frame, out *bridge.Bridge) error {
	a.in[0][a.cursor] = f[0]
	a.in[1][a.cursor] = f[1]
	a.cursor++
	if a.cursor < types.BlockSize {
		return nil
	}
	a.cursor = 0

	a.adapter.Process(a.in, a.out)

	for i := 0; i < types.BlockSize; i++ {
		if !out.TryPush(bridge.Frame{a.out[0][i], a.out[1][i]}) {
			return util.WrapError("push processed frame", bridge.ErrFull)
		}
	}
	return nil
}
