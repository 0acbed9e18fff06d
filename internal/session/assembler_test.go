package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/micwire/micwire/internal/bridge"
	"github.com/micwire/micwire/internal/engine"
	"github.com/micwire/micwire/internal/params"
	"github.com/micwire/micwire/internal/types"
)

func newTestAssembler(t *testing.T) (*assembler, *copyEngine) {
	t.Helper()
	store, err := params.Load(filepath.Join(t.TempDir(), "params.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	eng := &copyEngine{}
	return newAssembler(engine.NewAdapter(eng, store)), eng
}

// TestAssemblerSubmitsFullBlocksOnly verifies the engine sees exactly
// one call per full block and never a partial one.
func TestAssemblerSubmitsFullBlocksOnly(t *testing.T) {
	asm, eng := newTestAssembler(t)
	out := bridge.New(types.BridgeFrames)

	frames := 2*types.BlockSize + 100
	for i := 0; i < frames; i++ {
		if err := asm.feed(bridge.Frame{float32(i), float32(i)}, out); err != nil {
			t.Fatalf("feed(%d) error = %v", i, err)
		}
	}

	if eng.processedBlocks() != 2 {
		t.Errorf("engine calls = %d, want 2", eng.processedBlocks())
	}
	if got := out.Len(); got != 2*types.BlockSize {
		t.Errorf("output bridge holds %d frames, want %d", got, 2*types.BlockSize)
	}
}

// TestAssemblerStalledOutputIsFatal verifies that a full output bridge
// surfaces as an error instead of silent frame loss.
func TestAssemblerStalledOutputIsFatal(t *testing.T) {
	asm, _ := newTestAssembler(t)
	out := bridge.New(types.BlockSize / 2) // too small for one block

	var err error
	for i := 0; i < types.BlockSize && err == nil; i++ {
		err = asm.feed(bridge.Frame{1, 1}, out)
	}

	if !errors.Is(err, bridge.ErrFull) {
		t.Fatalf("feed error = %v, want bridge.ErrFull", err)
	}
}
