package rhi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/rhi"
	_ "github.com/codeonwort/cyseal/rhi/noop"
)

// newTestDevice brings up a headless device plus the texture manager and
// drains the startup render commands.
func newTestDevice(t *testing.T) rhi.Device {
	t.Helper()
	device, err := rhi.CreateRenderDevice(rhi.DeviceCreateParams{
		RawAPI:   rhi.RawAPINull,
		Headless: true,
		SwapChain: rhi.SwapChainCreateParams{
			Width:       64,
			Height:      64,
			BufferCount: 2,
		},
	})
	require.NoError(t, err)

	tm, err := rhi.NewTextureManager(device)
	require.NoError(t, err)
	rhi.SetTextureManager(tm)
	rhi.FlushRenderCommands()
	return device
}
