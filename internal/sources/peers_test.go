// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-brief/pkg/types"
)

func TestPeers(t *testing.T) {
	p := NewPeers(testOptions())
	mc := liveController(t, types.Credentials{})

	item := p.Fetch(ctx(t), "pltr", mc)
	require.True(t, item.OK())
	payload := item.Payload.(types.PeersPayload)
	assert.True(t, payload.Known)
	assert.Equal(t, []string{"SNOW", "AI", "DDOG"}, payload.Peers)
	assert.Empty(t, item.Citations)

	// Mutating the result must not leak into the static table.
	payload.Peers[0] = "XXX"
	again := p.Fetch(ctx(t), "PLTR", mc).Payload.(types.PeersPayload)
	assert.Equal(t, "SNOW", again.Peers[0])

	unknown := p.Fetch(ctx(t), "ZZZZ", mc)
	require.True(t, unknown.OK())
	up := unknown.Payload.(types.PeersPayload)
	assert.False(t, up.Known)
	assert.NotNil(t, up.Peers)
	assert.Empty(t, up.Peers)
}
