package tracker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectHostInfo(t *testing.T) {
	info := CollectHostInfo()
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
	assert.NotEmpty(t, info.GoVersion)
	assert.Greater(t, info.NumCPU, 0)
}

func TestPayload_DeviceInfoIsConstructible(t *testing.T) {
	// The payload shape is part of the public surface; a consumer must be
	// able to build one field by field, device info included.
	p := Payload{
		SessionID:  "s1",
		ProjectID:  "p1",
		DeviceInfo: HostInfo{OS: "linux", Arch: "amd64", NumCPU: 8},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "linux", decoded.DeviceInfo.OS)
	assert.Equal(t, 8, decoded.DeviceInfo.NumCPU)
}
