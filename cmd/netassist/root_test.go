package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/netassist/types"
)

func TestLoadProfileDefaults(t *testing.T) {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	require.NoError(t, root.ParseFlags(nil))

	assert.False(t, hasEndpointFlags(root, opts))

	p, err := loadProfile(root, opts)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultEndpointConfig(), p.Endpoint())
}

func TestLoadProfileFlagOverrides(t *testing.T) {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	require.NoError(t, root.ParseFlags([]string{
		"--local", "0.0.0.0:7000",
		"--remote", "10.0.0.2:7001",
		"--rx-hex=false",
	}))

	assert.True(t, hasEndpointFlags(root, opts))

	p, err := loadProfile(root, opts)
	require.NoError(t, err)

	cfg := p.Endpoint()
	assert.Equal(t, "0.0.0.0", cfg.LocalIP)
	assert.Equal(t, 7000, cfg.LocalPort)
	assert.Equal(t, "10.0.0.2", cfg.RemoteIP)
	assert.Equal(t, 7001, cfg.RemotePort)
	assert.Equal(t, types.ModeASCII, cfg.RxMode)
	assert.Equal(t, types.ModeHex, cfg.TxMode)
}

func TestLoadProfileFromLua(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
return {
	local_ip = "127.0.0.1", local_port = 7100,
	remote_ip = "127.0.0.1", remote_port = 7101,
	rx_hex = false, tx_hex = false,
}
`), 0600))

	opts := &rootOptions{}
	root := newRootCmd(opts)
	require.NoError(t, root.ParseFlags([]string{"--profile", path, "--tx-hex"}))

	p, err := loadProfile(root, opts)
	require.NoError(t, err)
	assert.Equal(t, "bench", p.Name)
	assert.Equal(t, 7101, p.RemotePort)
	assert.False(t, p.RxHex)
	assert.True(t, p.TxHex)
}

func TestLoadProfileRejectsBadEndpoints(t *testing.T) {
	for _, args := range [][]string{
		{"--remote", "10.0.0.2"},
		{"--remote", "10.0.0.2:http"},
		{"--local", "0.0.0.0:70000"},
	} {
		opts := &rootOptions{}
		root := newRootCmd(opts)
		require.NoError(t, root.ParseFlags(args))

		_, err := loadProfile(root, opts)
		assert.Error(t, err, "args %v", args)
	}
}
