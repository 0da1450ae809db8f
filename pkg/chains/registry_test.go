package chains_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/pool-watch/pkg/chains"
)

func TestRegistry_Builtin(t *testing.T) {
	r := chains.NewRegistry()
	assert.Equal(t, "BSC", r.Name("56"))
	assert.Equal(t, "https://bscscan.com/address/0xabc", r.PoolURL("56", "0xabc"))
}

func TestRegistry_UnknownChain(t *testing.T) {
	r := chains.NewRegistry()
	assert.Equal(t, "chain 999", r.Name("999"))
	assert.Empty(t, r.PoolURL("999", "0xabc"))
}

func TestRegistry_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	data := []byte(`
chains:
  - id: "56"
    name: BNB Chain
    explorer: https://bscscan.com/address/%s
  - id: "324"
    name: zkSync
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r := chains.NewRegistry()
	require.NoError(t, r.LoadFile(path))

	assert.Equal(t, "BNB Chain", r.Name("56"))
	assert.Equal(t, "zkSync", r.Name("324"))
	assert.Empty(t, r.PoolURL("324", "0xabc"))
}

func TestRegistry_LoadBytes_MissingID(t *testing.T) {
	r := chains.NewRegistry()
	err := r.LoadBytes([]byte("chains:\n  - name: nowhere\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestRegistry_LoadBytes_Invalid(t *testing.T) {
	r := chains.NewRegistry()
	assert.Error(t, r.LoadBytes([]byte("chains: [oops")))
}
