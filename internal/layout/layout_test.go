package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardFolder(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"^GSPC", "_"},
		{"~IDX", "_"},
		{"@ES", "_"},
		{"aapl", "a"},
		{"AAPL", "a"},
		{"1ABC", "1"},
		{"", " "},
		{"Ärger", "Ä"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			require.Equal(t, tt.want, ShardFolder(tt.symbol))
		})
	}
}

func TestResolve(t *testing.T) {
	root := filepath.Join("data", "db")

	require.Equal(t, filepath.Join(root, "a", "AAPL"), Resolve(root, "AAPL"))
	require.Equal(t, filepath.Join(root, "_", "^GSPC"), Resolve(root, "^GSPC"))
	require.Equal(t, filepath.Join(root, "s", "spce"), Resolve(root, "spce"))
	require.Equal(t, filepath.Join(root, "broker.master"), Resolve(root, "broker.master"))
	require.Equal(t, filepath.Join(root, "Broker.Master"), Resolve(root, "Broker.Master"))
	require.Equal(t, filepath.Join(root, "broker.master"), MasterPath(root))
}
