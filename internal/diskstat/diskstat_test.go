package diskstat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshAndCollect(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "output")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.jpg"), make([]byte, 100), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "nested", "b.pdf"), make([]byte, 50), 0644))

	c := New(root, map[string]string{"output": out, "archives": filepath.Join(root, "missing")}, time.Minute)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families, "nothing reported before the first refresh")

	c.Refresh()
	s := c.Get()
	assert.Equal(t, uint64(150), s.DirBytes["output"])
	assert.Zero(t, s.DirBytes["archives"])
	assert.Greater(t, s.TotalBytes, uint64(0))
	assert.LessOrEqual(t, s.PctFree(), 100.0)

	families, err = reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "certgen_dir_bytes" {
			continue
		}
		for _, m := range mf.GetMetric() {
			got[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"output": 150, "archives": 0}, got)
}

func TestStartStop(t *testing.T) {
	c := New(t.TempDir(), nil, time.Hour)
	c.Start()
	assert.False(t, c.Get().CapturedAt.IsZero())
	c.Stop()
}
