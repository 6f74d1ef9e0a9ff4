// Package diskstat tracks disk usage of the service directories and exposes
// it as Prometheus gauges.
package diskstat

import (
	"io/fs"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a point-in-time snapshot of disk usage.
type Stats struct {
	TotalBytes uint64
	FreeBytes  uint64
	// DirBytes maps each tracked directory label to the bytes stored in it.
	DirBytes   map[string]uint64
	CapturedAt time.Time
}

// PctFree returns the percentage of disk space that is free (0–100).
func (s Stats) PctFree() float64 {
	if s.TotalBytes == 0 {
		return 100
	}
	return float64(s.FreeBytes) / float64(s.TotalBytes) * 100
}

var (
	freeDesc = prometheus.NewDesc("certgen_disk_free_bytes",
		"Free bytes on the filesystem holding the data directory.", nil, nil)
	totalDesc = prometheus.NewDesc("certgen_disk_total_bytes",
		"Size of the filesystem holding the data directory.", nil, nil)
	dirDesc = prometheus.NewDesc("certgen_dir_bytes",
		"Bytes stored under a service directory.", []string{"dir"}, nil)
)

// Cache is a goroutine-safe cached disk stats value, refreshed periodically.
// It implements prometheus.Collector.
type Cache struct {
	mu    sync.RWMutex
	stats Stats
	root  string
	dirs  map[string]string
	ttl   time.Duration
	stop  chan struct{}
}

// New creates a Cache for the filesystem holding root. dirs maps a label to
// a directory whose size is reported.
func New(root string, dirs map[string]string, ttl time.Duration) *Cache {
	return &Cache{
		root: root,
		dirs: dirs,
		ttl:  ttl,
		stop: make(chan struct{}),
	}
}

// Start begins background polling.
func (c *Cache) Start() {
	c.refresh()
	go func() {
		t := time.NewTicker(c.ttl)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				c.refresh()
			}
		}
	}()
}

// Stop halts background polling.
func (c *Cache) Stop() {
	close(c.stop)
}

// Get returns the latest cached stats.
func (c *Cache) Get() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Refresh forces an immediate update.
func (c *Cache) Refresh() {
	c.refresh()
}

func (c *Cache) refresh() {
	total, free, err := statFS(c.root)
	if err != nil {
		// Not fatal; leave previous values in place
		return
	}
	s := Stats{
		TotalBytes: total,
		FreeBytes:  free,
		DirBytes:   make(map[string]uint64, len(c.dirs)),
		CapturedAt: time.Now(),
	}
	for label, dir := range c.dirs {
		s.DirBytes[label] = dirSize(dir)
	}
	c.mu.Lock()
	c.stats = s
	c.mu.Unlock()
}

func (c *Cache) Describe(ch chan<- *prometheus.Desc) {
	ch <- freeDesc
	ch <- totalDesc
	ch <- dirDesc
}

func (c *Cache) Collect(ch chan<- prometheus.Metric) {
	s := c.Get()
	if s.CapturedAt.IsZero() {
		return
	}
	ch <- prometheus.MustNewConstMetric(freeDesc, prometheus.GaugeValue, float64(s.FreeBytes))
	ch <- prometheus.MustNewConstMetric(totalDesc, prometheus.GaugeValue, float64(s.TotalBytes))
	for label, n := range s.DirBytes {
		ch <- prometheus.MustNewConstMetric(dirDesc, prometheus.GaugeValue, float64(n), label)
	}
}

func statFS(path string) (total, free uint64, err error) {
	var stat syscall.Statfs_t
	if err = syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return bsize * stat.Blocks, bsize * stat.Bfree, nil
}

func dirSize(dir string) (total uint64) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return
}
