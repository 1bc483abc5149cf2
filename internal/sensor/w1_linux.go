//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const w1DevicesDir = "/sys/bus/w1/devices"

// ds18b20Prefix is the 1-wire family code of DS18B20 probes.
const ds18b20Prefix = "28-"

// W1Driver reads DS18B20 probes through the Linux 1-wire sysfs tree. The
// kernel performs the bus protocol and CRC check; a failed check surfaces as
// "NO" in the w1_slave file and is reported as ErrReadFailed.
type W1Driver struct {
	dir string
}

// NewW1Driver returns a driver rooted at the standard sysfs path.
func NewW1Driver() *W1Driver {
	return &W1Driver{dir: w1DevicesDir}
}

// Scan lists attached DS18B20 probe identifiers.
func (d *W1Driver) Scan() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("scan 1-wire bus: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ds18b20Prefix) {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Read performs one conversion. This blocks for the probe's conversion time
// (up to ~750ms at 12-bit resolution).
func (d *W1Driver) Read(id string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(d.dir, id, "w1_slave"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrUnknownSensor
		}
		return 0, fmt.Errorf("read %s: %w", id, err)
	}
	return parseW1Slave(string(raw))
}

// Close releases nothing; the sysfs files are opened per read.
func (d *W1Driver) Close() error { return nil }
