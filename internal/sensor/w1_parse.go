package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// parseW1Slave extracts the millidegree value from the two-line w1_slave
// format:
//
//	55 01 4b 46 7f ff 0c 10 e9 : crc=e9 YES
//	55 01 4b 46 7f ff 0c 10 e9 t=21312
func parseW1Slave(raw string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("%w: short w1_slave payload", ErrReadFailed)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, fmt.Errorf("%w: crc check failed", ErrReadFailed)
	}
	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing t= field", ErrReadFailed)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][idx+2:]))
	if err != nil {
		return 0, fmt.Errorf("%w: bad t= field", ErrReadFailed)
	}
	return float64(milli) / 1000.0, nil
}
