package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/trailmark/routeplanner/pkg/core"
)

// Key derives the cache key for a request. Coordinates are rounded to six
// decimals, about 0.1 m.
func Key(profile string, waypoints []core.Point) string {
	h := sha256.New()
	h.Write([]byte(profile))
	buf := make([]byte, 0, 32)
	for _, p := range waypoints {
		buf = buf[:0]
		buf = append(buf, '|')
		buf = strconv.AppendFloat(buf, p.Lat, 'f', 6, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, p.Lon, 'f', 6, 64)
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
