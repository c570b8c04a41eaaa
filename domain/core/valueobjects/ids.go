package valueobjects

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrackingID correlates a batch save or audit record across logs.
type TrackingID string

// NewTrackingID returns TRK-<unix ms>-<9 base36 chars>.
func NewTrackingID(now time.Time) TrackingID {
	return TrackingID(fmt.Sprintf("TRK-%d-%s", now.UnixMilli(), randomBase36(9)))
}

func (id TrackingID) String() string { return string(id) }

// TempID keys an unsaved row until the server assigns a surrogate id.
type TempID string

// NewTempID returns a fresh temp-<uuid> identifier.
func NewTempID() TempID {
	return TempID("temp-" + uuid.NewString())
}

func (id TempID) String() string { return string(id) }

func (id TempID) IsZero() bool { return id == "" }

func randomBase36(n int) string {
	u := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s[:n]
}
