package valueobjects

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingID(t *testing.T) {
	now := time.UnixMilli(1731657600123)

	id := NewTrackingID(now)

	assert.Regexp(t, regexp.MustCompile(`^TRK-1731657600123-[0-9a-z]{9}$`), id.String())
	assert.NotEqual(t, id, NewTrackingID(now))
}

func TestNewTempID(t *testing.T) {
	id := NewTempID()
	assert.False(t, id.IsZero())
	assert.Regexp(t, `^temp-[0-9a-f-]{36}$`, id.String())
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	_, err := ParseLevel("leaf")
	assert.Error(t, err)

	assert.Equal(t, "中分類", LevelMid.Label())
	assert.Equal(t, "subcatCode", LevelSub.KeyField())
	assert.Equal(t, "majorCatId", LevelMajor.IDField())
}
