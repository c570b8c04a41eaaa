package menus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Len(t, cfg.MainMenus, 8)
	assert.Equal(t, "basic-operations", cfg.MainMenus[0].ID)
	assert.Equal(t, []string{"basic-operations"}, cfg.MainMenus[0].RequiredPermissions)

	admin := cfg.MainMenus[7]
	assert.Equal(t, "system-administration", admin.ID)
	assert.Equal(t, []string{"admin"}, admin.RequiredRoles)

	code := cfg.MainMenus[0].Items[0]
	require.Len(t, code.Children, 2)
	assert.Equal(t, "/basic-operations/code/basic", code.Children[0].Path)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("mainMenus: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("mainMenus:\n  - id: a\n    bogus: 1\n"))
	assert.Error(t, err)
}

const oneMenu = `mainMenus:
  - id: only
    label: "唯一"
    labelEn: "Only"
    items:
      - id: item
        label: "項目"
        path: /only
`

const twoMenus = oneMenu + `  - id: second
    label: "第二"
    labelEn: "Second"
    items: []
`

func TestSource_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneMenu), 0o644))

	s, err := NewSource(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, s.Menus().MainMenus, 1)

	require.NoError(t, s.Watch())
	defer s.Close()

	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))
	time.Sleep(3 * debounceDelay)
	assert.Len(t, s.Menus().MainMenus, 1, "bad file keeps previous menus")

	require.NoError(t, os.WriteFile(path, []byte(twoMenus), 0o644))
	assert.Eventually(t, func() bool {
		return len(s.Menus().MainMenus) == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestSource_Embedded(t *testing.T) {
	s, err := NewSource("", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Watch())
	require.NoError(t, s.Close())
	assert.Len(t, s.Menus().MainMenus, 8)
}

func TestNewSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "none.yaml"), zap.NewNop())
	assert.Error(t, err)
}
