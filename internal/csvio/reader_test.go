package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("parses headered CSV", func(t *testing.T) {
		rows, err := Read(strings.NewReader("name,url,region\nIndeed Jobs,https://www.indeed.com,Global\nMonster,https://www.monster.com,US\n"))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Indeed Jobs", rows[0]["name"])
		assert.Equal(t, "https://www.monster.com", rows[1]["url"])
		assert.Equal(t, "US", rows[1]["region"])
	})

	t.Run("assumes legacy layout when no header", func(t *testing.T) {
		rows, err := Read(strings.NewReader("Remote OK,https://remoteok.com,Global\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Remote OK", rows[0]["name"])
		assert.Equal(t, "https://remoteok.com", rows[0]["url"])
	})

	t.Run("pads short rows and skips blank lines", func(t *testing.T) {
		rows, err := Read(strings.NewReader("name,url,region\nDice,https://www.dice.com\n,,\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "", rows[0]["region"])
	})

	t.Run("handles quoted fields", func(t *testing.T) {
		rows, err := Read(strings.NewReader("name,url,region\n\"Jobs, Jobs, Jobs\",https://example.com,EU\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Jobs, Jobs, Jobs", rows[0]["name"])
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := Read(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("rejects header-only input", func(t *testing.T) {
		_, err := Read(strings.NewReader("name,url,region\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})
}
