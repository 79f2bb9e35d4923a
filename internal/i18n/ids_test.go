package i18n

import (
	"sort"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

func messageIDs(t *testing.T, data []byte) []string {
	t.Helper()

	var raw map[string]interface{}
	_, err := toml.Decode(string(data), &raw)
	require.NoError(t, err)

	ids := make([]string, 0, len(raw))
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, v := range m {
			child, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			id := k
			if prefix != "" {
				id = prefix + "." + k
			}
			if _, leaf := child["other"]; leaf {
				ids = append(ids, id)
				continue
			}
			walk(id, child)
		}
	}
	walk("", raw)

	sort.Strings(ids)
	return ids
}
