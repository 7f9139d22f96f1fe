package nickname

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForIsDeterministic(t *testing.T) {
	id := "v_20250301_100000_deadbeef"
	name := For(id)
	assert.Equal(t, name, For(id))
	assert.True(t, Valid(name), name)
	assert.NotEqual(t, name, For("v_20250301_100000_deadbeee"))
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"cobalt-heron-sketches-softly": true,
		"cobalt-heron-sketches":        false,
		"cobalt--sketches-softly":      false,
		"v_20250301_100000_deadbeef":   false,
	}
	for name, want := range cases {
		assert.Equal(t, want, Valid(name), name)
	}
}

func TestIndexLookup(t *testing.T) {
	var ids []string
	for i := 0; i < 50; i++ {
		ids = append(ids, fmt.Sprintf("v_20250301_1000%02d_0000000%d", i, i%10))
	}
	idx := NewIndex(ids)
	for _, id := range ids {
		assert.Contains(t, idx.Lookup(For(id)), id)
	}
	assert.Nil(t, idx.Lookup("no-such-nick-name"))
}
