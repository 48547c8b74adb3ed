package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/util"
)

func TestContentHash(t *testing.T) {
	h1 := util.ContentHash("mod.ts", "export const a = 1;")
	h2 := util.ContentHash("mod.ts", "export const a = 1;")
	h3 := util.ContentHash("mod.ts", "export const a = 2;")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 8)

	// part boundaries matter
	assert.NotEqual(t, util.ContentHash("ab", "c"), util.ContentHash("a", "bc\x00"))
}

func TestJsonHash(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	h1, err := util.JsonHash(payload{Name: "a", N: 1})
	require.NoError(t, err)
	h2, err := util.JsonHash(payload{Name: "a", N: 1})
	require.NoError(t, err)
	h3, err := util.JsonHash(payload{Name: "a", N: 2})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)

	_, err = util.JsonHash()
	assert.Error(t, err)

	b, err := util.JsonHashBytes(payload{Name: "a", N: 1})
	require.NoError(t, err)
	assert.Len(t, b, 4)
}

func TestEnvBool(t *testing.T) {
	for _, val := range []string{"true", "TRUE", "1", "yes", "Y"} {
		t.Setenv("TWASM_TEST_FLAG", val)
		assert.True(t, util.EnvBool("TWASM_TEST_FLAG"), "value: %s", val)
	}
	for _, val := range []string{"", "false", "0", "no", "off"} {
		t.Setenv("TWASM_TEST_FLAG", val)
		assert.False(t, util.EnvBool("TWASM_TEST_FLAG"), "value: %s", val)
	}
}
