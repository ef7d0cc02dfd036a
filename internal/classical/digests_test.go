package classical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_KnownVectors(t *testing.T) {
	// Digests of the empty input, per the respective specifications.
	ref := Compute(nil)

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ref.SHA256)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", ref.MD5)
	assert.Equal(t,
		"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce"+
			"47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		ref.SHA512)
	assert.Equal(t,
		"786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419"+
			"d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce",
		ref.BLAKE2b)
}

func TestCompute_Lengths(t *testing.T) {
	ref := Compute([]byte("quantum"))

	assert.Len(t, ref.SHA256, 64)
	assert.Len(t, ref.SHA512, 128)
	assert.Len(t, ref.MD5, 32)
	assert.Len(t, ref.BLAKE2b, 128)
}

func TestBLAKE2bKeyed(t *testing.T) {
	input := []byte("message")

	unkeyed, err := BLAKE2bKeyed(input, nil, 32)
	require.NoError(t, err)
	assert.Len(t, unkeyed, 64)

	keyed, err := BLAKE2bKeyed(input, []byte("secret"), 32)
	require.NoError(t, err)
	assert.NotEqual(t, unkeyed, keyed)

	// Deterministic for a fixed key.
	again, err := BLAKE2bKeyed(input, []byte("secret"), 32)
	require.NoError(t, err)
	assert.Equal(t, keyed, again)
}

func TestBLAKE2bKeyed_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1, 65} {
		_, err := BLAKE2bKeyed([]byte("x"), nil, size)
		assert.Error(t, err, "size=%d", size)
	}
}
