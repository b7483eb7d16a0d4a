// internal/settings/value_test.go
package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_Ranges(t *testing.T) {
	tests := []struct {
		kind Kind
		text string
		ok   bool
	}{
		{Int8, "-128", true},
		{Int8, "127", true},
		{Int8, "128", false},
		{Uint8, "255", true},
		{Uint8, "-1", false},
		{Int16, "-32768", true},
		{Uint16, "65536", false},
		{Int32, "2147483647", true},
		{Uint32, "4294967295", true},
		{Uint32, "4294967296", false},
		{Uint16, "12abc", false},
		{Uint16, "", false},
		{Float, "21.5", true},
		{Float, " 21.5 ", true},
		{Float, "1e39", false},
		{Float, "NaN", false},
		{Float, "warm", false},
	}

	for _, tc := range tests {
		_, err := ParseValue(tc.kind, tc.text)
		if tc.ok {
			assert.NoError(t, err, "%s %q", tc.kind, tc.text)
		} else {
			assert.ErrorIs(t, err, ErrInvalidValue, "%s %q", tc.kind, tc.text)
		}
	}
}

func TestValue_StringParsesBack(t *testing.T) {
	values := []Value{
		IntValue(Int8, -5),
		UintValue(Uint8, 200),
		IntValue(Int16, -30000),
		UintValue(Uint16, 65535),
		IntValue(Int32, -2000000000),
		UintValue(Uint32, 4000000000),
		FloatValue(21.5),
		FloatValue(0.2),
		FloatValue(-0.125),
	}

	for _, v := range values {
		back, err := ParseValue(v.Kind(), v.String())
		require.NoError(t, err, v.String())
		assert.True(t, v.Equal(back), "%s: got %s", v, back)
	}
}

func TestValue_PutDecodeLittleEndian(t *testing.T) {
	v := UintValue(Uint16, 0x1234)
	b := make([]byte, 2)
	v.Put(b)
	assert.Equal(t, []byte{0x34, 0x12}, b)

	neg := IntValue(Int16, -2)
	neg.Put(b)
	assert.Equal(t, []byte{0xFE, 0xFF}, b)

	got, err := DecodeValue(Int16, b)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), got.Int())

	_, err = DecodeValue(Uint32, b)
	assert.Error(t, err)
}

func TestValue_FloatBits(t *testing.T) {
	b := make([]byte, 4)
	FloatValue(1).Put(b)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, b)

	got, err := DecodeValue(Float, b)
	require.NoError(t, err)
	assert.Equal(t, float32(1), got.Float())
}
