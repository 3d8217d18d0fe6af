package keycodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "akey-_burry_", ValueKey("akey"))
	assert.Equal(t, "12345-_burry_exp_", ExpiryKey("12345"))
	assert.Equal(t, "-_burry_", ValueKey(""))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		physical string
		want     Physical
	}{
		{"foo-_burry_", Physical{Kind: KindValue, Logical: "foo"}},
		{"foo-_burry_exp_", Physical{Kind: KindExpiry, Logical: "foo"}},
		{"foo-_burry_bar", Physical{Kind: KindForeign}},
		{"foo-_burry_exp_bar", Physical{Kind: KindForeign}},
		{"foo", Physical{Kind: KindForeign}},
		{"_burry_", Physical{Kind: KindForeign}},
		{"-_burry_", Physical{Kind: KindValue, Logical: ""}},
		// logical keys that themselves contain a suffix still round trip
		{"a-_burry_exp_-_burry_", Physical{Kind: KindValue, Logical: "a-_burry_exp_"}},
		{"a-_burry_-_burry_exp_", Physical{Kind: KindExpiry, Logical: "a-_burry_"}},
	}
	for _, test := range tests {
		t.Run(test.physical, func(t *testing.T) {
			assert.Equal(t, test.want, Decode(test.physical))
		})
	}
}

func TestDecodeHelpers(t *testing.T) {
	key, ok := DecodeValueKey("foo-_burry_")
	assert.True(t, ok)
	assert.Equal(t, "foo", key)

	_, ok = DecodeValueKey("foo-_burry_exp_")
	assert.False(t, ok)

	key, ok = DecodeExpiryKey("foo-_burry_exp_")
	assert.True(t, ok)
	assert.Equal(t, "foo", key)

	_, ok = DecodeExpiryKey("foo-_burry_")
	assert.False(t, ok)
}

func TestRoundTripIsExclusive(t *testing.T) {
	for _, key := range []string{"", "a", "user:1", "-_burry_", "-_burry_exp_", "x-_burry_exp", "ключ"} {
		v := Decode(ValueKey(key))
		e := Decode(ExpiryKey(key))
		assert.Equal(t, Physical{Kind: KindValue, Logical: key}, v, key)
		assert.Equal(t, Physical{Kind: KindExpiry, Logical: key}, e, key)
		assert.NotEqual(t, ValueKey(key), ExpiryKey(key))
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "value", KindValue.String())
	assert.Equal(t, "expiry", KindExpiry.String())
	assert.Equal(t, "foreign", KindForeign.String())
}
