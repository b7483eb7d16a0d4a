// internal/eeprom/codec_test.go
package eeprom

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/thermostat/internal/settings"
)

// helper: small registry with one field of every kind and three strings
func allKinds(t *testing.T) *settings.Registry {
	t.Helper()
	r, err := settings.NewRegistry(
		[]settings.ScalarField{
			{Name: "i8", Kind: settings.Int8},
			{Name: "u8", Kind: settings.Uint8},
			{Name: "i16", Kind: settings.Int16},
			{Name: "u16", Kind: settings.Uint16},
			{Name: "i32", Kind: settings.Int32},
			{Name: "u32", Kind: settings.Uint32},
			{Name: "f", Kind: settings.Float},
		},
		[]settings.StringField{{Name: "s1"}, {Name: "s2"}, {Name: "s3"}},
	)
	require.NoError(t, err)
	return r
}

func set(t *testing.T, r *settings.Registry, name, value string) {
	t.Helper()
	_, err := r.Set(name, value)
	require.NoError(t, err)
}

// ---- tests ----

func TestCodec_ExactLayout(t *testing.T) {
	r, err := settings.NewRegistry(
		[]settings.ScalarField{
			{Name: "port", Kind: settings.Uint16, Default: "258"},
			{Name: "rot", Kind: settings.Int8, Default: "-1"},
		},
		[]settings.StringField{{Name: "host"}, {Name: "path"}},
	)
	require.NoError(t, err)
	set(t, r, "host", "ab")

	store := NewMemStore(16)
	c := NewCodec(store, r, WithTag("T1"))
	require.NoError(t, c.Write())

	want := []byte{
		'T', '1', // tag
		0x02, 0x01, // port 258 LE
		0xFF,       // rot -1
		0x02, 0x00, 'a', 'b', // host
		0x00, 0x00, // path absent
	}
	assert.Equal(t, want, store.Bytes()[:len(want)])
	assert.Equal(t, len(want), c.EncodedSize())
}

func TestCodec_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		src := allKinds(t)
		set(t, src, "i8", strconv.Itoa(rng.Intn(256)-128))
		set(t, src, "u8", strconv.Itoa(rng.Intn(256)))
		set(t, src, "i16", strconv.Itoa(rng.Intn(65536)-32768))
		set(t, src, "u16", strconv.Itoa(rng.Intn(65536)))
		set(t, src, "i32", strconv.FormatInt(int64(rng.Int31())-int64(rng.Int31()), 10))
		set(t, src, "u32", strconv.FormatUint(uint64(rng.Uint32()), 10))
		set(t, src, "f", strconv.FormatFloat(float64(rng.Float32()*200-100), 'g', -1, 32))
		for _, name := range []string{"s1", "s2", "s3"} {
			// absent roughly one time in three
			if rng.Intn(3) == 0 {
				continue
			}
			set(t, src, name, strings.Repeat("x", 1+rng.Intn(MaxStringLen)))
		}

		store := NewMemStore(DefaultSize * 2)
		require.NoError(t, NewCodec(store, src).Write())

		dst := allKinds(t)
		set(t, dst, "s2", "stale") // must be replaced, including by "absent"
		c := NewCodec(store, dst)
		require.False(t, c.IsUninitialized())
		require.NoError(t, c.Read())

		assert.Equal(t, src.Snapshot(), dst.Snapshot(), "iteration %d", iter)
	}
}

func TestCodec_ThermostatFitsDefaultStore(t *testing.T) {
	r := settings.Thermostat()
	for _, name := range []string{"ssid", "rotpass", "rpthost", "rptpath", "cfgpath", "ident"} {
		set(t, r, name, strings.Repeat("a", 60))
	}
	c := NewCodec(NewMemStore(DefaultSize), r)
	assert.LessOrEqual(t, c.EncodedSize(), DefaultSize)
	require.NoError(t, c.Write())
}

func TestCodec_VersionGuard(t *testing.T) {
	r := allKinds(t)
	store := NewMemStore(64)
	c := NewCodec(store, r)

	assert.True(t, c.IsUninitialized(), "erased store")
	require.NoError(t, c.Write())
	assert.False(t, c.IsUninitialized())

	for i := 0; i < len(MagicTag); i++ {
		img := store.Bytes()
		img[i] ^= 0x01
		bad := NewCodec(NewMemStoreFrom(img), r)
		assert.True(t, bad.IsUninitialized(), "flipped tag byte %d", i)
	}

	// a different tag on the same bytes
	assert.True(t, NewCodec(store, r, WithTag("v11\x00")).IsUninitialized())
}

func TestCodec_ShortStoreIsUninitialized(t *testing.T) {
	c := NewCodec(NewMemStoreFrom([]byte("v1")), allKinds(t))
	assert.True(t, c.IsUninitialized())
}

func TestCodec_CorruptStringStopsRemaining(t *testing.T) {
	src := allKinds(t)
	set(t, src, "u16", "4242")
	set(t, src, "f", "21.5")
	set(t, src, "s1", "first")
	set(t, src, "s2", "second")
	set(t, src, "s3", "third")

	store := NewMemStore(128)
	require.NoError(t, NewCodec(store, src).Write())

	// s2 length prefix follows tag, scalar block, and s1 (2 + 5 bytes)
	off := len(MagicTag) + src.ScalarBlockSize() + 2 + len("first")
	require.NoError(t, store.Put(off, 201&0xFF))
	require.NoError(t, store.Put(off+1, 0))

	dst := allKinds(t)
	set(t, dst, "s2", "old-2")
	set(t, dst, "s3", "old-3")

	err := NewCodec(store, dst).Read()
	require.ErrorIs(t, err, ErrCorruptString)

	u16, _ := dst.Scalar("u16")
	assert.Equal(t, uint64(4242), u16.Uint())
	f, _ := dst.Scalar("f")
	assert.Equal(t, float32(21.5), f.Float())

	s1, _ := dst.Text("s1")
	assert.Equal(t, "first", s1)
	s2, _ := dst.Text("s2")
	assert.Equal(t, "old-2", s2, "corrupt field keeps previous value")
	s3, _ := dst.Text("s3")
	assert.Equal(t, "old-3", s3, "fields after the corrupt one keep previous values")
}

func TestCodec_LengthAtCeilingIsAccepted(t *testing.T) {
	src := allKinds(t)
	set(t, src, "s1", strings.Repeat("z", MaxStringLen))

	store := NewMemStore(DefaultSize)
	require.NoError(t, NewCodec(store, src).Write())

	dst := allKinds(t)
	require.NoError(t, NewCodec(store, dst).Read())
	got, _ := dst.Text("s1")
	assert.Len(t, got, MaxStringLen)
}

func TestCodec_WriteRejectsOversizeWithoutTouchingStore(t *testing.T) {
	r := allKinds(t)
	set(t, r, "s1", strings.Repeat("a", 100))

	store := NewMemStore(40)
	err := NewCodec(store, r).Write()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, NewMemStore(40).Bytes(), store.Bytes())

	set(t, r, "s1", strings.Repeat("a", MaxStringLen+1))
	err = NewCodec(NewMemStore(DefaultSize), r).Write()
	assert.ErrorIs(t, err, ErrStringTooLong)
}

type countingStore struct {
	*MemStore
	commits int
}

func (c *countingStore) Commit() error {
	c.commits++
	return nil
}

func TestCodec_WriteCommits(t *testing.T) {
	s := &countingStore{MemStore: NewMemStore(64)}
	require.NoError(t, NewCodec(s, allKinds(t)).Write())
	assert.Equal(t, 1, s.commits)
}

func TestCodec_ReadTruncatedStore(t *testing.T) {
	r := allKinds(t)
	store := NewMemStore(64)
	require.NoError(t, NewCodec(store, r).Write())

	short := NewMemStoreFrom(store.Bytes()[:len(MagicTag)+3])
	err := NewCodec(short, allKinds(t)).Read()
	assert.ErrorIs(t, err, ErrOutOfRange)
}
