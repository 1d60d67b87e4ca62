package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range cases {
		buf := PutUvarint(nil, v)
		got, n, err := Uvarint(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestUvarintTruncated(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFieldTagRoundTrip(t *testing.T) {
	tag := FieldTag(16, WireVarint)
	number, wt := DecodeTag(tag)
	require.Equal(t, 16, number)
	require.Equal(t, WireVarint, wt)
}

func TestDispatchVarintField(t *testing.T) {
	var buf []byte
	buf = PutVarintField(buf, 26, 42)

	var got []Field
	err := Dispatch(buf, func(f Field) bool {
		got = append(got, f)
		return true
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	v, err := got[0].Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)
	require.Equal(t, 26, got[0].Number)
}

func TestDispatchBytesField(t *testing.T) {
	var buf []byte
	buf = PutBytesField(buf, 14, []byte("hello"))

	var got []Field
	err := Dispatch(buf, func(f Field) bool {
		got = append(got, f)
		return true
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	b, err := got[0].Bytes()
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestDispatchMultipleFieldsPreservesOrder(t *testing.T) {
	var buf []byte
	buf = PutVarintField(buf, 1, 1)
	buf = PutBytesField(buf, 2, []byte("x"))
	buf = PutFixed32Field(buf, 3, 7)
	buf = PutFixed64Field(buf, 4, 9)

	var numbers []int
	err := Dispatch(buf, func(f Field) bool {
		numbers = append(numbers, f.Number)
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, numbers)
}

func TestDispatchStopsWhenYieldReturnsFalse(t *testing.T) {
	var buf []byte
	buf = PutVarintField(buf, 1, 1)
	buf = PutVarintField(buf, 2, 2)

	count := 0
	err := Dispatch(buf, func(f Field) bool {
		count++
		return false
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestDispatchTruncatedBytesFieldErrors(t *testing.T) {
	var buf []byte
	buf = PutUvarint(buf, FieldTag(1, WireBytes))
	buf = PutUvarint(buf, 10) // claims 10 bytes, provides none

	err := Dispatch(buf, func(f Field) bool { return true })
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFixed32RoundTrip(t *testing.T) {
	var buf []byte
	buf = PutFixed32Field(buf, 5, 0xDEADBEEF)
	var got Field
	_ = Dispatch(buf, func(f Field) bool { got = f; return true })
	v, err := got.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0xDEADBEEF), v)
}

func TestLengthPrefixedMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLengthPrefixedMessage(&buf, []byte("payload")))
	got, err := ReadLengthPrefixedMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}

func TestReadLengthPrefixedMessageTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(PutUvarint(nil, 100))
	buf.WriteString("short")
	_, err := ReadLengthPrefixedMessage(&buf)
	require.ErrorIs(t, err, ErrTruncated)
}
