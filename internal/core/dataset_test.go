package core

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	h5test "github.com/scigolib/h5io/internal/testing"
)

func TestDatasetHeaderRoundTrip(t *testing.T) {
	sb := testSuperblock()
	dtype, err := EncodeFloat(8, binary.LittleEndian)
	require.NoError(t, err)

	ohw, err := NewDatasetHeader([]uint64{2, 3}, dtype, 4096, 48)
	require.NoError(t, err)

	f := h5test.NewMemFile(nil)
	require.NoError(t, ohw.WriteTo(f, 100))
	oh, err := ReadObjectHeader(f, 100, sb)
	require.NoError(t, err)

	assert.Equal(t, MsgFlagConstant, oh.Find(MsgDatatype).Flags)

	info, err := ReadDatasetInfo(oh, sb)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, info.Dataspace.Dimensions)
	assert.True(t, info.Datatype.Class == DatatypeFloat && info.Datatype.Size == 8)
	assert.Equal(t, LayoutContiguous, info.Layout.Class)
	assert.Equal(t, uint64(4096), info.Layout.DataAddress)
	assert.Equal(t, uint64(48), info.Layout.DataSize)
	require.NotNil(t, info.FillValue)
	assert.False(t, info.FillValue.Defined)
}

func TestScalarDatasetHeader(t *testing.T) {
	sb := testSuperblock()
	ohw, err := NewDatasetHeader(nil, EncodeFixedPoint(4, true, binary.LittleEndian), 500, 4)
	require.NoError(t, err)

	buf, err := ohw.Encode()
	require.NoError(t, err)
	oh, err := ReadObjectHeader(h5test.NewMemFile(buf), 0, sb)
	require.NoError(t, err)

	info, err := ReadDatasetInfo(oh, sb)
	require.NoError(t, err)
	assert.Equal(t, DataspaceScalar, info.Dataspace.Type)
	assert.Zero(t, info.Dataspace.Rank())
}

func TestReadDatasetInfoRejects(t *testing.T) {
	sb := testSuperblock()
	space, err := EncodeDataspaceMessage([]uint64{4})
	require.NoError(t, err)
	dtype := EncodeFixedPoint(4, true, binary.LittleEndian)
	layout := EncodeContiguousLayout(10, 16)

	base := func(extra ...*HeaderMessage) *ObjectHeader {
		msgs := []*HeaderMessage{
			{Type: MsgDataspace, Data: space},
			{Type: MsgDatatype, Data: dtype},
			{Type: MsgDataLayout, Data: layout},
		}
		return &ObjectHeader{Messages: append(msgs, extra...)}
	}

	_, err = ReadDatasetInfo(base(), sb)
	require.NoError(t, err, "fill value message is optional")

	_, err = ReadDatasetInfo(&ObjectHeader{Messages: []*HeaderMessage{{Type: MsgLinkInfo}}}, sb)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = ReadDatasetInfo(base(&HeaderMessage{Type: MsgFilters}), sb)
	assert.ErrorIs(t, err, ErrUnsupported)

	shared := base()
	shared.Messages[1].Flags = MsgFlagShared
	_, err = ReadDatasetInfo(shared, sb)
	assert.ErrorIs(t, err, ErrUnsupported)

	null := base()
	null.Messages[0].Data = []byte{2, 0, 0, byte(DataspaceNull)}
	_, err = ReadDatasetInfo(null, sb)
	assert.ErrorIs(t, err, ErrUnsupported)
}
