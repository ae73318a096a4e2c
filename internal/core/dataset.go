package core

import (
	"fmt"
)

// DatasetInfo is the decoded metadata of a dataset object header.
type DatasetInfo struct {
	Dataspace *DataspaceMessage
	Datatype  *DatatypeMessage
	Layout    *DataLayoutMessage
	FillValue *FillValueMessage // nil when the header has none
}

// ReadDatasetInfo decodes the dataset messages of oh. Datasets with a
// filter pipeline or a null dataspace return ErrUnsupported.
func ReadDatasetInfo(oh *ObjectHeader, sb *Superblock) (*DatasetInfo, error) {
	spaceMsg := oh.Find(MsgDataspace)
	typeMsg := oh.Find(MsgDatatype)
	layoutMsg := oh.Find(MsgDataLayout)
	if spaceMsg == nil || typeMsg == nil || layoutMsg == nil {
		return nil, fmt.Errorf("%w: object at %d is not a dataset", ErrCorrupt, oh.Address)
	}
	if oh.Find(MsgFilters) != nil {
		return nil, fmt.Errorf("%w: filtered dataset", ErrUnsupported)
	}

	if typeMsg.Flags&MsgFlagShared != 0 {
		return nil, fmt.Errorf("%w: shared datatype", ErrUnsupported)
	}

	info := &DatasetInfo{}
	var err error

	if info.Dataspace, err = ParseDataspaceMessage(spaceMsg.Data, sb); err != nil {
		return nil, err
	}
	if info.Dataspace.Type == DataspaceNull {
		return nil, fmt.Errorf("%w: null dataspace", ErrUnsupported)
	}
	if info.Datatype, err = ParseDatatypeMessage(typeMsg.Data); err != nil {
		return nil, err
	}
	if info.Layout, err = ParseDataLayoutMessage(layoutMsg.Data, sb); err != nil {
		return nil, err
	}

	if msg := oh.Find(MsgFillValue); msg != nil {
		if info.FillValue, err = ParseFillValueMessage(msg.Data); err != nil {
			return nil, err
		}
	}

	return info, nil
}

// NewDatasetHeader builds the object header of a contiguous dataset.
// datatype is an encoded datatype message.
func NewDatasetHeader(dims []uint64, datatype []byte, dataAddress, dataSize uint64) (*ObjectHeaderWriter, error) {
	space, err := EncodeDataspaceMessage(dims)
	if err != nil {
		return nil, err
	}

	ohw := NewObjectHeaderWriter()
	ohw.Add(MsgDataspace, 0, space)
	ohw.Add(MsgDatatype, MsgFlagConstant, datatype)
	ohw.Add(MsgFillValue, MsgFlagConstant, EncodeFillValue(nil))
	ohw.Add(MsgDataLayout, 0, EncodeContiguousLayout(dataAddress, dataSize))
	return ohw, nil
}
