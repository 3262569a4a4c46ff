package checkpoint

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lamim/trainkit/pkg/models"
)

// Field numbers of the snapshot wire format:
//
//	message Snapshot { Metadata metadata = 1; repeated Tensor tensors = 2; }
//	message Metadata { string run_id = 1; string framework = 2; int64 epoch = 3;
//	                   double metric = 4; int64 created_at_unix_nano = 5; }
//	message Tensor   { string name = 1; repeated int64 shape = 2 [packed];
//	                   repeated float data = 3 [packed]; }
const (
	fieldSnapshotMetadata protowire.Number = 1
	fieldSnapshotTensors  protowire.Number = 2

	fieldMetaRunID     protowire.Number = 1
	fieldMetaFramework protowire.Number = 2
	fieldMetaEpoch     protowire.Number = 3
	fieldMetaMetric    protowire.Number = 4
	fieldMetaCreatedAt protowire.Number = 5

	fieldTensorName  protowire.Number = 1
	fieldTensorShape protowire.Number = 2
	fieldTensorData  protowire.Number = 3
)

// MarshalProto encodes a snapshot in the protobuf wire format
func MarshalProto(snap *models.Snapshot) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldSnapshotMetadata, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalMetadata(snap.Metadata))
	for _, t := range snap.Tensors {
		b = protowire.AppendTag(b, fieldSnapshotTensors, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalTensor(t))
	}
	return b
}

func marshalMetadata(m models.SnapshotMetadata) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMetaRunID, protowire.BytesType)
	b = protowire.AppendString(b, m.RunID)
	b = protowire.AppendTag(b, fieldMetaFramework, protowire.BytesType)
	b = protowire.AppendString(b, m.Framework)
	b = protowire.AppendTag(b, fieldMetaEpoch, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(m.Epoch)))
	b = protowire.AppendTag(b, fieldMetaMetric, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(m.Metric))
	if !m.CreatedAt.IsZero() {
		b = protowire.AppendTag(b, fieldMetaCreatedAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.CreatedAt.UnixNano()))
	}
	return b
}

func marshalTensor(t models.Tensor) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldTensorName, protowire.BytesType)
	b = protowire.AppendString(b, t.Name)

	var shape []byte
	for _, d := range t.Shape {
		shape = protowire.AppendVarint(shape, uint64(int64(d)))
	}
	b = protowire.AppendTag(b, fieldTensorShape, protowire.BytesType)
	b = protowire.AppendBytes(b, shape)

	data := make([]byte, 0, 4*len(t.Data))
	for _, v := range t.Data {
		data = protowire.AppendFixed32(data, math.Float32bits(v))
	}
	b = protowire.AppendTag(b, fieldTensorData, protowire.BytesType)
	b = protowire.AppendBytes(b, data)
	return b
}

// UnmarshalProto decodes a snapshot written by MarshalProto.
// Unknown fields are skipped.
func UnmarshalProto(b []byte) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldSnapshotMetadata && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			meta, err := unmarshalMetadata(v)
			if err != nil {
				return nil, fmt.Errorf("metadata: %w", err)
			}
			snap.Metadata = meta
			b = b[n:]
		case num == fieldSnapshotTensors && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			t, err := unmarshalTensor(v)
			if err != nil {
				return nil, fmt.Errorf("tensor %d: %w", len(snap.Tensors), err)
			}
			snap.Tensors = append(snap.Tensors, t)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return snap, nil
}

func unmarshalMetadata(b []byte) (models.SnapshotMetadata, error) {
	var m models.SnapshotMetadata
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldMetaRunID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.RunID = v
			b = b[n:]
		case num == fieldMetaFramework && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Framework = v
			b = b[n:]
		case num == fieldMetaEpoch && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Epoch = int(int64(v))
			b = b[n:]
		case num == fieldMetaMetric && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.Metric = math.Float64frombits(v)
			b = b[n:]
		case num == fieldMetaCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.CreatedAt = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalTensor(b []byte) (models.Tensor, error) {
	var t models.Tensor
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return t, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldTensorName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			t.Name = v
			b = b[n:]
		case num == fieldTensorShape && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return t, protowire.ParseError(m)
				}
				t.Shape = append(t.Shape, int(int64(v)))
				packed = packed[m:]
			}
			b = b[n:]
		case num == fieldTensorData && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			if len(packed)%4 != 0 {
				return t, fmt.Errorf("packed float data has %d bytes, not a multiple of 4", len(packed))
			}
			t.Data = make([]float32, 0, len(packed)/4)
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed32(packed)
				if m < 0 {
					return t, protowire.ParseError(m)
				}
				t.Data = append(t.Data, math.Float32frombits(v))
				packed = packed[m:]
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return t, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return t, nil
}
