package storage

import (
	apperrors "chat-threads/errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored in protobuf wire format. Zero values are omitted, so an
// absent field and an empty one decode the same way; optional timestamps rely
// on that to model "no value".

func AppendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendBool(b []byte, num protowire.Number, v bool) []byte {
	return AppendVarint(b, num, protowire.EncodeBool(v))
}

// AppendTime writes t as zigzag-encoded unix nanoseconds.
func AppendTime(b []byte, num protowire.Number, t time.Time) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(t.UnixNano()))
}

// Decoder walks the fields of a wire-format record.
//
//	d := storage.NewDecoder(raw)
//	for d.Next() {
//		switch d.Field() {
//		case 1:
//			id = d.String()
//		default:
//			d.Skip()
//		}
//	}
//	return d.Err()
type Decoder struct {
	b   []byte
	num protowire.Number
	typ protowire.Type
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

func (d *Decoder) Next() bool {
	if d.err != nil || len(d.b) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return false
	}
	d.b = d.b[n:]
	d.num, d.typ = num, typ
	return true
}

func (d *Decoder) Field() protowire.Number {
	return d.num
}

func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) Bytes() []byte {
	if !d.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return nil
	}
	d.b = d.b[n:]
	return append([]byte(nil), v...)
}

func (d *Decoder) String() string {
	return string(d.Bytes())
}

func (d *Decoder) Varint() uint64 {
	if !d.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return 0
	}
	d.b = d.b[n:]
	return v
}

func (d *Decoder) Bool() bool {
	return protowire.DecodeBool(d.Varint())
}

func (d *Decoder) Time() time.Time {
	return time.Unix(0, protowire.DecodeZigZag(d.Varint())).UTC()
}

// Skip discards the current field, which keeps records written by newer
// versions readable.
func (d *Decoder) Skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.b)
	if n < 0 {
		d.fail(protowire.ParseError(n))
		return
	}
	d.b = d.b[n:]
}

func (d *Decoder) expect(typ protowire.Type) bool {
	if d.err != nil {
		return false
	}
	if d.typ != typ {
		d.fail(fmt.Errorf("field %d: wire type %d, want %d", d.num, d.typ, typ))
		return false
	}
	return true
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %v", apperrors.ErrCorruptRecord, err)
	}
}
