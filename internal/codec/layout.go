package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MethodSelector computes the 8-byte instruction tag for a method name:
// the first 8 bytes of SHA-256("global:" + method).
func MethodSelector(method string) [8]byte {
	hash := sha256.Sum256([]byte("global:" + method))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

// AccountDiscriminator computes the 8-byte leading tag carried by every
// account record: the first 8 bytes of SHA-256("account:" + record).
func AccountDiscriminator(record string) [8]byte {
	hash := sha256.Sum256([]byte("account:" + record))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

// FieldKind enumerates the wire types a record field can have. All integers
// are little-endian; FieldString is a u32 length prefix followed by UTF-8
// bytes and may only appear as a trailing field.
type FieldKind int

const (
	FieldU8 FieldKind = iota
	FieldU64
	FieldI64
	FieldPubkey
	FieldString
)

func (k FieldKind) width() int {
	switch k {
	case FieldU8:
		return 1
	case FieldU64, FieldI64:
		return 8
	case FieldPubkey:
		return 32
	case FieldString:
		return 4 // length prefix; payload is variable
	default:
		panic(fmt.Sprintf("unknown field kind %d", k))
	}
}

// Field is one entry of a layout descriptor.
type Field struct {
	Name string
	Kind FieldKind
}

// Layout is a declarative record descriptor: an ordered field list consumed
// by one generic decode routine, replacing per-record offset arithmetic.
type Layout struct {
	Record        string
	Discriminator [8]byte
	Fields        []Field
}

func NewLayout(record string, fields ...Field) Layout {
	return Layout{
		Record:        record,
		Discriminator: AccountDiscriminator(record),
		Fields:        fields,
	}
}

// MinSize is the smallest buffer the layout can decode: discriminator plus
// the fixed width of every field (length prefix only for strings).
func (l Layout) MinSize() int {
	size := 8
	for _, f := range l.Fields {
		size += f.Kind.width()
	}
	return size
}

// MalformedAccountError reports a buffer that cannot hold the declared
// layout. Decoding never guesses missing fields.
type MalformedAccountError struct {
	Record string
	Got    int
	Want   int
	Reason string
}

func (e *MalformedAccountError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed %s account: %s (%d bytes, need %d)", e.Record, e.Reason, e.Got, e.Want)
	}
	return fmt.Sprintf("malformed %s account: %d bytes, need at least %d", e.Record, e.Got, e.Want)
}

// Values holds decoded fields by name. Getters panic on a missing name or a
// kind mismatch. Both are programming errors against a static layout, not
// runtime conditions.
type Values struct {
	m map[string]any
}

func NewValues() Values {
	return Values{m: make(map[string]any)}
}

func (v Values) Set(name string, value any) Values {
	v.m[name] = value
	return v
}

func (v Values) U8(name string) uint8 {
	return v.m[name].(uint8)
}

func (v Values) U64(name string) uint64 {
	return v.m[name].(uint64)
}

func (v Values) I64(name string) int64 {
	return v.m[name].(int64)
}

func (v Values) Pubkey(name string) solana.PublicKey {
	return v.m[name].(solana.PublicKey)
}

func (v Values) String(name string) string {
	return v.m[name].(string)
}

func (v Values) Bool(name string) bool {
	return v.m[name].(uint8) != 0
}

// Decode reads data against the layout: verify the leading discriminator,
// then read each field at its running offset.
func (l Layout) Decode(data []byte) (Values, error) {
	if len(data) < l.MinSize() {
		return Values{}, &MalformedAccountError{Record: l.Record, Got: len(data), Want: l.MinSize()}
	}
	for i := 0; i < 8; i++ {
		if data[i] != l.Discriminator[i] {
			return Values{}, &MalformedAccountError{
				Record: l.Record,
				Got:    len(data),
				Want:   l.MinSize(),
				Reason: "discriminator mismatch",
			}
		}
	}

	vals := NewValues()
	offset := 8
	for _, f := range l.Fields {
		switch f.Kind {
		case FieldU8:
			vals.Set(f.Name, data[offset])
			offset++
		case FieldU64:
			vals.Set(f.Name, binary.LittleEndian.Uint64(data[offset:offset+8]))
			offset += 8
		case FieldI64:
			vals.Set(f.Name, int64(binary.LittleEndian.Uint64(data[offset:offset+8])))
			offset += 8
		case FieldPubkey:
			vals.Set(f.Name, solana.PublicKeyFromBytes(data[offset:offset+32]))
			offset += 32
		case FieldString:
			strLen := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
			if len(data) < offset+strLen {
				return Values{}, &MalformedAccountError{
					Record: l.Record,
					Got:    len(data),
					Want:   offset + strLen,
					Reason: fmt.Sprintf("truncated string field %q", f.Name),
				}
			}
			vals.Set(f.Name, string(data[offset:offset+strLen]))
			offset += strLen
		}
	}
	return vals, nil
}

// Encode packs values in layout order, discriminator first. The inverse of
// Decode for every structurally valid record.
func (l Layout) Encode(vals Values) ([]byte, error) {
	buf := make([]byte, 0, l.MinSize())
	buf = append(buf, l.Discriminator[:]...)
	for _, f := range l.Fields {
		raw, ok := vals.m[f.Name]
		if !ok {
			return nil, fmt.Errorf("encode %s: missing field %q", l.Record, f.Name)
		}
		switch f.Kind {
		case FieldU8:
			buf = append(buf, raw.(uint8))
		case FieldU64:
			buf = binary.LittleEndian.AppendUint64(buf, raw.(uint64))
		case FieldI64:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(raw.(int64)))
		case FieldPubkey:
			key := raw.(solana.PublicKey)
			buf = append(buf, key[:]...)
		case FieldString:
			s := raw.(string)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
			buf = append(buf, s...)
		}
	}
	return buf, nil
}
