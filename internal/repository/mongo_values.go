package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// looseNumber decodes a numeric field that older clients stored either as a
// BSON number or as the text of a form input ("5000", " 2.5 "). Text that is
// not a number decodes as absent.
type looseNumber struct {
	value   float64
	valid   bool
	integer bool
}

func numberFromFloat(f *float64) looseNumber {
	if f == nil {
		return looseNumber{}
	}
	return looseNumber{value: *f, valid: true}
}

func numberFromInt(n int) looseNumber {
	return looseNumber{value: float64(n), valid: true, integer: true}
}

// Float returns the value, nil when absent.
func (n looseNumber) Float() *float64 {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}

// Int returns the value truncated towards zero, 0 when absent.
func (n looseNumber) Int() int {
	if !n.valid {
		return 0
	}
	return int(n.value)
}

// IsZero lets omitempty drop absent values.
func (n looseNumber) IsZero() bool { return !n.valid }

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (n *looseNumber) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*n = looseNumber{}
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.Double:
		n.set(v.Double())
	case bsontype.Int32:
		n.set(float64(v.Int32()))
		n.integer = true
	case bsontype.Int64:
		n.set(float64(v.Int64()))
		n.integer = true
	case bsontype.Decimal128:
		if f, err := strconv.ParseFloat(v.Decimal128().String(), 64); err == nil {
			n.set(f)
		}
	case bsontype.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.StringValue()), 64); err == nil {
			n.set(f)
		}
	default:
		return fmt.Errorf("cannot decode %s as a number", t)
	}
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (n looseNumber) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case !n.valid:
		return bsontype.Null, nil, nil
	case n.integer && n.value >= math.MinInt32 && n.value <= math.MaxInt32:
		return bsontype.Int32, bsoncore.AppendInt32(nil, int32(n.value)), nil
	case n.integer:
		return bsontype.Int64, bsoncore.AppendInt64(nil, int64(n.value)), nil
	default:
		return bsontype.Double, bsoncore.AppendDouble(nil, n.value), nil
	}
}

func (n *looseNumber) set(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	n.value = f
	n.valid = true
}

// looseString decodes a text field that may have been stored as a number,
// such as a phone number typed into a numeric keypad field.
type looseString string

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (s *looseString) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = ""
	case bsontype.String:
		*s = looseString(v.StringValue())
	case bsontype.Int32:
		*s = looseString(strconv.FormatInt(int64(v.Int32()), 10))
	case bsontype.Int64:
		*s = looseString(strconv.FormatInt(v.Int64(), 10))
	case bsontype.Double:
		*s = looseString(strconv.FormatFloat(v.Double(), 'f', -1, 64))
	case bsontype.Decimal128:
		*s = looseString(v.Decimal128().String())
	default:
		return fmt.Errorf("cannot decode %s as text", t)
	}
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (s looseString) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.String, bsoncore.AppendString(nil, string(s)), nil
}
