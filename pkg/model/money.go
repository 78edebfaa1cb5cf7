package model

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a fixed-point amount used for room prices, deposits and
// per-unit utility rates. Stored as BSON Decimal128.
type Money struct {
	decimal.Decimal
}

func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func MoneyFromInt(n int64) Money {
	return Money{Decimal: decimal.NewFromInt(n)}
}

func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode money %s: %w", m.Decimal, err)
	}
	return bson.MarshalValue(d128)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeDecimal128:
		var d128 primitive.Decimal128
		if err := bson.UnmarshalValue(t, data, &d128); err != nil {
			return fmt.Errorf("failed to decode money: %w", err)
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return fmt.Errorf("failed to parse money %s: %w", d128, err)
		}
		m.Decimal = d
		return nil
	case bson.TypeDouble:
		var f float64
		if err := bson.UnmarshalValue(t, data, &f); err != nil {
			return fmt.Errorf("failed to decode money: %w", err)
		}
		m.Decimal = decimal.NewFromFloat(f)
		return nil
	case bson.TypeString:
		var s string
		if err := bson.UnmarshalValue(t, data, &s); err != nil {
			return fmt.Errorf("failed to decode money: %w", err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("failed to parse money %q: %w", s, err)
		}
		m.Decimal = d
		return nil
	default:
		return fmt.Errorf("cannot decode money from BSON type %s", t)
	}
}
