package lens

import (
	"errors"
	"reflect"
	"time"

	"github.com/roach88/reclens/codec"
)

type RegularClass struct {
	Prop1 string `json:"prop1"`
}

type RegularClass2 struct {
	Prop1 string `json:"prop1"`
	Prop2 int    `json:"prop2"`
}

type ClassWithCodecProperty struct {
	Prop1 int       `json:"prop1" lens:",codec=int42"`
	Prop2 []float64 `json:"prop2" lens:",optional"`
}

type ClassWithSerialNameProperty struct {
	Prop1 int    `json:"prop1"`
	Prop2 string `json:"serial2"`
}

type ClassWithDataclassMember struct {
	Prop1 int          `json:"prop1"`
	Prop2 RegularClass `json:"prop2"`
}

type ClassWithNullableMember struct {
	Prop1 *float64 `json:"prop1"`
}

type Nested struct {
	Prop1 int     `json:"prop1"`
	Prop2 float64 `json:"prop2"`
}

type ClassWithNullableNestedMember struct {
	Prop1 *Nested `json:"prop1"`
	Prop2 string  `json:"prop2"`
}

type ClassWithTransientProperty struct {
	Prop1 int    `json:"prop1"`
	Prop2 string `json:"-"`
}

type ClassWithCollections struct {
	Tags   []string          `json:"tags"`
	Counts map[string]int    `json:"counts"`
	When   time.Time         `json:"when"`
	Extra  map[string]string `json:"extra" lens:",optional"`
}

type Box[T any] struct {
	Elem T `json:"elem"`
}

type ClassWithLensProperty struct {
	PM Lens[RegularClass] `json:"pm"`
}

type ClassWithMapProperty struct {
	PM *Map `json:"pm"`
}

type WithOptional struct {
	P1 string `json:"p1" default:"a"`
	P2 int    `json:"p2"`
}

type Rejectable struct {
	P1WithSpaces string `json:"p1 abc"`
	P2           int    `json:"p2"`
}

var errNotPositive = errors.New("a must be positive")

type ThrowsInValidate struct {
	A int `json:"a"`
}

func (v ThrowsInValidate) Validate() error {
	if v.A <= 0 {
		return errNotPositive
	}
	return nil
}

type HoldsValidated struct {
	Inner *ThrowsInValidate `json:"inner"`
}

type TestCasefold struct {
	TheProp string       `json:"theProp"`
	Inner   RegularClass `json:"inner"`
}

type TestCasefoldReject struct {
	TheProp string `json:"theProp"`
	THeProp string `json:"tHeProp"`
}

type LinkedNode struct {
	Value int         `json:"value"`
	Next  *LinkedNode `json:"next"`
}

// int42 writes and reads the constant 42 regardless of the value.
type int42 struct{}

func (int42) Encode(enc codec.Encoder, _ any) error {
	return enc.EncodeValue(42)
}

func (int42) Decode(dec codec.Decoder) (any, error) {
	if _, err := dec.DecodeValue(reflect.TypeFor[int]()); err != nil {
		return nil, err
	}
	return 42, nil
}

func init() {
	codec.Register("int42", int42{})
}

func ptr[T any](v T) *T { return &v }
