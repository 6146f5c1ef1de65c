package valuegeneration

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/common/hexutil"
	"github.com/crytic/tenet/utils"
	"github.com/pkg/errors"
)

// GenerateAbiValue generates a value of the provided abi.Type using the provided ValueGenerator. Integers of 8, 16,
// 32 and 64 bits are returned as native Go integers and wider ones as *big.Int, matching what abi.Arguments.Pack
// expects. Arrays, slices and tuples are generated recursively per element or field.
// Returns the generated value, or an error if the type is unsupported or a generated integer does not fit its type.
func GenerateAbiValue(generator ValueGenerator, inputType *abi.Type) (any, error) {
	switch inputType.T {
	case abi.AddressTy:
		return generator.GenerateAddress(), nil
	case abi.UintTy, abi.IntTy:
		signed := inputType.T == abi.IntTy
		return integerToAbiValue(generator.GenerateInteger(signed, inputType.Size), signed, inputType.Size)
	case abi.BoolTy:
		return generator.GenerateBool(), nil
	case abi.StringTy:
		return generator.GenerateString(), nil
	case abi.BytesTy:
		return generator.GenerateBytes(), nil
	case abi.FixedBytesTy:
		// Fixed bytes are arrays, which can only be created for a dynamic size through reflection
		generated := generator.GenerateFixedBytes(inputType.Size)
		if len(generated) != inputType.Size {
			return nil, errors.Errorf("generated %d bytes for %v", len(generated), inputType.String())
		}
		array := reflect.Indirect(reflect.New(inputType.GetType()))
		reflect.Copy(array, reflect.ValueOf(generated))
		return array.Interface(), nil
	case abi.ArrayTy:
		array := reflect.Indirect(reflect.New(inputType.GetType()))
		for i := 0; i < array.Len(); i++ {
			element, err := GenerateAbiValue(generator, inputType.Elem)
			if err != nil {
				return nil, err
			}
			array.Index(i).Set(reflect.ValueOf(element))
		}
		return array.Interface(), nil
	case abi.SliceTy:
		length := generator.GenerateArrayLength()
		slice := reflect.MakeSlice(inputType.GetType(), length, length)
		for i := 0; i < length; i++ {
			element, err := GenerateAbiValue(generator, inputType.Elem)
			if err != nil {
				return nil, err
			}
			slice.Index(i).Set(reflect.ValueOf(element))
		}
		return slice.Interface(), nil
	case abi.TupleTy:
		// Tuples are structs created through reflection, with fields in component order
		st := reflect.Indirect(reflect.New(inputType.GetType()))
		for i, elem := range inputType.TupleElems {
			field, err := GenerateAbiValue(generator, elem)
			if err != nil {
				return nil, err
			}
			st.Field(i).Set(reflect.ValueOf(field))
		}
		return st.Interface(), nil
	}

	// Mappings cannot appear in external signatures and fixed point types are unsupported
	return nil, errors.Errorf("attempt to generate function argument of unsupported type: '%s'", inputType.String())
}

// integerToAbiValue converts b to the Go representation of an ABI integer of the given signedness and size.
// Returns an error if b does not fit in the type.
func integerToAbiValue(b *big.Int, signed bool, size int) (any, error) {
	min, max := utils.GetIntegerConstraints(signed, size)
	if b == nil || b.Cmp(min) < 0 || b.Cmp(max) > 0 {
		kind := "uint"
		if signed {
			kind = "int"
		}
		return nil, errors.Errorf("generated integer %v does not fit %s%d", b, kind, size)
	}

	if signed {
		switch size {
		case 8:
			return int8(b.Int64()), nil
		case 16:
			return int16(b.Int64()), nil
		case 32:
			return int32(b.Int64()), nil
		case 64:
			return b.Int64(), nil
		}
	} else {
		switch size {
		case 8:
			return uint8(b.Uint64()), nil
		case 16:
			return uint16(b.Uint64()), nil
		case 32:
			return uint32(b.Uint64()), nil
		case 64:
			return b.Uint64(), nil
		}
	}
	return new(big.Int).Set(b), nil
}

// abiValueToInteger converts a Go representation of an ABI integer to a big.Int.
func abiValueToInteger(value any) (*big.Int, error) {
	switch v := value.(type) {
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case *big.Int:
		return new(big.Int).Set(v), nil
	}
	return nil, errors.Errorf("value of type %T is not an ABI integer", value)
}

// MutateAbiValue mutates a value of the provided abi.Type using the provided ValueMutator, recursing into arrays,
// slices and tuples. The input is not modified.
// Returns the mutated value, or an error if the value does not match its type.
func MutateAbiValue(mutator ValueMutator, inputType *abi.Type, value any) (any, error) {
	switch inputType.T {
	case abi.AddressTy:
		addr, ok := value.(common.Address)
		if !ok {
			return nil, errors.Errorf("expected address, got %T", value)
		}
		return mutator.MutateAddress(addr), nil
	case abi.UintTy, abi.IntTy:
		b, err := abiValueToInteger(value)
		if err != nil {
			return nil, err
		}
		signed := inputType.T == abi.IntTy
		return integerToAbiValue(mutator.MutateInteger(b, signed, inputType.Size), signed, inputType.Size)
	case abi.BoolTy:
		bl, ok := value.(bool)
		if !ok {
			return nil, errors.Errorf("expected bool, got %T", value)
		}
		return mutator.MutateBool(bl), nil
	case abi.StringTy:
		s, ok := value.(string)
		if !ok {
			return nil, errors.Errorf("expected string, got %T", value)
		}
		return mutator.MutateString(s), nil
	case abi.BytesTy:
		b, ok := value.([]byte)
		if !ok {
			return nil, errors.Errorf("expected bytes, got %T", value)
		}
		return mutator.MutateBytes(append([]byte(nil), b...)), nil
	case abi.FixedBytesTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() != reflect.Array || reflected.Len() != inputType.Size {
			return nil, errors.Errorf("expected bytes%d, got %T", inputType.Size, value)
		}
		b := make([]byte, inputType.Size)
		reflect.Copy(reflect.ValueOf(b), reflected)
		mutated := mutator.MutateFixedBytes(b)
		array := reflect.Indirect(reflect.New(inputType.GetType()))
		reflect.Copy(array, reflect.ValueOf(mutated))
		return array.Interface(), nil
	case abi.ArrayTy, abi.SliceTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() != reflect.Array && reflected.Kind() != reflect.Slice {
			return nil, errors.Errorf("expected %v, got %T", inputType.String(), value)
		}
		var out reflect.Value
		if inputType.T == abi.ArrayTy {
			out = reflect.Indirect(reflect.New(inputType.GetType()))
		} else {
			out = reflect.MakeSlice(inputType.GetType(), reflected.Len(), reflected.Len())
		}
		for i := 0; i < reflected.Len(); i++ {
			element, err := MutateAbiValue(mutator, inputType.Elem, reflected.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out.Index(i).Set(reflect.ValueOf(element))
		}
		return out.Interface(), nil
	case abi.TupleTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() != reflect.Struct || reflected.NumField() != len(inputType.TupleElems) {
			return nil, errors.Errorf("expected %v, got %T", inputType.String(), value)
		}
		st := reflect.Indirect(reflect.New(inputType.GetType()))
		for i, elem := range inputType.TupleElems {
			field, err := MutateAbiValue(mutator, elem, reflected.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			st.Field(i).Set(reflect.ValueOf(field))
		}
		return st.Interface(), nil
	}
	return nil, errors.Errorf("attempt to mutate function argument of unsupported type: '%s'", inputType.String())
}

// FormatAbiValue renders a value of the provided abi.Type the way it would be written in a Solidity call.
func FormatAbiValue(inputType *abi.Type, value any) string {
	switch inputType.T {
	case abi.StringTy:
		return fmt.Sprintf("%q", value)
	case abi.BytesTy:
		if b, ok := value.([]byte); ok {
			return hexutil.Encode(b)
		}
	case abi.FixedBytesTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() == reflect.Array {
			b := make([]byte, reflected.Len())
			reflect.Copy(reflect.ValueOf(b), reflected)
			return hexutil.Encode(b)
		}
	case abi.AddressTy:
		if addr, ok := value.(common.Address); ok {
			return addr.String()
		}
	case abi.ArrayTy, abi.SliceTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() == reflect.Array || reflected.Kind() == reflect.Slice {
			elements := make([]string, reflected.Len())
			for i := range elements {
				elements[i] = FormatAbiValue(inputType.Elem, reflected.Index(i).Interface())
			}
			return "[" + strings.Join(elements, ", ") + "]"
		}
	case abi.TupleTy:
		reflected := reflect.ValueOf(value)
		if reflected.Kind() == reflect.Struct && reflected.NumField() == len(inputType.TupleElems) {
			fields := make([]string, len(inputType.TupleElems))
			for i, elem := range inputType.TupleElems {
				fields[i] = FormatAbiValue(elem, reflected.Field(i).Interface())
			}
			return "(" + strings.Join(fields, ", ") + ")"
		}
	}
	return fmt.Sprintf("%v", value)
}
