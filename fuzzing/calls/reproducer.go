package calls

import (
	"github.com/crytic/medusa-geth/common"
	"github.com/fxamacker/cbor"
	"github.com/pkg/errors"
)

// reproducerVersion is the version of the reproducer encoding written by EncodeCallSequence.
const reproducerVersion = 1

// reproducer is the serialized form of a CallSequence.
type reproducer struct {
	Version  uint64               `cbor:"version"`
	Elements []reproducerElement `cbor:"elements"`
}

// reproducerElement is the serialized form of a CallSequenceElement. Methods and arguments are recovered from the
// calldata with CallSequence.Resolve.
type reproducerElement struct {
	Sender     []byte `cbor:"sender"`
	Target     []byte `cbor:"target"`
	TargetName string `cbor:"targetName"`
	Data       []byte `cbor:"data"`
}

// EncodeCallSequence serializes the senders, targets and calldata of a call sequence into CBOR.
func EncodeCallSequence(cs CallSequence) ([]byte, error) {
	r := reproducer{
		Version:  reproducerVersion,
		Elements: make([]reproducerElement, len(cs)),
	}
	for i, cse := range cs {
		r.Elements[i] = reproducerElement{
			Sender:     cse.Sender.Bytes(),
			Target:     cse.Target.Bytes(),
			TargetName: cse.TargetName,
			Data:       cse.Data,
		}
	}

	b, err := cbor.Marshal(r, cbor.EncOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "could not encode call sequence")
	}
	return b, nil
}

// DecodeCallSequence deserializes a call sequence written by EncodeCallSequence. The returned elements carry no
// Method or Args until the sequence is resolved.
func DecodeCallSequence(b []byte) (CallSequence, error) {
	var r reproducer
	if err := cbor.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "could not decode call sequence")
	}
	if r.Version != reproducerVersion {
		return nil, errors.Errorf("unsupported reproducer version %d", r.Version)
	}

	cs := make(CallSequence, len(r.Elements))
	for i, element := range r.Elements {
		if len(element.Sender) != common.AddressLength || len(element.Target) != common.AddressLength {
			return nil, errors.Errorf("call %d has a malformed sender or target address", i+1)
		}
		cs[i] = &CallSequenceElement{
			Sender:     common.BytesToAddress(element.Sender),
			Target:     common.BytesToAddress(element.Target),
			TargetName: element.TargetName,
			Data:       element.Data,
		}
	}
	return cs, nil
}
