package ima_test

import (
	"strings"
	"testing"

	"ima"
)

func TestExecutionErrorRendering(t *testing.T) {
	instr := ima.Instruction{Op: ima.OpHalt}
	err := &ima.ExecutionError{Cause: ima.StackOverflow{}, Line: 4, Instruction: &instr}
	msg := err.Error()
	assert(t, strings.HasPrefix(msg, "[Ima Error]: Stack overflow"), "unexpected prefix: %s", msg)
	assert(t, strings.Contains(msg, "at line 4"), "expected line number in message: %s", msg)
}

func TestExecutionErrorRenderingWithoutInstruction(t *testing.T) {
	err := &ima.ExecutionError{Cause: ima.StackUnderflow{}}
	assert(t, err.Error() == "[Ima Error]: Stack underflow", "unexpected message: %s", err.Error())
}

func TestInvalidOperationMessageListsOperandTypes(t *testing.T) {
	op := ima.OperationType{Op: "Add", Operands: []ima.Kind{ima.KindInt, ima.KindFloat}}
	err := ima.InvalidOperation{Op: op}
	assert(t, err.Error() == "Invalid operation: Add with datatypes Int and Float", "unexpected message: %s", err.Error())
}
