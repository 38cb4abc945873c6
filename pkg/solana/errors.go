package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey names a transaction level failure reported by a node.
// Only the keys this client reacts to are declared; any other key is kept
// verbatim.
type TransactionErrorKey string

const (
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorAlreadyProcessed        TransactionErrorKey = "AlreadyProcessed"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %#x", int(c))
}

// InstructionError is the failure of the instruction at Index. Err is a
// CustomError for program defined failures, and carries the runtime's error
// name otherwise.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("error processing instruction %d: %v", i.Index, i.Err)
}

// TransactionError is a transaction rejected in preflight or failed on
// chain.
type TransactionError struct {
	Key         TransactionErrorKey
	Instruction *InstructionError
}

// NewTransactionError returns a transaction level error.
func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{Key: key}
}

// NewInstructionError returns the error of a transaction whose instruction at
// index failed with err.
func NewInstructionError(index int, err error) *TransactionError {
	return &TransactionError{
		Key:         TransactionErrorInstructionError,
		Instruction: &InstructionError{Index: index, Err: err},
	}
}

func (t TransactionError) Error() string {
	if t.Instruction != nil {
		return t.Instruction.Error()
	}
	return string(t.Key)
}

// CustomErrorCode returns the program specific error code when the failure
// was a custom instruction error, along with the failing instruction index.
func (t TransactionError) CustomErrorCode() (code int, index int, ok bool) {
	if t.Instruction == nil {
		return 0, 0, false
	}

	custom, ok := t.Instruction.Err.(CustomError)
	if !ok {
		return 0, 0, false
	}
	return int(custom), t.Instruction.Index, true
}

// IsBlockhashExpired reports whether the node refused the transaction because
// its recent blockhash is unknown or too old.
func (t TransactionError) IsBlockhashExpired() bool {
	return t.Key == TransactionErrorBlockhashNotFound
}

// ParseRPCError extracts the transaction error a node attaches to a failed
// sendTransaction call. It returns nil when the RPC error carries none.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected map type")
	}

	if raw, ok := data["err"]; ok && raw != nil {
		return ParseTransactionError(raw)
	}
	return nil, nil
}

// ParseTransactionError parses the decoded JSON "err" value of a transaction.
// It is either a bare key or a single entry object keyed by the error name.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return NewTransactionError(TransactionErrorKey(t)), nil
	case map[string]interface{}:
		if len(t) != 1 {
			return nil, errors.Errorf("invalid transaction error size: %d", len(t))
		}

		for key, value := range t {
			if TransactionErrorKey(key) != TransactionErrorInstructionError {
				return NewTransactionError(TransactionErrorKey(key)), nil
			}

			index, err := parseInstructionError(value)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse instruction error")
			}
			return &TransactionError{Key: TransactionErrorInstructionError, Instruction: index}, nil
		}
	}
	return nil, errors.Errorf("unhandled transaction error type %T", raw)
}

// parseInstructionError parses the [index, error] tuple of an instruction
// error, where error is a name or a single entry object such as {"Custom": 1}.
func parseInstructionError(raw interface{}) (*InstructionError, error) {
	tuple, ok := raw.([]interface{})
	if !ok || len(tuple) != 2 {
		return nil, errors.New("expected an [index, error] tuple")
	}

	index, err := parseJSONNumber(tuple[0])
	if err != nil {
		return nil, err
	}

	switch t := tuple[1].(type) {
	case string:
		return &InstructionError{Index: index, Err: errors.New(t)}, nil
	case map[string]interface{}:
		if len(t) != 1 {
			return nil, errors.Errorf("invalid instruction error size: %d", len(t))
		}
		for key, value := range t {
			if key != "Custom" {
				return &InstructionError{Index: index, Err: errors.New(key)}, nil
			}

			code, err := parseJSONNumber(value)
			if err != nil {
				return nil, err
			}
			return &InstructionError{Index: index, Err: CustomError(code)}, nil
		}
	}
	return nil, errors.Errorf("unhandled instruction error type %T", tuple[1])
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non integer value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	}
	return 0, errors.Errorf("non numeric value: %v", v)
}
