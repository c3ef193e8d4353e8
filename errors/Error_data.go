package errors

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

const dataKeyIndex = "index"

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

// Error returns a string representation of the error data.
func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

// SetData sets a key-value pair in the error data.
func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

// GetData retrieves the value associated with a key in the error data.
func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

// EncodeErrorData encodes the error data to JSON.
func (e *ErrData) EncodeErrorData() []byte {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// GetErrorData unmarshals error data previously produced by EncodeErrorData.
func GetErrorData(dataBytes []byte) (ErrDataI, error) {
	errData := &ErrData{}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(dataBytes, errData); err != nil {
		return errData, err
	}

	return errData, nil
}

// IndexOf returns the batch index recorded on the first *Error in the chain that carries one.
func IndexOf(err error) (int, bool) {
	for err != nil {
		castedErr, ok := err.(*Error)
		if !ok {
			return 0, false
		}

		switch v := castedErr.GetData(dataKeyIndex).(type) {
		case int:
			return v, true
		case float64:
			// decoded from JSON
			return int(v), true
		}

		err = castedErr.wrappedErr
	}

	return 0, false
}
