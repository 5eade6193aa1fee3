// Package caster converts values to and from the text payloads stored in the
// response cache and sent over the websocket.
package caster

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type Caster[T any] interface {
	From(string) (T, error)
	To(T) (string, error)
}

type JSONCaster[T any] struct{}

func (jc JSONCaster[T]) From(data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, errors.Wrap(err, "caster: decoding json")
	}
	return v, nil
}

func (jc JSONCaster[T]) To(v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "caster: encoding json")
	}
	return string(data), nil
}
