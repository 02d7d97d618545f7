package common

import (
	"encoding"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// textHook runs UnmarshalText when a string is decoded into any target
// whose pointer type implements encoding.TextUnmarshaler.
func textHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if !reflect.PointerTo(to).Implements(textUnmarshalerType) {
		return data, nil
	}
	text, isString := data.(string)
	if !isString {
		return data, nil
	}

	target := reflect.New(to).Interface().(encoding.TextUnmarshaler)
	if err := target.UnmarshalText([]byte(text)); err != nil {
		return nil, err
	}
	return target, nil
}

// WeakDecodeMap decodes a free-form config map into output. Enum, address
// and duration fields decode through their UnmarshalText.
func WeakDecodeMap(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     output,
		DecodeHook: textHook,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
