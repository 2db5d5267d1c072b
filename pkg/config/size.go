package config

import "github.com/dustin/go-humanize"

// ByteSize unmarshals from either a human-friendly string ("64MB") or a
// bare integer byte count.
type ByteSize uint64

// UnmarshalYAML implements the YAML unmarshalling interface.
func (s *ByteSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err == nil {
		value, err := humanize.ParseBytes(text)
		if err != nil {
			return err
		}
		*s = ByteSize(value)
		return nil
	}

	var value uint64
	if err := unmarshal(&value); err != nil {
		return err
	}
	*s = ByteSize(value)
	return nil
}
