package config

import "time"

// Duration unmarshals from a human-friendly Go duration string ("5m",
// "30s"), the same way ByteSize accepts a human-friendly byte count,
// rather than the bare integer nanosecond count time.Duration decodes to
// by default.
type Duration time.Duration

// UnmarshalYAML implements the YAML unmarshalling interface.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// AsDuration converts to a time.Duration for use by the rest of the
// module.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}
