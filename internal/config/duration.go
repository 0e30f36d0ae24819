package config

import "time"

// Duration wraps time.Duration so config files and environment variables can
// use values like "5m" or "90s". Both toml and envconfig go through the
// encoding.Text interfaces.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
