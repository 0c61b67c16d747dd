package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrBadDuration is returned for strings outside the "[<d> days, ]H:M:S[.f]"
// grammar.
var ErrBadDuration = errors.New("malformed duration")

var durationRe = regexp.MustCompile(`^(?:(\d+) days?, )?(\d+):(\d+):(\d+(?:\.\d*)?)$`)

// ParseDuration parses "[<d> days, ]H:M:S[.fraction]".
func ParseDuration(s string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	var fields [3]int64
	for k, raw := range m[1:4] {
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		fields[k] = v
	}
	days, hours, minutes := fields[0], fields[1], fields[2]
	seconds, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	secs := float64(days)*86400 + float64(hours)*3600 + float64(minutes)*60 + seconds
	if secs*float64(time.Second) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q out of range", ErrBadDuration, s)
	}
	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(math.Round(seconds*float64(time.Second)))
	return total, nil
}

// FormatDuration rounds d up to whole seconds and renders it as H:M:S.
// Hours are not folded into days.
func FormatDuration(d time.Duration) string {
	s := int64(math.Ceil(d.Seconds()))
	h := s / 3600
	s -= h * 3600
	m := s / 60
	s -= m * 60
	return fmt.Sprintf("%d:%d:%d", h, m, s)
}

// Duration is a time.Duration persisted in the H:M:S form.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return FormatDuration(time.Duration(d)) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDuration(time.Duration(d)))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrBadDuration, b)
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return FormatDuration(time.Duration(d)), nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrBadDuration, err)
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(FormatDuration(time.Duration(d))), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
