package ir

import (
	"bytes"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing and golden
// snapshots.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping and no U+2028/U+2029 escaping
//  3. Strings are NFC normalised
//  4. Only Value types (and string/int/int64/bool) are accepted
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Str:
		writeCanonicalString(buf, string(val))
	case string:
		writeCanonicalString(buf, val)
	case Int:
		fmt.Fprintf(buf, "%d", int64(val))
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case Bool:
		writeBool(buf, bool(val))
	case bool:
		writeBool(buf, val)
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v (quantise first)", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteString("true")
		return
	}
	buf.WriteString("false")
}

// writeCanonicalString escapes only what RFC 8785 requires: the quote,
// the backslash and control characters below U+0020.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			// Invalid UTF-8 decodes to RuneError and is written as U+FFFD.
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// CanonicalVec quantises a vector.
func CanonicalVec(v Vec3) List {
	return Ints(Quantize(v[0]), Quantize(v[1]), Quantize(v[2]))
}

// CanonicalQuat quantises a quaternion and picks the sign with w >= 0
// (first non-zero of w, x, y, z positive). The sign choice runs on the
// quantised integers so numerical noise around zero cannot flip it.
func CanonicalQuat(q Quat) List {
	qi := [4]int64{Quantize(q[0]), Quantize(q[1]), Quantize(q[2]), Quantize(q[3])}
	for _, i := range [4]int{3, 0, 1, 2} {
		if qi[i] > 0 {
			break
		}
		if qi[i] < 0 {
			for j := range qi {
				qi[j] = -qi[j]
			}
			break
		}
	}
	return Ints(qi[0], qi[1], qi[2], qi[3])
}

// CanonicalTransform converts a transform to its canonical value.
func CanonicalTransform(t Transform) Map {
	return Map{
		"translation": CanonicalVec(t.Translation),
		"rotation":    CanonicalQuat(t.Rotation),
	}
}

// CanonicalPose converts a pose to its canonical value.
func CanonicalPose(p Pose) Map {
	out := make(Map, len(p))
	for name, t := range p {
		out[name] = CanonicalTransform(t)
	}
	return out
}

// CanonicalValue converts the animation to its canonical value. The name is
// excluded: two animations with identical motion share a content ID.
func (a *Animation) CanonicalValue() Map {
	poses := make(List, len(a.Poses))
	for i, p := range a.Poses {
		poses[i] = CanonicalPose(p)
	}
	return Map{
		"frame_start": Int(a.FrameStart),
		"frame_end":   Int(a.FrameEnd),
		"poses":       poses,
	}
}

// CanonicalValue converts the skeleton to its canonical value, bones in
// declaration order.
func (s *Skeleton) CanonicalValue() Map {
	bones := make(List, len(s.Bones))
	for i, b := range s.Bones {
		bones[i] = Map{
			"name":   Str(b.Name),
			"parent": Str(b.Parent),
			"rest":   CanonicalTransform(b.Rest),
		}
	}
	return Map{
		"name":  Str(s.Name),
		"bones": bones,
	}
}
