// Package value implements Primitive (C2), FlowGrid's tagged-union leaf
// value type and its JSON codec.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags which alternative a Primitive holds.
type Kind uint8

const (
	KindBool Kind = iota
	KindI32
	KindU32
	KindF32
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF32:
		return "f32"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Primitive is a tagged union over {bool, i32, u32, f32, string}. The zero
// value is the bool primitive `false`.
type Primitive struct {
	kind Kind
	b    bool
	i32  int32
	u32  uint32
	f32  float32
	s    string
}

func Bool(v bool) Primitive     { return Primitive{kind: KindBool, b: v} }
func I32(v int32) Primitive     { return Primitive{kind: KindI32, i32: v} }
func U32(v uint32) Primitive    { return Primitive{kind: KindU32, u32: v} }
func F32(v float32) Primitive   { return Primitive{kind: KindF32, f32: v} }
func String(v string) Primitive { return Primitive{kind: KindString, s: v} }

func (p Primitive) Kind() Kind { return p.kind }

func (p Primitive) AsBool() (bool, bool)       { return p.b, p.kind == KindBool }
func (p Primitive) AsI32() (int32, bool)       { return p.i32, p.kind == KindI32 }
func (p Primitive) AsU32() (uint32, bool)      { return p.u32, p.kind == KindU32 }
func (p Primitive) AsF32() (float32, bool)     { return p.f32, p.kind == KindF32 }
func (p Primitive) AsString() (string, bool)   { return p.s, p.kind == KindString }

// Equal reports exact value equality within the same Kind. NaN equals NaN
// here (unlike IEEE754 ==), since Store/Patch equality must be reflexive
// for the create_patch(s, s).empty() invariant to hold.
func (p Primitive) Equal(other Primitive) bool {
	if p.kind != other.kind {
		return false
	}
	switch p.kind {
	case KindBool:
		return p.b == other.b
	case KindI32:
		return p.i32 == other.i32
	case KindU32:
		return p.u32 == other.u32
	case KindF32:
		if math.IsNaN(float64(p.f32)) && math.IsNaN(float64(other.f32)) {
			return true
		}
		return p.f32 == other.f32
	case KindString:
		return p.s == other.s
	}
	return false
}

func (p Primitive) String() string {
	switch p.kind {
	case KindBool:
		return strconv.FormatBool(p.b)
	case KindI32:
		return strconv.FormatInt(int64(p.i32), 10)
	case KindU32:
		return fmt.Sprintf("%#08X", p.u32)
	case KindF32:
		return strconv.FormatFloat(float64(p.f32), 'g', -1, 32)
	case KindString:
		return p.s
	}
	return ""
}

// ToJSON encodes a Primitive per C2's codec:
//   - u32 as an 8-digit, zero-padded, uppercase "0X"-prefixed hex string
//     (e.g. "0X0000002A"), confirmed against upstream PrimitiveJson.cpp's
//     std::format("{:#08X}", v);
//   - NaN float as the literal string "NaN"; +Inf/-Inf as "Inf"/"-Inf"
//     (a reasoned extension: upstream has no isinf handling at all, so
//     this is not a literal port, only a symmetric completion of the NaN
//     case);
//   - everything else (bool, i32, string, finite f32) as a native JSON
//     scalar.
func (p Primitive) ToJSON() ([]byte, error) {
	switch p.kind {
	case KindBool:
		if p.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindI32:
		return []byte(strconv.FormatInt(int64(p.i32), 10)), nil
	case KindU32:
		return []byte(`"` + fmt.Sprintf("0X%08X", p.u32) + `"`), nil
	case KindF32:
		f := float64(p.f32)
		switch {
		case math.IsNaN(f):
			return []byte(`"NaN"`), nil
		case math.IsInf(f, 1):
			return []byte(`"Inf"`), nil
		case math.IsInf(f, -1):
			return []byte(`"-Inf"`), nil
		default:
			return []byte(strconv.FormatFloat(f, 'g', -1, 32)), nil
		}
	case KindString:
		return jsonQuote(p.s), nil
	}
	return nil, fmt.Errorf("value: unknown primitive kind %v", p.kind)
}

// FromJSON decodes a single JSON scalar into a Primitive of the requested
// Kind, reversing ToJSON's encoding exactly (u32's "0X..." hex string,
// "NaN"/"Inf"/"-Inf" float sentinels, native bool/int/string).
func FromJSON(kind Kind, raw []byte) (Primitive, error) {
	switch kind {
	case KindBool:
		switch string(raw) {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Primitive{}, fmt.Errorf("value: invalid bool json %q", raw)
	case KindI32:
		n, err := strconv.ParseInt(string(raw), 10, 32)
		if err != nil {
			return Primitive{}, fmt.Errorf("value: invalid i32 json %q: %w", raw, err)
		}
		return I32(int32(n)), nil
	case KindU32:
		s, err := jsonUnquote(raw)
		if err != nil {
			return Primitive{}, fmt.Errorf("value: invalid u32 json %q: %w", raw, err)
		}
		if len(s) < 2 || (s[0:2] != "0X" && s[0:2] != "0x") {
			return Primitive{}, fmt.Errorf("value: u32 json %q missing 0X prefix", raw)
		}
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return Primitive{}, fmt.Errorf("value: invalid u32 hex %q: %w", s, err)
		}
		return U32(uint32(n)), nil
	case KindF32:
		if len(raw) > 0 && raw[0] == '"' {
			s, err := jsonUnquote(raw)
			if err != nil {
				return Primitive{}, err
			}
			switch s {
			case "NaN":
				return F32(float32(math.NaN())), nil
			case "Inf":
				return F32(float32(math.Inf(1))), nil
			case "-Inf":
				return F32(float32(math.Inf(-1))), nil
			}
			return Primitive{}, fmt.Errorf("value: unrecognized f32 string sentinel %q", s)
		}
		f, err := strconv.ParseFloat(string(raw), 32)
		if err != nil {
			return Primitive{}, fmt.Errorf("value: invalid f32 json %q: %w", raw, err)
		}
		return F32(float32(f)), nil
	case KindString:
		s, err := jsonUnquote(raw)
		if err != nil {
			return Primitive{}, err
		}
		return String(s), nil
	}
	return Primitive{}, fmt.Errorf("value: unknown kind %v", kind)
}

// MarshalJSON implements the self-describing {kind, value} wire form used
// wherever a Primitive's Kind is not already implied by context (the
// entries of a ".fls" snapshot): unlike upstream's std::variant, which carries its
// active alternative at runtime for free, Go's Primitive must spell its
// Kind out explicitly to round-trip without an external Field declaration
// to consult.
func (p Primitive) MarshalJSON() ([]byte, error) {
	v, err := p.ToJSON()
	if err != nil {
		return nil, err
	}
	wire := struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}{Kind: p.kind.String(), Value: v}
	return json.Marshal(wire)
}

// UnmarshalJSON reverses MarshalJSON.
func (p *Primitive) UnmarshalJSON(data []byte) error {
	var wire struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	kind, err := parseKind(wire.Kind)
	if err != nil {
		return err
	}
	decoded, err := FromJSON(kind, wire.Value)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return KindBool, nil
	case "i32":
		return KindI32, nil
	case "u32":
		return KindU32, nil
	case "f32":
		return KindF32, nil
	case "string":
		return KindString, nil
	}
	return 0, fmt.Errorf("value: unknown kind tag %q", s)
}

// jsonQuote/jsonUnquote escape and unescape a single JSON string token by
// hand, handling only \", \\, \n, \r and \t; Project I/O (C11) uses
// encoding/json for the enclosing object.
func jsonQuote(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return out
}

func jsonUnquote(raw []byte) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("value: expected quoted JSON string, got %q", raw)
	}
	inner := raw[1 : len(raw)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, inner[i])
			}
			continue
		}
		out = append(out, c)
	}
	return string(out), nil
}
