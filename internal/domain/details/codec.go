package details

import (
	"bytes"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Spec is a node of the specifications tree. A node either carries a Value
// or groups Children; JSON object key order is preserved.
type Spec struct {
	Name     string
	Value    string
	Children []Spec
}

// IsGroup reports whether the node groups other specifications.
func (s Spec) IsGroup() bool {
	return len(s.Children) > 0
}

// DecodeSpecifications parses a JSON object of attribute names to values.
// Values may be nested objects (groups), arrays (joined with ", "), strings,
// numbers or booleans. Empty input and null decode to nil.
func DecodeSpecifications(data []byte) ([]Spec, error) {
	if isEmptyJSON(data) {
		return nil, nil
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return nil, errors.New("specifications: expected object")
	}
	specs, err := decodeSpecObject(d)
	if err != nil {
		return nil, errors.Wrap(err, "specifications")
	}
	return specs, nil
}

func decodeSpecObject(d *jx.Decoder) ([]Spec, error) {
	var specs []Spec
	err := d.Obj(func(d *jx.Decoder, key string) error {
		s, err := decodeSpecValue(d, key)
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		specs = append(specs, s)
		return nil
	})
	return specs, err
}

func decodeSpecValue(d *jx.Decoder, name string) (Spec, error) {
	s := Spec{Name: name}
	switch d.Next() {
	case jx.Object:
		children, err := decodeSpecObject(d)
		if err != nil {
			return s, err
		}
		s.Children = children
	case jx.Array:
		var parts []string
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeScalar(d)
			if err != nil {
				return err
			}
			if v != "" {
				parts = append(parts, v)
			}
			return nil
		}); err != nil {
			return s, err
		}
		s.Value = strings.Join(parts, ", ")
	default:
		v, err := decodeScalar(d)
		if err != nil {
			return s, err
		}
		s.Value = v
	}
	return s, nil
}

// decodeScalar reads a scalar as display text. Composite values inside arrays
// are kept as raw JSON.
func decodeScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return "", err
		}
		if b {
			return "Yes", nil
		}
		return "No", nil
	case jx.Null:
		return "", d.Null()
	default:
		raw, err := d.Raw()
		if err != nil {
			return "", err
		}
		return raw.String(), nil
	}
}

// EncodeSpecifications writes specs as a JSON object, mirroring
// DecodeSpecifications. Array values are written back as plain strings.
func EncodeSpecifications(e *jx.Encoder, specs []Spec) {
	e.ObjStart()
	for _, s := range specs {
		e.FieldStart(s.Name)
		if s.IsGroup() {
			EncodeSpecifications(e, s.Children)
			continue
		}
		e.Str(s.Value)
	}
	e.ObjEnd()
}

// DecodeFAQ parses a JSON array of {"question","answer"} objects. Entries
// without a question are dropped.
func DecodeFAQ(data []byte) ([]FAQ, error) {
	if isEmptyJSON(data) {
		return nil, nil
	}
	var out []FAQ
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var f FAQ
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "question":
				v, err := d.Str()
				f.Question = v
				return err
			case "answer":
				v, err := d.Str()
				f.Answer = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if strings.TrimSpace(f.Question) != "" {
			out = append(out, f)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "faq")
	}
	return out, nil
}

// EncodeFAQ writes faq as a JSON array.
func EncodeFAQ(e *jx.Encoder, faq []FAQ) {
	e.ArrStart()
	for _, f := range faq {
		e.ObjStart()
		e.FieldStart("question")
		e.Str(f.Question)
		e.FieldStart("answer")
		e.Str(f.Answer)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// DecodeBuyLinks parses a JSON array of {"retailer","url"} objects. Entries
// without a URL are dropped.
func DecodeBuyLinks(data []byte) ([]BuyLink, error) {
	if isEmptyJSON(data) {
		return nil, nil
	}
	var out []BuyLink
	d := jx.DecodeBytes(data)
	err := d.Arr(func(d *jx.Decoder) error {
		var l BuyLink
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "retailer":
				v, err := d.Str()
				l.Retailer = v
				return err
			case "url":
				v, err := d.Str()
				l.URL = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if strings.TrimSpace(l.URL) != "" {
			out = append(out, l)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "buy links")
	}
	return out, nil
}

// EncodeBuyLinks writes links as a JSON array.
func EncodeBuyLinks(e *jx.Encoder, links []BuyLink) {
	e.ArrStart()
	for _, l := range links {
		e.ObjStart()
		e.FieldStart("retailer")
		e.Str(l.Retailer)
		e.FieldStart("url")
		e.Str(l.URL)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// Marshal runs fn against a fresh encoder and returns the produced bytes.
func Marshal(fn func(e *jx.Encoder)) []byte {
	var e jx.Encoder
	fn(&e)
	return e.Bytes()
}

func isEmptyJSON(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}

// DecodeDetails parses one details document:
//
//	{"instrumentId": "...", "specifications": {...}, "faq": [...], "buyLinks": [...]}
//
// It is the format of seed files and bulk exports.
func DecodeDetails(data []byte) (Details, error) {
	var out Details
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key == "instrumentId" {
			v, err := d.Str()
			out.InstrumentID = v
			return err
		}
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		switch key {
		case "specifications":
			out.Specifications, err = DecodeSpecifications(raw)
		case "faq":
			out.FAQ, err = DecodeFAQ(raw)
		case "buyLinks":
			out.BuyLinks, err = DecodeBuyLinks(raw)
		}
		return err
	})
	if err != nil {
		return Details{}, errors.Wrap(err, "decode details")
	}
	if strings.TrimSpace(out.InstrumentID) == "" {
		return Details{}, errors.New("decode details: missing instrumentId")
	}
	return out, nil
}
