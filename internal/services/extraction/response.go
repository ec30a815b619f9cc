package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// itemDTO is one element of the model's JSON array. Every field decodes leniently
// so a single malformed field never costs the whole item.
type itemDTO struct {
	Number       flexInt     `json:"number"`
	Type         flexString  `json:"type"`
	Content      flexString  `json:"content"`
	Options      flexStrings `json:"options"`
	Answer       flexString  `json:"answer"`
	Chapter      flexString  `json:"chapter"`
	QuestionBox  flexBox     `json:"full_question_box_2d"`
	DiagramBox   flexBox     `json:"box_2d"`
	PageIndex    flexInt     `json:"page_index"`
	SubQuestions rawList     `json:"sub_questions"`
}

// itemFields holds the values that carry structural constraints
type itemFields struct {
	Number      int   `validate:"gte=0,lte=999"`
	QuestionBox []int `validate:"omitempty,len=4,dive,gte=-1000,lte=2000"`
	DiagramBox  []int `validate:"omitempty,len=4,dive,gte=-1000,lte=2000"`
}

// validated returns the constrained fields with every invalid one reset
func (d *itemDTO) validated() itemFields {
	f := itemFields{
		Number:      d.Number.value,
		QuestionBox: d.QuestionBox.values,
		DiagramBox:  d.DiagramBox.values,
	}
	err := validate.Struct(&f)
	if err == nil {
		return f
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return itemFields{}
	}
	for _, fe := range verrs {
		switch {
		case fe.StructField() == "Number":
			f.Number = 0
		case strings.HasPrefix(fe.StructField(), "QuestionBox"):
			f.QuestionBox = nil
		case strings.HasPrefix(fe.StructField(), "DiagramBox"):
			f.DiagramBox = nil
		}
	}
	return f
}

// decodeResponse isolates the JSON payload of a model response and splits it
// into raw items. A lone object becomes a one-element list.
func decodeResponse(text string) ([]json.RawMessage, error) {
	payload := cleanJSON(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON found", ErrInvalidResponse)
	}

	if payload[0] == '{' {
		var obj json.RawMessage
		if err := json.Unmarshal([]byte(payload), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return []json.RawMessage{obj}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return items, nil
}

// cleanJSON strips markdown fences and any prose around the outermost array,
// or around a single object when no array encloses it
func cleanJSON(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	arrStart := strings.Index(text, "[")
	objStart := strings.Index(text, "{")
	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return strings.TrimSpace(text[objStart : end+1])
		}
	}
	if arrStart >= 0 {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return strings.TrimSpace(text[arrStart : end+1])
		}
	}
	return strings.TrimSpace(text)
}

// flexInt accepts numbers and numeric strings; anything else leaves ok false
type flexInt struct {
	value  int
	ok     bool
	quoted bool // came from a JSON string
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = flexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
		f.quoted = true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return nil
	}
	f.value = int(v)
	f.ok = true
	return nil
}

// integer reports the value only when the JSON held an unquoted integral number
func (f flexInt) integer() (int, bool) {
	return f.value, f.ok && !f.quoted
}

// flexString accepts strings, numbers and arrays of strings (joined)
type flexString struct {
	value string
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	f.value = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			f.value = s
		}
	case '[':
		var parts []flexString
		if err := json.Unmarshal(data, &parts); err == nil {
			var b strings.Builder
			for _, p := range parts {
				b.WriteString(p.value)
			}
			f.value = b.String()
		}
	case '{':
		// objects carry no usable text
	default:
		f.value = string(data)
	}
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(f.value)
}

// flexStrings accepts an array of strings or a single string
type flexStrings struct {
	values []string
}

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	f.values = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '[' {
		var parts []flexString
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil
		}
		for _, p := range parts {
			f.values = append(f.values, p.value)
		}
		return nil
	}

	var single flexString
	if err := single.UnmarshalJSON(data); err == nil && single.String() != "" {
		f.values = []string{single.value}
	}
	return nil
}

// flexBox decodes a coordinate list; non-numeric entries invalidate the whole box
type flexBox struct {
	values []int
}

func (f *flexBox) UnmarshalJSON(data []byte) error {
	f.values = nil
	var raw []flexFloat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	values := make([]int, 0, len(raw))
	for _, r := range raw {
		if !r.ok {
			return nil
		}
		values = append(values, int(math.Round(r.value)))
	}
	f.values = values
	return nil
}

type flexFloat struct {
	value float64
	ok    bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	*f = flexFloat{}
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.value = v
	f.ok = true
	return nil
}

// rawList keeps sub-question elements raw; a non-array value decodes to empty
type rawList []json.RawMessage

func (r *rawList) UnmarshalJSON(data []byte) error {
	*r = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	*r = items
	return nil
}
