package qlinalg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// OpType tags the kind of an operation.
type OpType int

const (
	GATE OpType = iota
	MEASURE
	RESET
	CLASSIC
	CLASSICCTRL
	BREAK
)

var opTypeNames = map[OpType]string{
	GATE:        "GATE",
	MEASURE:     "MEASURE",
	RESET:       "RESET",
	CLASSIC:     "CLASSIC",
	CLASSICCTRL: "CLASSICCTRL",
	BREAK:       "BREAK",
}

func (t OpType) String() string {
	if name, ok := opTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OpType(%d)", int(t))
}

// ParseOpType is the inverse of OpType.String, ignoring case. Numeric tags
// are accepted as well.
func ParseOpType(s string) (OpType, error) {
	for t, name := range opTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := opTypeNames[OpType(n)]; ok {
			return OpType(n), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownOp, "%q", s)
}

func (t OpType) MarshalYAML() (any, error) {
	return t.String(), nil
}

func (t *OpType) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseOpType(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t OpType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the name of an op type or its numeric tag.
func (t *OpType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrapf(ErrUnknownOp, "%s", data)
		}
		name = strconv.Itoa(n)
	}

	parsed, err := ParseOpType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

/*
Op is one operation of a circuit. Gate names an entry of the circuit's gate
dictionary (GATE and CLASSICCTRL), Formula holds the classical formula
(CLASSIC and BREAK). For CLASSICCTRL, Cbits lists the controlling bits.
*/
type Op struct {
	Type    OpType `yaml:"type" json:"type"`
	Gate    string `yaml:"gate,omitempty" json:"gate,omitempty"`
	Qubits  []int  `yaml:"qubits,omitempty" json:"qubits,omitempty"`
	Cbits   []int  `yaml:"cbits,omitempty" json:"cbits,omitempty"`
	Formula string `yaml:"formula,omitempty" json:"formula,omitempty"`
}

// IsClassical reports whether the op depends on or produces classical
// information mid-circuit.
func (op Op) IsClassical() bool {
	return op.Type != GATE
}
