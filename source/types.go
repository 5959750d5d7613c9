package source

import "fmt"

type Kind uint8

const (
	KindStill Kind = iota
	KindAnimated
	KindStrip
	KindCart
)

func (k Kind) String() string {
	switch k {
	case KindStill:
		return "Kind(Still)"
	case KindAnimated:
		return "Kind(Animated)"
	case KindStrip:
		return "Kind(Strip)"
	case KindCart:
		return "Kind(Cart)"
	}
	return "Kind(UNKNOWN)"
}

var kindNames = map[Kind]string{
	KindStill:    "still",
	KindAnimated: "animated",
	KindStrip:    "strip",
	KindCart:     "cart",
}

// MarshalText renders k as its lower-case name, e.g. "animated".
func (k Kind) MarshalText() ([]byte, error) {
	if name, ok := kindNames[k]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown kind %d", uint8(k))
}
