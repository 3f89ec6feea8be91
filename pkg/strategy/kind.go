package strategy

import "fmt"

// Kind identifies one processing algorithm. The set is closed.
type Kind int

const (
	KindDefault Kind = iota
	KindMessage
	KindModal
	KindPage
	KindIcon
	KindClickableCardWithTooltip
	KindDefaultUsageExample
)

var kindNames = map[Kind]string{
	KindDefault:                  "default",
	KindMessage:                  "message",
	KindModal:                    "modal",
	KindPage:                     "page",
	KindIcon:                     "icon",
	KindClickableCardWithTooltip: "clickable-card-with-tooltip",
	KindDefaultUsageExample:      "default-usage-example",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a kind name back into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindDefault, fmt.Errorf("unknown strategy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown strategy kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so kinds can be named in YAML.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Usage reports whether the kind processes usage-example pages.
func (k Kind) Usage() bool {
	return k == KindDefaultUsageExample || k == KindClickableCardWithTooltip
}
