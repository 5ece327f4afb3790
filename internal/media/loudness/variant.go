package loudness

import (
	"fmt"
	"strconv"
	"strings"
)

type variantKind uint8

const (
	kindOriginal variantKind = iota
	kindChannel
	kindMerged
)

// Variant identifies an analysis branch.
type Variant struct {
	kind    variantKind
	channel int
}

var (
	// Original is the unmodified signal.
	Original = Variant{kind: kindOriginal}
	// Merged is the mean of both channels of a stereo track.
	Merged = Variant{kind: kindMerged}
)

// Channel returns the variant that isolates source channel i.
func Channel(i int) Variant {
	return Variant{kind: kindChannel, channel: i}
}

// ChannelIndex returns the isolated channel and whether v is a channel variant.
func (v Variant) ChannelIndex() (int, bool) {
	return v.channel, v.kind == kindChannel
}

func (v Variant) String() string {
	switch v.kind {
	case kindChannel:
		return "channel_" + strconv.Itoa(v.channel)
	case kindMerged:
		return "merged"
	default:
		return "original"
	}
}

// MarshalText renders v as a JSON object key.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVariant parses original, merged or channel_<i>.
func ParseVariant(s string) (Variant, error) {
	switch s = strings.TrimSpace(s); s {
	case "original":
		return Original, nil
	case "merged":
		return Merged, nil
	}
	if rest, ok := strings.CutPrefix(s, "channel_"); ok {
		i, err := strconv.Atoi(rest)
		if err == nil && i >= 0 {
			return Channel(i), nil
		}
	}
	return Variant{}, fmt.Errorf("unknown channel variant %q", s)
}

// label is the graph output pad name of the branch.
func (v Variant) label() string {
	switch v.kind {
	case kindChannel:
		return "c" + strconv.Itoa(v.channel)
	case kindMerged:
		return "cmerged"
	default:
		return "cfull"
	}
}

// Variants returns the variants analyzed for a track with the given channel
// count: Original, one per channel, and Merged for stereo.
func Variants(channels int) []Variant {
	variants := []Variant{Original}
	for i := 0; i < channels; i++ {
		variants = append(variants, Channel(i))
	}
	if channels == 2 {
		variants = append(variants, Merged)
	}
	return variants
}
