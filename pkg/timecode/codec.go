package timecode

const (
	standardLen = len("HH:MM:SS:FF")
	extendedLen = len("HH:MM:SS:FF.SF")

	frameSepOffset    = 8
	subframeSepOffset = 11
)

// Fields is the textual decomposition of a timecode.
type Fields struct {
	Hours     uint64
	Minutes   uint64
	Seconds   uint64
	Frames    uint64
	Subframes uint64

	DropFrame bool // ';' before the frames field
	Extended  bool // ".SF" present
}

func (f Fields) values() [NumGroups]uint64 {
	return [NumGroups]uint64{f.Hours, f.Minutes, f.Seconds, f.Frames, f.Subframes}
}

func groupOffset(g Group) int {
	return int(g) * 3
}

// ParseFields validates s and splits it into its groups. Groups are not
// range checked beyond being two decimal digits.
func ParseFields(s string) (Fields, error) {
	var f Fields
	switch len(s) {
	case standardLen:
	case extendedLen:
		f.Extended = true
	default:
		return Fields{}, &ParseError{Input: s, Offset: -1, Err: ErrInvalidLength}
	}

	count := NumGroups - 1
	if f.Extended {
		count = NumGroups
	}

	var values [NumGroups]uint64
	for g := 0; g < count; g++ {
		off := groupOffset(Group(g))
		hi, lo := s[off], s[off+1]
		if !isDigit(hi) {
			return Fields{}, &ParseError{Input: s, Offset: off, Err: ErrInvalidDigit}
		}
		if !isDigit(lo) {
			return Fields{}, &ParseError{Input: s, Offset: off + 1, Err: ErrInvalidDigit}
		}
		values[g] = uint64(hi-'0')*10 + uint64(lo-'0')

		if g == count-1 {
			break
		}
		sep := s[off+2]
		switch off + 2 {
		case frameSepOffset:
			if sep == ';' {
				f.DropFrame = true
			} else if sep != ':' {
				return Fields{}, &ParseError{Input: s, Offset: off + 2, Err: ErrInvalidSeparator}
			}
		case subframeSepOffset:
			if sep != '.' {
				return Fields{}, &ParseError{Input: s, Offset: off + 2, Err: ErrInvalidSeparator}
			}
		default:
			if sep != ':' {
				return Fields{}, &ParseError{Input: s, Offset: off + 2, Err: ErrInvalidSeparator}
			}
		}
	}

	f.Hours, f.Minutes, f.Seconds, f.Frames, f.Subframes = values[0], values[1], values[2], values[3], values[4]
	return f, nil
}

// FormatFields renders f as HH:MM:SS:FF, or HH:MM:SS:FF.SF when Extended
// is set. Each group is reduced to two digits.
func FormatFields(f Fields) string {
	n := standardLen
	if f.Extended {
		n = extendedLen
	}
	buf := make([]byte, 0, n)

	buf = appendTwoDigits(buf, f.Hours)
	buf = append(buf, ':')
	buf = appendTwoDigits(buf, f.Minutes)
	buf = append(buf, ':')
	buf = appendTwoDigits(buf, f.Seconds)
	if f.DropFrame {
		buf = append(buf, ';')
	} else {
		buf = append(buf, ':')
	}
	buf = appendTwoDigits(buf, f.Frames)
	if f.Extended {
		buf = append(buf, '.')
		buf = appendTwoDigits(buf, f.Subframes)
	}
	return string(buf)
}

// IsDropFrameString reports whether s is a well-formed drop-frame timecode.
func IsDropFrameString(s string) bool {
	f, err := ParseFields(s)
	return err == nil && f.DropFrame
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func appendTwoDigits(buf []byte, v uint64) []byte {
	v %= 100
	return append(buf, byte('0'+v/10), byte('0'+v%10))
}
