// Package h264 provides minimal Annex-B NAL unit splitting, shared by the
// Stream worker (key-frame detection) and the Recorder (SPS/PPS
// extraction for the MP4 sample description). It does not parse slice
// contents beyond the NAL header byte.
package h264

// NAL unit type values relevant to this module.
const (
	TypeIDRSlice = 5
	TypeSEI      = 6
	TypeSPS      = 7
	TypePPS      = 8
)

// Type returns the nal_unit_type of a start-code-stripped NAL unit.
func Type(nal []byte) byte {
	if len(nal) == 0 {
		return 0
	}
	return nal[0] & 0x1f
}

// ContainsIDR reports whether any NAL unit in an Annex-B access unit is
// an IDR slice.
func ContainsIDR(payload []byte) bool {
	for _, nal := range Split(payload) {
		if Type(nal) == TypeIDRSlice {
			return true
		}
	}
	return false
}

// Split splits a byte-stream access unit into its constituent NAL units,
// with start codes stripped. Tolerant of both 3-byte and 4-byte start
// codes, as real encoders mix the two within a single access unit.
func Split(data []byte) [][]byte {
	var units [][]byte
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil
	}
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1].offset
		}
		body := data[s.offset+s.length : end]
		if len(body) > 0 {
			units = append(units, body)
		}
	}
	return units
}

type startCode struct {
	offset int
	length int
}

func findStartCodes(data []byte) []startCode {
	var starts []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			if i > 0 && data[i-1] == 0 {
				starts = append(starts, startCode{offset: i - 1, length: 4})
			} else {
				starts = append(starts, startCode{offset: i, length: 3})
			}
		}
	}
	return starts
}
