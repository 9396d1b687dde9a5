package media

import (
	"bytes"
)

// H.264 NAL unit types used when packaging video samples.
const (
	NALUTypeIDR = 5
	NALUTypeSEI = 6
	NALUTypeSPS = 7
	NALUTypePPS = 8
	NALUTypeAUD = 9
)

var h264StartCode = []byte{0, 0, 1}

// SplitAnnexB splits a buffer of NAL units separated by Annex B start codes
// (3- or 4-byte). Empty units are skipped. The returned slices alias data.
func SplitAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	for len(data) > 0 {
		advance, nalu := splitNALU(data)
		if advance == 0 {
			// No further start code: the remainder is the last unit.
			nalu, advance = data, len(data)
		}
		if len(nalu) > 0 {
			nalus = append(nalus, nalu)
		}
		data = data[advance:]
	}
	return nalus
}

// Splits NAL units on H.264 Annex B start codes.
func splitNALU(data []byte) (advance int, nalu []byte) {
	i := bytes.Index(data, h264StartCode)

	switch {
	case i == -1:
		// No start code found.
		advance = 0
	case i == 0:
		// 3-byte start code (0x000001) found at data[0]. Skip these 3 bytes.
		advance = 3
	case i == 1 && data[0] == 0:
		// 4-byte start code (0x00000001) found at data[0]. Skip these 4 bytes.
		advance = 4
	default:
		// Next start code found at index i.
		advance = i
		if data[i-1] == 0x00 {
			// 4-byte start code
			nalu = data[0 : i-1]
			advance = i - 1
		} else {
			// 3-byte start code
			nalu = data[0:i]
		}
	}
	return
}

// NALUType returns the nal_unit_type of an H.264 NAL unit.
func NALUType(nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	return int(nalu[0] & 0x1f)
}

// ContainsIDR reports whether an Annex B access unit contains an IDR slice.
func ContainsIDR(data []byte) bool {
	for _, nalu := range SplitAnnexB(data) {
		if NALUType(nalu) == NALUTypeIDR {
			return true
		}
	}
	return false
}
