package media

// Codec identifies a media encoding.
type Codec string

const (
	H264 Codec = "H264"
	HEVC Codec = "HEVC"
	AAC  Codec = "AAC"
	JPEG Codec = "JPEG"
)

// VideoFormat describes the encoded video a sample-buffer output produces.
type VideoFormat struct {
	Codec  Codec
	Width  int
	Height int

	// H.264 parameter sets, without start codes. When missing, the MP4 writer
	// takes them from the first key frame.
	SPS []byte
	PPS []byte
}

// AudioFormat describes the encoded audio a sample-buffer output produces.
type AudioFormat struct {
	Codec      Codec
	SampleRate int
	Channels   int
}

// Sampling frequencies indexed by MPEG-4 audio sampling frequency index.
var aacSampleRates = []int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// AudioSpecificConfig returns the two-byte MPEG-4 AudioSpecificConfig for
// AAC-LC at the format's sample rate and channel count, or nil if the sample
// rate has no standard index.
func (f AudioFormat) AudioSpecificConfig() []byte {
	const objectTypeAACLC = 2
	for i, rate := range aacSampleRates {
		if rate == f.SampleRate {
			v := objectTypeAACLC<<11 | i<<7 | (f.Channels&0xf)<<3
			return []byte{byte(v >> 8), byte(v)}
		}
	}
	return nil
}
