package media

import (
	"bufio"
	"io"

	"github.com/nareix/joy4/codec/aacparser"
	"github.com/pkg/errors"
)

// Largest ADTS header: 7 bytes, plus 2 bytes of CRC.
const adtsMaxHeader = 9

// ADTSReader reads AAC frames from an ADTS byte stream, e.g. the output of an
// external encoder writing to a pipe.
type ADTSReader struct {
	r *bufio.Reader

	// Format of the most recently read frame.
	Format AudioFormat
}

func NewADTSReader(r io.Reader) *ADTSReader {
	return &ADTSReader{r: bufio.NewReaderSize(r, 8192)}
}

// ReadFrame returns the next raw AAC frame (header stripped) and the number of
// PCM samples it decodes to.
func (a *ADTSReader) ReadFrame() (frame []byte, samples int, err error) {
	hdr, err := a.r.Peek(adtsMaxHeader)
	if err != nil {
		return nil, 0, err
	}

	config, hdrlen, framelen, samples, err := aacparser.ParseADTSHeader(hdr)
	if err != nil {
		return nil, 0, errors.Wrap(err, "adts")
	}
	if framelen < hdrlen {
		return nil, 0, errors.Errorf("adts: frame length %d shorter than header", framelen)
	}

	buf := make([]byte, framelen)
	if _, err := io.ReadFull(a.r, buf); err != nil {
		return nil, 0, err
	}

	a.Format = AudioFormat{
		Codec:      AAC,
		SampleRate: config.SampleRate,
		Channels:   int(config.ChannelConfig),
	}
	return buf[hdrlen:], samples, nil
}
