package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

const (
	// HeaderSize is the length of the framed log header.
	HeaderSize = 8

	// Version is the framed log version written by Encoder.
	Version uint16 = 1

	// RecordHeaderSize is the fixed part of a record before its points.
	RecordHeaderSize = 16

	// PointSize is the encoded size of one Point.
	PointSize = 32

	frameHeaderSize = 8
)

// Magic opens every framed log.
var Magic = [4]byte{'V', 'L', 'R', 'P'}

var (
	// ErrTruncated reports a record that ends before its declared size.
	ErrTruncated = errors.New("truncated record")

	// ErrChecksum reports a framed record whose crc32 does not match.
	ErrChecksum = errors.New("record checksum mismatch")

	// ErrVersion reports a framed log with an unsupported version.
	ErrVersion = errors.New("unsupported log version")

	// ErrOrder reports a record whose frame is lower than its predecessor's.
	ErrOrder = errors.New("record frames out of order")
)

// Format selects the on-disk log layout.
type Format int

const (
	FormatFramed Format = iota
	FormatLegacy
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "framed"
}

// ParseFormat parses "framed" or "legacy".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "framed", "":
		return FormatFramed, nil
	case "legacy":
		return FormatLegacy, nil
	}
	return 0, fmt.Errorf("unknown log format %q", s)
}

// RecordSize returns the encoded size of p.
func RecordSize(p Payload) int {
	return RecordHeaderSize + len(p.Event.Points)*PointSize
}

// AppendRecord appends the encoded record for p to buf.
func AppendRecord(buf []byte, p Payload) []byte {
	le := binary.LittleEndian

	buf = le.AppendUint32(buf, p.Frame)
	buf = le.AppendUint32(buf, uint32(p.Event.Type))
	buf = le.AppendUint32(buf, p.Event.Time)
	buf = le.AppendUint32(buf, uint32(len(p.Event.Points)))

	for _, pt := range p.Event.Points {
		buf = le.AppendUint32(buf, uint32(pt.Device))
		buf = le.AppendUint32(buf, uint32(pt.State))
		buf = le.AppendUint32(buf, math.Float32bits(pt.ScreenX))
		buf = le.AppendUint32(buf, math.Float32bits(pt.ScreenY))
		buf = le.AppendUint32(buf, math.Float32bits(pt.RadiusX))
		buf = le.AppendUint32(buf, math.Float32bits(pt.RadiusY))
		buf = le.AppendUint32(buf, math.Float32bits(pt.Pressure))
		buf = le.AppendUint32(buf, math.Float32bits(pt.Angle))
	}
	return buf
}

// DecodeRecord decodes one record from the front of b and returns the
// number of bytes consumed. The declared point count is bounds-checked
// before anything is allocated.
func DecodeRecord(b []byte) (Payload, int, error) {
	le := binary.LittleEndian

	if len(b) < RecordHeaderSize {
		return Payload{}, 0, fmt.Errorf("%w: %d header bytes, want %d", ErrTruncated, len(b), RecordHeaderSize)
	}

	var p Payload
	p.Frame = le.Uint32(b[0:])
	p.Event.Type = EventType(le.Uint32(b[4:]))
	p.Event.Time = le.Uint32(b[8:])
	count := le.Uint32(b[12:])

	rest := uint64(len(b) - RecordHeaderSize)
	if uint64(count)*PointSize > rest {
		return Payload{}, 0, fmt.Errorf("%w: %d points need %d bytes, have %d",
			ErrTruncated, count, uint64(count)*PointSize, rest)
	}

	off := RecordHeaderSize
	if count > 0 {
		p.Event.Points = make([]Point, count)
	}
	for i := range p.Event.Points {
		pt := b[off : off+PointSize]
		p.Event.Points[i] = Point{
			Device:   int32(le.Uint32(pt[0:])),
			State:    PointState(le.Uint32(pt[4:])),
			ScreenX:  math.Float32frombits(le.Uint32(pt[8:])),
			ScreenY:  math.Float32frombits(le.Uint32(pt[12:])),
			RadiusX:  math.Float32frombits(le.Uint32(pt[16:])),
			RadiusY:  math.Float32frombits(le.Uint32(pt[20:])),
			Pressure: math.Float32frombits(le.Uint32(pt[24:])),
			Angle:    math.Float32frombits(le.Uint32(pt[28:])),
		}
		off += PointSize
	}

	return p, off, nil
}

// AppendHeader appends the framed log header to buf.
func AppendHeader(buf []byte) []byte {
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, Version)
	return binary.LittleEndian.AppendUint16(buf, 0)
}

// AppendFrame appends p as one framed record: length, crc32, record.
func AppendFrame(buf []byte, p Payload) []byte {
	record := AppendRecord(make([]byte, 0, RecordSize(p)), p)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(record)))
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(record))
	return append(buf, record...)
}

// DetectFormat reports the layout of a log from its first bytes.
func DetectFormat(data []byte) Format {
	if len(data) >= len(Magic) && [4]byte(data[:4]) == Magic {
		return FormatFramed
	}
	return FormatLegacy
}

// Decode decodes an entire log. On any error no payloads are returned.
func Decode(data []byte) ([]Payload, Format, error) {
	format := DetectFormat(data)

	var (
		payloads []Payload
		err      error
	)
	if format == FormatFramed {
		payloads, err = decodeFramed(data)
	} else {
		payloads, err = decodeLegacy(data)
	}
	if err != nil {
		return nil, format, err
	}

	for i := 1; i < len(payloads); i++ {
		if payloads[i].Frame < payloads[i-1].Frame {
			return nil, format, fmt.Errorf("record %d: %w: frame %d after %d",
				i, ErrOrder, payloads[i].Frame, payloads[i-1].Frame)
		}
	}
	return payloads, format, nil
}

func decodeLegacy(data []byte) ([]Payload, error) {
	var payloads []Payload
	for off := 0; off < len(data); {
		p, n, err := DecodeRecord(data[off:])
		if err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", len(payloads), off, err)
		}
		payloads = append(payloads, p)
		off += n
	}
	return payloads, nil
}

func decodeFramed(data []byte) ([]Payload, error) {
	le := binary.LittleEndian

	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes", ErrTruncated, len(data))
	}
	if v := le.Uint16(data[4:]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var payloads []Payload
	for off := HeaderSize; off < len(data); {
		if len(data)-off < frameHeaderSize {
			return nil, fmt.Errorf("record %d at offset %d: %w: frame header", len(payloads), off, ErrTruncated)
		}
		size := uint64(le.Uint32(data[off:]))
		sum := le.Uint32(data[off+4:])
		start := off + frameHeaderSize

		if size > uint64(len(data)-start) {
			return nil, fmt.Errorf("record %d at offset %d: %w: frame of %d bytes", len(payloads), off, ErrTruncated, size)
		}
		record := data[start : start+int(size)]

		if crc32.ChecksumIEEE(record) != sum {
			return nil, fmt.Errorf("record %d at offset %d: %w", len(payloads), off, ErrChecksum)
		}

		p, n, err := DecodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", len(payloads), off, err)
		}
		if n != len(record) {
			return nil, fmt.Errorf("record %d at offset %d: %w: %d trailing bytes", len(payloads), off, ErrTruncated, len(record)-n)
		}

		payloads = append(payloads, p)
		off = start + int(size)
	}
	return payloads, nil
}

// Encode encodes payloads as a complete log in format.
func Encode(payloads []Payload, format Format) []byte {
	var buf []byte
	if format == FormatFramed {
		buf = AppendHeader(buf)
	}
	for _, p := range payloads {
		if format == FormatFramed {
			buf = AppendFrame(buf, p)
		} else {
			buf = AppendRecord(buf, p)
		}
	}
	return buf
}
