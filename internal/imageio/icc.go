package imageio

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
)

const (
	iccMarkerTag     = "ICC_PROFILE\x00"
	maxChunkDataSize = 65519 // max APP2 payload minus 2-byte length = 65535 - 2 - 14 (tag + seq + count)
	maxICCSize       = 4 * 1024 * 1024

	markerSOI  = 0xD8
	markerAPP2 = 0xE2
	markerSOS  = 0xDA
	markerEOI  = 0xD9
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ExtractICC returns the ICC profile embedded in a JPEG (APP2 segments) or
// PNG (iCCP chunk) file, or nil if there is none.
func ExtractICC(data []byte) ([]byte, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == markerSOI:
		markers, err := jpegAPP2(data)
		if err != nil {
			return nil, err
		}
		return assembleICC(markers)
	case bytes.HasPrefix(data, pngSignature):
		return pngICC(data)
	}
	return nil, nil
}

// jpegAPP2 collects APP2 payloads from the header segments that precede the
// first scan.
func jpegAPP2(data []byte) ([][]byte, error) {
	var out [][]byte
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil, fmt.Errorf("jpeg: expected marker at offset %d", pos)
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF: // fill byte
			pos++
			continue
		case marker == markerSOS || marker == markerEOI:
			return out, nil
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			pos += 2
			continue
		}
		n := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if n < 2 || pos+2+n > len(data) {
			return nil, fmt.Errorf("jpeg: truncated segment 0x%02X at offset %d", marker, pos)
		}
		if marker == markerAPP2 {
			out = append(out, data[pos+4:pos+2+n])
		}
		pos += 2 + n
	}
	return out, nil
}

// assembleICC reassembles an ICC profile from APP2 marker payloads.
func assembleICC(markers [][]byte) ([]byte, error) {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	expectedCount := 0

	for _, m := range markers {
		if len(m) < 14 {
			continue
		}
		if string(m[:12]) != iccMarkerTag {
			continue
		}
		seq := int(m[12])
		count := int(m[13])
		if seq == 0 || seq > count {
			return nil, fmt.Errorf("invalid ICC chunk sequence %d/%d", seq, count)
		}
		if expectedCount == 0 {
			expectedCount = count
		} else if count != expectedCount {
			return nil, fmt.Errorf("inconsistent ICC chunk count: %d vs %d", count, expectedCount)
		}
		chunks = append(chunks, chunk{seq: seq, data: m[14:]})
	}

	if len(chunks) == 0 {
		return nil, nil
	}
	if len(chunks) != expectedCount {
		return nil, fmt.Errorf("expected %d ICC chunks, found %d", expectedCount, len(chunks))
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })

	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.data)
	}
	return buf.Bytes(), nil
}

// chunkICC splits an ICC profile into APP2-ready marker payloads.
func chunkICC(profile []byte) ([][]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("empty ICC profile")
	}

	numChunks := (len(profile) + maxChunkDataSize - 1) / maxChunkDataSize
	if numChunks > 255 {
		return nil, fmt.Errorf("ICC profile too large: needs %d chunks (max 255)", numChunks)
	}

	chunks := make([][]byte, 0, numChunks)
	for i := range numChunks {
		start := i * maxChunkDataSize
		end := min(start+maxChunkDataSize, len(profile))
		chunk := make([]byte, 0, 14+end-start)
		chunk = append(chunk, iccMarkerTag...)
		chunk = append(chunk, byte(i+1), byte(numChunks))
		chunk = append(chunk, profile[start:end]...)
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// embedJPEGICC inserts APP2 segments right after SOI.
func embedJPEGICC(data, profile []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, errors.New("not a JPEG stream")
	}
	chunks, err := chunkICC(profile)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(profile)+len(chunks)*18)
	out = append(out, data[:2]...)
	for _, c := range chunks {
		out = append(out, 0xFF, markerAPP2)
		out = binary.BigEndian.AppendUint16(out, uint16(len(c)+2))
		out = append(out, c...)
	}
	return append(out, data[2:]...), nil
}

type pngChunk struct {
	typ  string
	data []byte
}

func pngChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("not a PNG stream")
	}
	var out []pngChunk
	pos := len(pngSignature)
	for pos+12 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		if n < 0 || pos+12+n > len(data) {
			return nil, fmt.Errorf("png: truncated chunk at offset %d", pos)
		}
		typ := string(data[pos+4 : pos+8])
		out = append(out, pngChunk{typ: typ, data: data[pos+8 : pos+8+n]})
		pos += 12 + n
		if typ == "IEND" {
			break
		}
	}
	return out, nil
}

// pngICC decompresses the iCCP chunk: name, NUL, compression method, zlib data.
func pngICC(data []byte) ([]byte, error) {
	chunks, err := pngChunks(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.typ != "iCCP" {
			continue
		}
		nul := bytes.IndexByte(c.data, 0)
		if nul < 1 || nul+2 > len(c.data) {
			return nil, errors.New("png: malformed iCCP chunk")
		}
		if c.data[nul+1] != 0 {
			return nil, fmt.Errorf("png: unknown iCCP compression method %d", c.data[nul+1])
		}
		zr, err := zlib.NewReader(bytes.NewReader(c.data[nul+2:]))
		if err != nil {
			return nil, fmt.Errorf("png: iCCP: %w", err)
		}
		defer zr.Close()
		profile, err := io.ReadAll(io.LimitReader(zr, maxICCSize+1))
		if err != nil {
			return nil, fmt.Errorf("png: iCCP: %w", err)
		}
		if len(profile) > maxICCSize {
			return nil, errors.New("png: iCCP profile too large")
		}
		return profile, nil
	}
	return nil, nil
}

// embedPNGICC inserts an iCCP chunk right after IHDR.
func embedPNGICC(data, profile []byte) ([]byte, error) {
	if len(profile) == 0 {
		return nil, errors.New("empty ICC profile")
	}
	ihdrEnd := len(pngSignature) + 8 + 13 + 4
	if !bytes.HasPrefix(data, pngSignature) || len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return nil, errors.New("not a PNG stream")
	}

	var body bytes.Buffer
	body.WriteString("ICC Profile")
	body.Write([]byte{0, 0})
	zw := zlib.NewWriter(&body)
	if _, err := zw.Write(profile); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)+body.Len()+12)
	out = append(out, data[:ihdrEnd]...)
	out = binary.BigEndian.AppendUint32(out, uint32(body.Len()))
	start := len(out)
	out = append(out, "iCCP"...)
	out = append(out, body.Bytes()...)
	out = binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[start:]))
	return append(out, data[ihdrEnd:]...), nil
}
