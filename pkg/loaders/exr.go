package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/klauspost/compress/zlib"

	"github.com/df07/go-pathtracer/pkg/core"
)

// OpenEXR scanline files, enough of the format for our own output and for
// loading environment maps: FLOAT and HALF channels, NONE/ZIPS/ZIP
// compression, single part, increasing line order.

const (
	exrMagic   = 20000630
	exrVersion = 2

	pixelTypeUint  = 0
	pixelTypeHalf  = 1
	pixelTypeFloat = 2

	compressionNone = 0
	compressionZips = 2
	compressionZip  = 3
)

type exrChannel struct {
	name      string
	pixelType int32
}

// SaveEXR writes a linear HDR image as a float EXR file. Channels are
// stored in BGR order (most viewers expect this), and the run log is
// embedded as a custom "log" string attribute. Images of at least 16
// pixels in both dimensions are ZIP-compressed.
func SaveEXR(filename string, img *Image, log string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create EXR file: %w", err)
	}
	defer file.Close()

	compression := byte(compressionZip)
	linesPerBlock := 16
	if img.Width < 16 || img.Height < 16 {
		compression = compressionNone
		linesPerBlock = 1
	}

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, int32(exrMagic))
	binary.Write(&header, binary.LittleEndian, int32(exrVersion))

	// Channel list: alphabetical order happens to be exactly B, G, R
	var chlist bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		chlist.WriteString(name)
		chlist.WriteByte(0)
		binary.Write(&chlist, binary.LittleEndian, int32(pixelTypeFloat))
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear + reserved
		binary.Write(&chlist, binary.LittleEndian, int32(1))
		binary.Write(&chlist, binary.LittleEndian, int32(1))
	}
	chlist.WriteByte(0)
	writeAttribute(&header, "channels", "chlist", chlist.Bytes())

	writeAttribute(&header, "compression", "compression", []byte{compression})

	var box bytes.Buffer
	binary.Write(&box, binary.LittleEndian, [4]int32{0, 0, int32(img.Width - 1), int32(img.Height - 1)})
	writeAttribute(&header, "dataWindow", "box2i", box.Bytes())
	writeAttribute(&header, "displayWindow", "box2i", box.Bytes())

	writeAttribute(&header, "lineOrder", "lineOrder", []byte{0})

	if log != "" {
		writeAttribute(&header, "log", "string", []byte(log))
	}

	var f32 bytes.Buffer
	binary.Write(&f32, binary.LittleEndian, float32(1))
	writeAttribute(&header, "pixelAspectRatio", "float", f32.Bytes())

	var center bytes.Buffer
	binary.Write(&center, binary.LittleEndian, [2]float32{0, 0})
	writeAttribute(&header, "screenWindowCenter", "v2f", center.Bytes())
	writeAttribute(&header, "screenWindowWidth", "float", f32.Bytes())

	header.WriteByte(0) // end of attributes

	// Compress the scanline blocks up front so the offset table is known
	blockCount := (img.Height + linesPerBlock - 1) / linesPerBlock
	blocks := make([][]byte, blockCount)
	for block := 0; block < blockCount; block++ {
		yStart := block * linesPerBlock
		yEnd := min(yStart+linesPerBlock, img.Height)

		raw := make([]byte, 0, (yEnd-yStart)*img.Width*3*4)
		for y := yStart; y < yEnd; y++ {
			// Per scanline: full rows of B, then G, then R
			for _, extract := range []func(core.Color) float64{
				func(c core.Color) float64 { return c.Z },
				func(c core.Color) float64 { return c.Y },
				func(c core.Color) float64 { return c.X },
			} {
				for x := 0; x < img.Width; x++ {
					bits := math.Float32bits(float32(extract(img.Get(x, y))))
					raw = append(raw, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
				}
			}
		}

		data := raw
		if compression == compressionZip {
			if packed, err := exrZipCompress(raw); err == nil && len(packed) < len(raw) {
				data = packed
			}
		}

		var chunk bytes.Buffer
		binary.Write(&chunk, binary.LittleEndian, int32(yStart))
		binary.Write(&chunk, binary.LittleEndian, int32(len(data)))
		chunk.Write(data)
		blocks[block] = chunk.Bytes()
	}

	// Offset table: absolute file offsets of each chunk
	offset := uint64(header.Len()) + uint64(8*blockCount)
	var table bytes.Buffer
	for _, chunk := range blocks {
		binary.Write(&table, binary.LittleEndian, offset)
		offset += uint64(len(chunk))
	}

	if _, err := file.Write(header.Bytes()); err != nil {
		return fmt.Errorf("failed to write EXR header: %w", err)
	}
	if _, err := file.Write(table.Bytes()); err != nil {
		return fmt.Errorf("failed to write EXR offset table: %w", err)
	}
	for _, chunk := range blocks {
		if _, err := file.Write(chunk); err != nil {
			return fmt.Errorf("failed to write EXR chunk: %w", err)
		}
	}
	return nil
}

func writeAttribute(w *bytes.Buffer, name, attrType string, value []byte) {
	w.WriteString(name)
	w.WriteByte(0)
	w.WriteString(attrType)
	w.WriteByte(0)
	binary.Write(w, binary.LittleEndian, int32(len(value)))
	w.Write(value)
}

// LoadEXR reads a scanline EXR file into a linear image buffer. R, G, B
// channels map to the color planes; an A channel, if present, becomes the
// alpha mask.
func LoadEXR(filename string) (*Image, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read EXR file: %w", err)
	}
	r := bytes.NewReader(data)

	var magic, version int32
	binary.Read(r, binary.LittleEndian, &magic)
	binary.Read(r, binary.LittleEndian, &version)
	if magic != exrMagic {
		return nil, fmt.Errorf("%s is not an EXR file", filename)
	}
	if version&0x200 != 0 || version&0x800 != 0 || version&0x1000 != 0 {
		return nil, fmt.Errorf("%s: tiled, deep, or multi-part EXR files are not supported", filename)
	}

	var channels []exrChannel
	compression := byte(compressionNone)
	var xMin, yMin, xMax, yMax int32

	for {
		name, err := readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("%s: truncated EXR header: %w", filename, err)
		}
		if name == "" {
			break
		}
		_, err = readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("%s: truncated EXR header: %w", filename, err)
		}
		var size int32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("%s: truncated EXR header: %w", filename, err)
		}
		value := make([]byte, size)
		if _, err := io.ReadFull(r, value); err != nil {
			return nil, fmt.Errorf("%s: truncated EXR attribute %s: %w", filename, name, err)
		}

		switch name {
		case "channels":
			channels, err = parseChannelList(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
		case "compression":
			compression = value[0]
		case "dataWindow":
			vr := bytes.NewReader(value)
			binary.Read(vr, binary.LittleEndian, &xMin)
			binary.Read(vr, binary.LittleEndian, &yMin)
			binary.Read(vr, binary.LittleEndian, &xMax)
			binary.Read(vr, binary.LittleEndian, &yMax)
		}
	}

	if len(channels) == 0 {
		return nil, fmt.Errorf("%s: EXR file has no channel list", filename)
	}

	linesPerBlock := 1
	switch compression {
	case compressionNone, compressionZips:
	case compressionZip:
		linesPerBlock = 16
	default:
		return nil, fmt.Errorf("%s: unsupported EXR compression type %d", filename, compression)
	}

	width := int(xMax-xMin) + 1
	height := int(yMax-yMin) + 1
	img := NewImage(width, height)

	hasAlpha := false
	for _, ch := range channels {
		if ch.name == "A" {
			hasAlpha = true
		}
	}
	if hasAlpha {
		img.Alpha = make([]float64, width*height)
	}

	// Skip the offset table; chunks follow in line order anyway
	blockCount := (height + linesPerBlock - 1) / linesPerBlock
	if _, err := r.Seek(int64(8*blockCount), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("%s: truncated EXR offset table", filename)
	}

	bytesPerPixel := 0
	for _, ch := range channels {
		switch ch.pixelType {
		case pixelTypeHalf:
			bytesPerPixel += 2
		case pixelTypeFloat, pixelTypeUint:
			bytesPerPixel += 4
		}
	}

	for block := 0; block < blockCount; block++ {
		var y, packedSize int32
		if err := binary.Read(r, binary.LittleEndian, &y); err != nil {
			return nil, fmt.Errorf("%s: truncated EXR chunk: %w", filename, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &packedSize); err != nil {
			return nil, fmt.Errorf("%s: truncated EXR chunk: %w", filename, err)
		}
		packed := make([]byte, packedSize)
		if _, err := io.ReadFull(r, packed); err != nil {
			return nil, fmt.Errorf("%s: truncated EXR chunk: %w", filename, err)
		}

		yStart := int(y - yMin)
		yEnd := min(yStart+linesPerBlock, height)
		rawSize := (yEnd - yStart) * width * bytesPerPixel

		raw := packed
		if compression != compressionNone && len(packed) < rawSize {
			raw, err = exrZipDecompress(packed, rawSize)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to decompress EXR chunk: %w", filename, err)
			}
		}

		pos := 0
		for line := yStart; line < yEnd; line++ {
			for _, ch := range channels {
				for x := 0; x < width; x++ {
					var value float64
					switch ch.pixelType {
					case pixelTypeHalf:
						value = float64(halfToFloat(binary.LittleEndian.Uint16(raw[pos:])))
						pos += 2
					case pixelTypeFloat:
						value = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[pos:])))
						pos += 4
					case pixelTypeUint:
						value = float64(binary.LittleEndian.Uint32(raw[pos:]))
						pos += 4
					}

					index := line*width + x
					switch ch.name {
					case "R":
						img.Pixels[index].X = value
					case "G":
						img.Pixels[index].Y = value
					case "B":
						img.Pixels[index].Z = value
					case "A":
						img.Alpha[index] = value
					}
				}
			}
		}
	}

	return img, nil
}

func parseChannelList(value []byte) ([]exrChannel, error) {
	var channels []exrChannel
	r := bytes.NewReader(value)
	for {
		name, err := readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("truncated EXR channel list: %w", err)
		}
		if name == "" {
			break
		}
		var pixelType int32
		if err := binary.Read(r, binary.LittleEndian, &pixelType); err != nil {
			return nil, fmt.Errorf("truncated EXR channel list: %w", err)
		}
		var skip [12]byte // pLinear, reserved, xSampling, ySampling
		if _, err := io.ReadFull(r, skip[:]); err != nil {
			return nil, fmt.Errorf("truncated EXR channel list: %w", err)
		}
		channels = append(channels, exrChannel{name: name, pixelType: pixelType})
	}
	// The file stores channels alphabetically; keep that order for decoding
	sort.Slice(channels, func(i, j int) bool { return channels[i].name < channels[j].name })
	return channels, nil
}

func readNullTerminated(r *bytes.Reader) (string, error) {
	var sb bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}

// exrZipCompress applies the OpenEXR byte reorder and delta predictor,
// then deflates
func exrZipCompress(raw []byte) ([]byte, error) {
	tmp := make([]byte, len(raw))

	// Split even-indexed bytes into the first half, odd into the second
	half := (len(raw) + 1) / 2
	j1, j2 := 0, half
	for i := 0; i < len(raw); {
		tmp[j1] = raw[i]
		j1++
		i++
		if i < len(raw) {
			tmp[j2] = raw[i]
			j2++
			i++
		}
	}

	// Delta predictor
	prev := int(tmp[0])
	for i := 1; i < len(tmp); i++ {
		d := int(tmp[i]) - prev + (128 + 256)
		prev = int(tmp[i])
		tmp[i] = byte(d)
	}

	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	if _, err := w.Write(tmp); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// exrZipDecompress inflates and undoes the predictor and byte reorder
func exrZipDecompress(packed []byte, rawSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	tmp := make([]byte, rawSize)
	if _, err := io.ReadFull(zr, tmp); err != nil {
		return nil, err
	}

	// Undo the delta predictor
	for i := 1; i < len(tmp); i++ {
		tmp[i] = byte(int(tmp[i-1]) + int(tmp[i]) - 128)
	}

	// Interleave the two halves back together
	out := make([]byte, len(tmp))
	half := (len(tmp) + 1) / 2
	i1, i2 := 0, half
	for j := 0; j < len(out); {
		out[j] = tmp[i1]
		i1++
		j++
		if j < len(out) {
			out[j] = tmp[i2]
			i2++
			j++
		}
	}
	return out, nil
}

// halfToFloat converts an IEEE 754 half-precision value
func halfToFloat(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exponent := uint32(h>>10) & 0x1f
	mantissa := uint32(h) & 0x3ff

	var bits uint32
	switch {
	case exponent == 0 && mantissa == 0:
		bits = sign << 31
	case exponent == 0:
		// Subnormal: renormalize
		for mantissa&0x400 == 0 {
			mantissa <<= 1
			exponent--
		}
		exponent++
		mantissa &= 0x3ff
		bits = sign<<31 | (exponent+112)<<23 | mantissa<<13
	case exponent == 0x1f:
		// Inf or NaN
		bits = sign<<31 | 0xff<<23 | mantissa<<13
	default:
		bits = sign<<31 | (exponent+112)<<23 | mantissa<<13
	}
	return math.Float32frombits(bits)
}
