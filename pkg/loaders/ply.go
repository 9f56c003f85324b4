package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-pathtracer/pkg/core"
)

// MeshData contains the vertex and face data loaded from a PLY file.
// Normals and TexCoords are empty when the file does not carry them.
type MeshData struct {
	Positions []core.Vec3
	Normals   []core.Vec3
	TexCoords []core.Vec2
	Indices   []int // 3 per triangle
}

type plyProperty struct {
	name     string
	dataType string
	isList   bool
	listType string
}

type plyHeader struct {
	format      string
	vertexCount int
	faceCount   int
	vertexProps []plyProperty
	faceProps   []plyProperty
}

// LoadPLY loads a triangle mesh from a PLY file. Binary little-endian and
// ascii formats are supported; faces must be triangles.
func LoadPLY(filename string) (*MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 1<<20)
	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header of %s: %w", filename, err)
	}

	switch header.format {
	case "binary_little_endian":
		return readBinaryPLY(reader, header)
	case "ascii":
		return readASCIIPLY(reader, header)
	default:
		return nil, fmt.Errorf("unsupported PLY format %q in %s", header.format, filename)
	}
}

func parsePLYHeader(reader *bufio.Reader) (*plyHeader, error) {
	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic line")
	}

	header := &plyHeader{}
	currentElement := ""

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unterminated header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "end_header" {
			return header, nil
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "comment", "obj_info":
			// Ignored
		case "format":
			if len(parts) < 2 {
				return nil, fmt.Errorf("invalid format line %q", line)
			}
			header.format = parts[1]
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count %q", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.vertexCount = count
			case "face":
				header.faceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			switch currentElement {
			case "vertex":
				header.vertexProps = append(header.vertexProps, prop)
			case "face":
				header.faceProps = append(header.faceProps, prop)
			}
		}
	}
}

func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) < 2 {
		return plyProperty{}, fmt.Errorf("invalid property definition")
	}
	if parts[0] == "list" {
		if len(parts) < 4 {
			return plyProperty{}, fmt.Errorf("invalid list property definition")
		}
		return plyProperty{name: parts[3], isList: true, listType: parts[1], dataType: parts[2]}, nil
	}
	return plyProperty{name: parts[1], dataType: parts[0]}, nil
}

func newMeshData(header *plyHeader) *MeshData {
	mesh := &MeshData{
		Positions: make([]core.Vec3, 0, header.vertexCount),
		Indices:   make([]int, 0, header.faceCount*3),
	}
	for _, prop := range header.vertexProps {
		switch prop.name {
		case "nx":
			mesh.Normals = make([]core.Vec3, 0, header.vertexCount)
		case "u", "s", "texture_u":
			mesh.TexCoords = make([]core.Vec2, 0, header.vertexCount)
		}
	}
	return mesh
}

func (m *MeshData) appendVertex(values map[string]float64) {
	m.Positions = append(m.Positions, core.NewVec3(values["x"], values["y"], values["z"]))
	if m.Normals != nil {
		m.Normals = append(m.Normals, core.NewVec3(values["nx"], values["ny"], values["nz"]))
	}
	if m.TexCoords != nil {
		m.TexCoords = append(m.TexCoords, core.NewVec2(values["u"], values["v"]))
	}
}

func canonicalPropName(name string) string {
	switch name {
	case "s", "texture_u":
		return "u"
	case "t", "texture_v":
		return "v"
	}
	return name
}

func readBinaryPLY(reader *bufio.Reader, header *plyHeader) (*MeshData, error) {
	mesh := newMeshData(header)

	values := make(map[string]float64, len(header.vertexProps))
	for i := 0; i < header.vertexCount; i++ {
		for _, prop := range header.vertexProps {
			value, err := readBinaryScalar(reader, prop.dataType)
			if err != nil {
				return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
			}
			values[canonicalPropName(prop.name)] = value
		}
		mesh.appendVertex(values)
	}

	for i := 0; i < header.faceCount; i++ {
		for _, prop := range header.faceProps {
			if !prop.isList {
				if _, err := readBinaryScalar(reader, prop.dataType); err != nil {
					return nil, fmt.Errorf("failed to read face %d: %w", i, err)
				}
				continue
			}

			count, err := readBinaryScalar(reader, prop.listType)
			if err != nil {
				return nil, fmt.Errorf("failed to read face %d: %w", i, err)
			}

			if prop.name == "vertex_indices" || prop.name == "vertex_index" {
				if int(count) != 3 {
					return nil, fmt.Errorf("only triangular faces supported, face %d has %d vertices", i, int(count))
				}
				for k := 0; k < 3; k++ {
					index, err := readBinaryScalar(reader, prop.dataType)
					if err != nil {
						return nil, fmt.Errorf("failed to read face %d: %w", i, err)
					}
					mesh.Indices = append(mesh.Indices, int(index))
				}
			} else {
				for k := 0; k < int(count); k++ {
					if _, err := readBinaryScalar(reader, prop.dataType); err != nil {
						return nil, fmt.Errorf("failed to read face %d: %w", i, err)
					}
				}
			}
		}
	}

	return mesh, nil
}

func readBinaryScalar(reader io.Reader, dataType string) (float64, error) {
	switch dataType {
	case "float", "float32":
		var v float32
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "double", "float64":
		var v float64
		err := binary.Read(reader, binary.LittleEndian, &v)
		return v, err
	case "int", "int32":
		var v int32
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "char", "int8":
		var v int8
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	default:
		return 0, fmt.Errorf("unsupported data type %q", dataType)
	}
}

func readASCIIPLY(reader *bufio.Reader, header *plyHeader) (*MeshData, error) {
	mesh := newMeshData(header)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	nextFields := func() ([]string, error) {
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	values := make(map[string]float64, len(header.vertexProps))
	for i := 0; i < header.vertexCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}
		if len(fields) < len(header.vertexProps) {
			return nil, fmt.Errorf("vertex %d has %d values, expected %d", i, len(fields), len(header.vertexProps))
		}
		for j, prop := range header.vertexProps {
			value, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid vertex value %q: %w", fields[j], err)
			}
			values[canonicalPropName(prop.name)] = value
		}
		mesh.appendVertex(values)
	}

	for i := 0; i < header.faceCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", i, err)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count != 3 {
			return nil, fmt.Errorf("only triangular faces supported, face %d has count %q", i, fields[0])
		}
		for k := 1; k <= 3; k++ {
			index, err := strconv.Atoi(fields[k])
			if err != nil {
				return nil, fmt.Errorf("invalid face index %q: %w", fields[k], err)
			}
			mesh.Indices = append(mesh.Indices, index)
		}
	}

	// Guard against meshes with broken normals
	for i, n := range mesh.Normals {
		if math.IsNaN(n.X) || n.IsZero() {
			mesh.Normals[i] = core.NewVec3(0, 0, 1)
		}
	}

	return mesh, nil
}
