package loaders

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiPLY = `ply
format ascii 1.0
comment a triangle with normals and uvs
element vertex 3
property float x
property float y
property float z
property float nx
property float ny
property float nz
property float u
property float v
element face 1
property list uchar int vertex_indices
end_header
0 0 0 0 0 1 0 0
1 0 0 0 0 1 1 0
0 1 0 0 0 1 0 1
3 0 1 2
`

func writeTempPLY(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.ply")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestLoadPLY_ASCII(t *testing.T) {
	mesh, err := LoadPLY(writeTempPLY(t, []byte(asciiPLY)))
	require.NoError(t, err)

	require.Len(t, mesh.Positions, 3)
	require.Len(t, mesh.Indices, 3)
	require.Len(t, mesh.Normals, 3)
	require.Len(t, mesh.TexCoords, 3)

	assert.Equal(t, 1.0, mesh.Positions[1].X)
	assert.Equal(t, 1.0, mesh.Normals[0].Z)
	assert.Equal(t, 1.0, mesh.TexCoords[2].Y)
	assert.Equal(t, []int{0, 1, 2}, mesh.Indices)
}

func TestLoadPLY_BinaryLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format binary_little_endian 1.0\n")
	buf.WriteString("element vertex 3\n")
	buf.WriteString("property float x\nproperty float y\nproperty float z\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar uint vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
	for _, v := range vertices {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteByte(3)
	binary.Write(&buf, binary.LittleEndian, [3]uint32{0, 1, 2})

	mesh, err := LoadPLY(writeTempPLY(t, buf.Bytes()))
	require.NoError(t, err)

	require.Len(t, mesh.Positions, 3)
	assert.Equal(t, 2.0, mesh.Positions[1].X)
	assert.Nil(t, mesh.Normals, "mesh without normals must report none")
	assert.Equal(t, []int{0, 1, 2}, mesh.Indices)
}

func TestLoadPLY_RejectsQuads(t *testing.T) {
	quad := `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`
	_, err := LoadPLY(writeTempPLY(t, []byte(quad)))
	assert.Error(t, err, "non-triangular faces must be rejected")
}

func TestLoadPLY_MissingFile(t *testing.T) {
	_, err := LoadPLY("/nonexistent/mesh.ply")
	assert.Error(t, err)
}

func TestLoadPLY_BadMagic(t *testing.T) {
	_, err := LoadPLY(writeTempPLY(t, []byte("obj\nnot a ply\n")))
	assert.Error(t, err)
}
