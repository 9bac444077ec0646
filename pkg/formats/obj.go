package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
	ErrOBJIndexRange    = errors.New("OBJ face index out of range")
)

// OBJ is the geometry of a Wavefront OBJ file: positions and a
// triangulated index list. Texture coordinates, normals and materials are
// not kept.
type OBJ struct {
	Name      string
	Positions []math.Vec3
	Indices   []uint32
	Polygons  int // faces as written in the file, before triangulation
}

// TriangleCount returns the number of triangles.
func (o *OBJ) TriangleCount() int {
	return len(o.Indices) / 3
}

// ParseOBJ parses OBJ text. Polygons with more than three corners are
// fan-triangulated. Unknown statements are skipped.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var corners []uint32
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			obj.Positions = append(obj.Positions, p)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: %d corners", line, ErrInvalidOBJFace, len(fields)-1)
			}
			corners = corners[:0]
			for _, tok := range fields[1:] {
				idx, err := parseOBJIndex(tok, len(obj.Positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				obj.Indices = append(obj.Indices, corners[0], corners[i], corners[i+1])
			}
			obj.Polygons++

		case "o":
			if obj.Name == "" && len(fields) > 1 {
				obj.Name = strings.Join(fields[1:], " ")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	for i, idx := range obj.Indices {
		if int(idx) >= len(obj.Positions) {
			return nil, fmt.Errorf("%w: index %d refers to vertex %d of %d", ErrOBJIndexRange, i, idx+1, len(obj.Positions))
		}
	}

	return obj, nil
}

// parseOBJVertex reads "x y z [w]".
func parseOBJVertex(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: need 3 coordinates, got %d", ErrInvalidOBJVertex, len(fields))
	}
	var c [3]float32
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %q", ErrInvalidOBJVertex, fields[i])
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseOBJIndex reads the position part of a "v", "v/vt", "v//vn" or
// "v/vt/vn" token and converts it to a zero-based index. Negative indices
// are relative to the vertices read so far.
func parseOBJIndex(tok string, count int) (uint32, error) {
	pos, _, _ := strings.Cut(tok, "/")
	n, err := strconv.Atoi(pos)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: bad index %q", ErrInvalidOBJFace, tok)
	}
	if n < 0 {
		n += count
		if n < 0 {
			return 0, fmt.Errorf("%w: relative index %q with %d vertices", ErrOBJIndexRange, tok, count)
		}
		return uint32(n), nil
	}
	if int64(n)-1 > gomath.MaxUint32 {
		return 0, fmt.Errorf("%w: index %q", ErrOBJIndexRange, tok)
	}
	return uint32(n - 1), nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// Encode writes the mesh as OBJ text with one triangle per face.
func (o *OBJ) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if o.Name != "" {
		fmt.Fprintf(bw, "o %s\n", o.Name)
	}
	for _, p := range o.Positions {
		bw.WriteString("v ")
		bw.WriteString(strconv.FormatFloat(float64(p.X), 'g', -1, 32))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(float64(p.Y), 'g', -1, 32))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(float64(p.Z), 'g', -1, 32))
		bw.WriteByte('\n')
	}
	for i := 0; i+2 < len(o.Indices); i += 3 {
		fmt.Fprintf(bw, "f %d %d %d\n", o.Indices[i]+1, o.Indices[i+1]+1, o.Indices[i+2]+1)
	}

	return bw.Flush()
}

// WriteOBJFile writes the mesh to path, creating or truncating it.
func WriteOBJFile(path string, o *OBJ) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := o.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return f.Close()
}
