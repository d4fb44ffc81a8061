package mesh

import "testing"

func TestPrimitiveTypeComponents(t *testing.T) {
	cases := map[PrimitiveType]int{Float: 1, Vec2f: 2, Vec3f: 3, Vec4f: 4}
	for pt, want := range cases {
		if got := pt.Components(); got != want {
			t.Errorf("%v.Components() = %d, want %d", pt, got, want)
		}
	}
}

func TestAttributeElementCount(t *testing.T) {
	a := Attribute{Name: AttributePosition, Type: Vec3f, Data: make([]float32, 12)}
	if got := a.ElementCount(); got != 4 {
		t.Errorf("ElementCount() = %d, want 4", got)
	}
}

func TestMorphAndIndexedNames(t *testing.T) {
	if got := MorphName(AttributePosition, 2); got != "a_Position_Morph_2" {
		t.Errorf("MorphName = %q", got)
	}
	if got := IndexedName(AttributeTextureCoordinate, 1); got != "a_TextureCoordinate1" {
		t.Errorf("IndexedName = %q", got)
	}
}

func TestMeshNumTriangles(t *testing.T) {
	m := &Mesh{Indices: []uint32{0, 1, 2, 0, 2, 3}}
	if got := m.NumTriangles(); got != 2 {
		t.Errorf("NumTriangles() = %d, want 2", got)
	}
}

func TestMeshComputeTriangles(t *testing.T) {
	m := &Mesh{
		Indices: []uint32{0, 1, 2, 0, 2, 3},
		Attributes: []Attribute{
			{Name: AttributePosition, Type: Vec3f, Data: []float32{
				0, 0, 0,
				1, 0, 0,
				1, 1, 0,
				0, 1, 0,
			}},
		},
	}
	m.ComputeTriangles()

	want := []float32{
		0, 0, 0, 1, 0, 0, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 1, 0,
	}
	if len(m.Triangles) != len(want) {
		t.Fatalf("len(Triangles) = %d, want %d", len(m.Triangles), len(want))
	}
	for i := range want {
		if m.Triangles[i] != want[i] {
			t.Fatalf("Triangles[%d] = %v, want %v", i, m.Triangles[i], want[i])
		}
	}
}

func TestMeshComputeTrianglesOutOfRangeIndexZeroes(t *testing.T) {
	m := &Mesh{
		Indices: []uint32{0, 1, 99},
		Attributes: []Attribute{
			{Name: AttributePosition, Type: Vec3f, Data: []float32{0, 0, 0, 1, 0, 0}},
		},
	}
	m.ComputeTriangles()

	want := []float32{0, 0, 0, 1, 0, 0, 0, 0, 0}
	for i := range want {
		if m.Triangles[i] != want[i] {
			t.Fatalf("Triangles[%d] = %v, want %v", i, m.Triangles[i], want[i])
		}
	}
}

func TestMeshComputeTrianglesNoPositionIsNoop(t *testing.T) {
	m := &Mesh{Indices: []uint32{0, 1, 2}}
	m.ComputeTriangles()
	if m.Triangles != nil {
		t.Fatalf("Triangles = %v, want nil", m.Triangles)
	}
}

func TestMeshAttributeLookup(t *testing.T) {
	m := &Mesh{Attributes: []Attribute{
		{Name: AttributePosition, Type: Vec3f, Data: []float32{0, 0, 0}},
	}}
	if m.Attribute(AttributePosition) == nil {
		t.Fatal("expected to find position attribute")
	}
	if m.Attribute(AttributeNormal) != nil {
		t.Fatal("expected no normal attribute")
	}
}
