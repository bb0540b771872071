//go:build go1.22

package arena

import "reflect"

// shapes[i] is the struct shape used for a power-of-two allocation of
// 1<<i bytes: size bytes of data followed by a pointer back to the owning
// Arena, so the GC can trace from any live pointer into the block back to
// the arena header (see the arena package doc comment).
//
// Built once at init instead of by the shapes.sh generator referenced in
// alloc.go's go:generate comment, since there is no codegen step here;
// the resulting types are identical either way.
var shapes [50]reflect.Type

func init() {
	arenaPtr := reflect.TypeFor[*Arena]()
	byteType := reflect.TypeFor[byte]()

	for i := range shapes {
		shapes[i] = reflect.StructOf([]reflect.StructField{
			{Name: "Data", Type: reflect.ArrayOf(1<<i, byteType)},
			{Name: "Arena", Type: arenaPtr},
		})
	}
}
