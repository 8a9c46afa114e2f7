package types

// StorageClass tags the address space a pointer's pointee lives in. The
// numeric values are part of the binary encoding contract and must not be
// reordered.
type StorageClass uint32

const (
	ClassUniformConstant StorageClass = 0
	ClassInput           StorageClass = 1
	ClassUniform         StorageClass = 2
	ClassOutput          StorageClass = 3
	ClassWorkgroup       StorageClass = 4
	ClassCrossWorkgroup  StorageClass = 5
	ClassPrivate         StorageClass = 6
	ClassFunction        StorageClass = 7
	ClassPushConstant    StorageClass = 9
	ClassStorageBuffer   StorageClass = 12
)

var classNames = map[StorageClass]string{
	ClassUniformConstant: "UniformConstant",
	ClassInput:           "Input",
	ClassUniform:         "Uniform",
	ClassOutput:          "Output",
	ClassWorkgroup:       "Workgroup",
	ClassCrossWorkgroup:  "CrossWorkgroup",
	ClassPrivate:         "Private",
	ClassFunction:        "Function",
	ClassPushConstant:    "PushConstant",
	ClassStorageBuffer:   "StorageBuffer",
}

func (c StorageClass) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "UnknownStorageClass"
}

// Valid reports whether c names a known storage class.
func (c StorageClass) Valid() bool {
	_, ok := classNames[c]
	return ok
}

// ParseStorageClass maps a textual enumerator to its storage class.
func ParseStorageClass(name string) (StorageClass, bool) {
	for c, n := range classNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}
