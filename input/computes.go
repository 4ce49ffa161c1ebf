package input

// Shape of the value a compute produces.
const (
	TypeScalar = "scalar"
	TypeVector = "vector"
	TypeMixed  = "mixed"
	TypeArray  = "array"
)

// Where the value lives: global quantities go to the thermo table, local
// (per-atom) quantities go to the dump file.
const (
	LocalityGlobal = "global"
	LocalityLocal  = "local"
)

// ComputeInfo describes how a LAMMPS compute presents its results. Size is
// the vector length when fixed, 0 when it depends on the run.
type ComputeInfo struct {
	Type      string
	Size      int
	Locality  string
	Printable bool
}

// Computes registers the supported compute styles and the shape of their
// output, driving which thermo and dump columns are requested for each.
var Computes = map[string]ComputeInfo{
	"angle":          {Type: TypeVector, Size: 0, Locality: LocalityGlobal, Printable: true},
	"angmom/chunk":   {Type: TypeArray, Size: 0, Locality: LocalityGlobal, Printable: false},
	"bond":           {Type: TypeVector, Size: 0, Locality: LocalityGlobal, Printable: true},
	"centro/atom":    {Type: TypeScalar, Size: 0, Locality: LocalityLocal, Printable: true},
	"cna/atom":       {Type: TypeScalar, Size: 0, Locality: LocalityLocal, Printable: true},
	"com":            {Type: TypeVector, Size: 3, Locality: LocalityGlobal, Printable: true},
	"coord/atom":     {Type: TypeVector, Size: 0, Locality: LocalityLocal, Printable: true},
	"displace/atom":  {Type: TypeVector, Size: 4, Locality: LocalityLocal, Printable: true},
	"erotate/sphere": {Type: TypeScalar, Size: 0, Locality: LocalityGlobal, Printable: true},
	"gyration":       {Type: TypeMixed, Size: 6, Locality: LocalityGlobal, Printable: true},
	"ke":             {Type: TypeScalar, Size: 0, Locality: LocalityGlobal, Printable: true},
	"ke/atom":        {Type: TypeScalar, Size: 0, Locality: LocalityLocal, Printable: true},
	"msd":            {Type: TypeVector, Size: 4, Locality: LocalityGlobal, Printable: true},
	"pair":           {Type: TypeMixed, Size: 0, Locality: LocalityGlobal, Printable: true},
	"pe":             {Type: TypeScalar, Size: 0, Locality: LocalityGlobal, Printable: true},
	"pe/atom":        {Type: TypeScalar, Size: 0, Locality: LocalityLocal, Printable: true},
	"pressure":       {Type: TypeMixed, Size: 6, Locality: LocalityGlobal, Printable: true},
	"property/atom":  {Type: TypeVector, Size: 0, Locality: LocalityLocal, Printable: true},
	"rdf":            {Type: TypeArray, Size: 0, Locality: LocalityGlobal, Printable: false},
	"stress/atom":    {Type: TypeVector, Size: 6, Locality: LocalityLocal, Printable: true},
	"temp":           {Type: TypeMixed, Size: 6, Locality: LocalityGlobal, Printable: true},
	"temp/com":       {Type: TypeMixed, Size: 6, Locality: LocalityGlobal, Printable: true},
	"temp/sphere":    {Type: TypeMixed, Size: 6, Locality: LocalityGlobal, Printable: true},
	"vacf":           {Type: TypeVector, Size: 4, Locality: LocalityGlobal, Printable: true},
	"voronoi/atom":   {Type: TypeVector, Size: 2, Locality: LocalityLocal, Printable: true},
}
