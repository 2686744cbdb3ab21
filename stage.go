package cssbuild

// Stylesheet is CSS text moving through the pipeline. Stages never modify
// their input; each returns a new Stylesheet.
type Stylesheet struct {
	Path string // Path the text was read from or will be written to
	CSS  string
	Map  string // Source map JSON, empty if the stage produced none
}

// Stage is one transformation pass of the build
type Stage interface {
	Name() string
	Process(in Stylesheet) (Stylesheet, []string, error)
}
