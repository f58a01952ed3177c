package checkpoint

// Memory is an in-process Store used to test the orchestrator without
// touching disk. Fields are exported so tests can inspect what was written.
type Memory struct {
	Parts      map[int]string
	Artifacts  map[string]string
	Metas      []RunMeta
	PartWrites int
}

func NewMemory() *Memory {
	return &Memory{
		Parts:     make(map[int]string),
		Artifacts: make(map[string]string),
	}
}

func (m *Memory) PartExists(index int) (bool, error) {
	_, ok := m.Parts[index]
	return ok, nil
}

func (m *Memory) ReadPart(index int) (string, error) {
	return m.Parts[index], nil
}

func (m *Memory) WritePart(index int, text string) error {
	m.Parts[index] = text
	m.PartWrites++
	return nil
}

func (m *Memory) WriteMeta(meta RunMeta) error {
	m.Metas = append(m.Metas, meta)
	return nil
}

func (m *Memory) WriteArtifact(name, text string) error {
	m.Artifacts[name] = text
	return nil
}

func (m *Memory) Dir() string {
	return ""
}
